package config

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterOr returns the decrypted SSM parameter value, or fallback when the
// name is empty or the lookup fails.
func ParameterOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	if v := getParameterStoreValue(name, true); v != "" {
		return v
	}
	return fallback
}

// TelegramToken resolves the bot token for the given environment.
func (c *Config) TelegramToken() string {
	if c.Env == "prod" {
		return ParameterOr(c.Telegram.TokenParameter, c.Telegram.Token)
	}
	return c.Telegram.Token
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
