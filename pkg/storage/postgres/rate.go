package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ratebot/internal/rates"

	"gorm.io/gorm/clause"
)

// RecordResolution appends every rate of res to the history table.
// A resolution already stored for the same instant is skipped.
func (p *PostgresClient) RecordResolution(ctx context.Context, res rates.Resolution) error {
	records := ToRateRecords(res)
	if len(records) == 0 {
		return nil
	}
	return p.InsertRates(ctx, records)
}

func (p *PostgresClient) InsertRates(ctx context.Context, records []*RateRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "currency"},
			{Name: "resolved_at"},
		},
		DoNothing: true,
	}).Create(records)

	if tx.Error != nil {
		return fmt.Errorf("insert rates: %w", tx.Error)
	}
	return nil
}

// GetHistory returns the records of currency resolved in [from, to), oldest first.
func (p *PostgresClient) GetHistory(ctx context.Context, currency string, from, to time.Time) ([]RateRecord, error) {
	var recs []RateRecord
	err := p.DB.WithContext(ctx).
		Where("currency = ? AND resolved_at >= ? AND resolved_at < ?", currency, from, to).
		Order("resolved_at ASC").
		Find(&recs).Error

	if err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteOlderThan removes records resolved before the cutoff and returns how
// many were deleted.
func (p *PostgresClient) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tx := p.DB.WithContext(ctx).
		Where("resolved_at < ?", before).
		Delete(&RateRecord{})
	return tx.RowsAffected, tx.Error
}

// ToRateRecords flattens a resolution into history rows ordered by currency.
func ToRateRecords(res rates.Resolution) []*RateRecord {
	records := make([]*RateRecord, 0, len(res.Rates))
	for c := range res.Rates {
		rate, ok := res.Rates.Get(c)
		if !ok {
			continue
		}
		records = append(records, &RateRecord{
			Currency:   string(c),
			ResolvedAt: res.ResolvedAt,
			Source:     string(res.Sources[c]),
			Rate:       rate.Round(4),
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Currency < records[j].Currency })
	return records
}
