package rates

import "errors"

var errReferenceUnavailable = errors.New("reference rates unavailable")
