package subscriptions

import "errors"

var ErrSMTPConfigMissing = errors.New("SMTP configuration missing")
