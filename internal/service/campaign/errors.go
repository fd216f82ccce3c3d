package campaign

import "errors"

// Sentinel errors for the campaign service layer. Validation and resolution
// errors are surfaced synchronously before any persistence happens;
// per-recipient transport failures never surface here, they are recorded on
// the delivery records and aggregated into the campaign status.
var (
	ErrNotFound         = errors.New("campaign not found")
	ErrInvalidMessage   = errors.New("message subject is required")
	ErrInvalidRecipient = errors.New("recipient does not belong to this account")
	ErrNoRecipients     = errors.New("no recipients resolved")
	ErrConflict         = errors.New("campaign id already exists")
	ErrNotDispatching   = errors.New("campaign has no dispatch in flight")
	ErrStillDispatching = errors.New("campaign is still dispatching")
)
