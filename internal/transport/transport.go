// Package transport defines the delivery transport contract: given one
// message and one recipient, attempt delivery and report success or a typed
// failure. Implementations may be slow and may fail independently per
// recipient; callers own isolation and retries.
package transport

import (
	"context"
	"time"
)

// FailureReason classifies why a delivery attempt failed.
type FailureReason string

const (
	// FailureInvalidAddress means the recipient address was rejected by the
	// provider (malformed, nonexistent domain, suppressed).
	FailureInvalidAddress FailureReason = "invalid_address"
	// FailureNetwork covers transport-level errors: connection failures,
	// provider 5xx responses, and per-send timeouts.
	FailureNetwork FailureReason = "network"
	// FailureRateLimited means the provider or a local limiter refused the
	// send because the sending rate budget is exhausted.
	FailureRateLimited FailureReason = "rate_limited"
	// FailureCancelled means the dispatch was cancelled before this
	// recipient's send started.
	FailureCancelled FailureReason = "cancelled"
	// FailureUnknown is everything the provider did not classify.
	FailureUnknown FailureReason = "unknown"
)

// Message is a single email addressed to a single recipient.
type Message struct {
	CampaignID string
	DeliveryID string
	To         string
	FromName   string
	FromEmail  string
	Subject    string
	HTMLBody   string
	TextBody   string
}

// Result is the outcome of one delivery attempt. Delivered and Reason are
// mutually exclusive: a delivered result carries no reason, a failed result
// always carries one.
type Result struct {
	Delivered bool
	MessageID string
	Reason    FailureReason
	Detail    string
	SentAt    time.Time
}

// Failed builds a failure result with the given classification.
func Failed(reason FailureReason, detail string) *Result {
	return &Result{Reason: reason, Detail: detail}
}

// Sender attempts delivery of one message to one recipient.
//
// A non-nil error means the attempt could not be classified and the caller
// should treat it as an unknown failure; provider-level rejections are
// reported through Result.Reason with a nil error. Send must honor ctx
// cancellation and deadlines.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*Result, error)
}
