// Package delivery sends rendered report content to recipients and reports
// a per-recipient outcome. Gateways must tolerate the rare duplicate send a
// lease expiry can produce upstream.
package delivery

import (
	"context"

	"github.com/jameshorton2486/kollect-it-sub006/internal/render"
)

type RecipientResult struct {
	Recipient string `json:"recipient"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type Gateway interface {
	// Deliver sends the content to every recipient, returning one result
	// per recipient in the same order. It returns an error only when
	// delivery could not be attempted at all.
	Deliver(ctx context.Context, content *render.Content, recipients []string) ([]RecipientResult, error)
}
