// Package handlers provides reference handler implementations that
// exercise the full registry/hooks/executor path end to end. Descended
// from the teacher's internal/worker/handlers.SendEmailHandler/
// RunQueryHandler, adapted from the teacher's ctx-and-payload Execute
// shape to a duck-typed Perform() bool plus optional hooks: fields are
// populated via the handler reference's InstancePayload
// rather than a task payload argument, since a handler in this model is
// constructed fresh per resolution and carries its own state.
package handlers

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// SendEmailHandlerName is the qualified name this handler registers
// under ("email.send").
const SendEmailHandlerName = "email.send"

// SendEmailHandler simulates delivering an email. To/Subject/Body are
// populated from the task's HandlerReference.InstancePayload (a JSON
// object with those three fields).
type SendEmailHandler struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`

	lastErr error
}

// Before validates the required fields before Perform runs. Returning
// false skips Perform entirely.
func (h *SendEmailHandler) Before() bool {
	if h.To == "" || h.Subject == "" {
		h.lastErr = fmt.Errorf("send_email: missing required field (to/subject)")
		slog.Warn("send_email: skipping, invalid payload", "to", h.To, "subject", h.Subject)
		return false
	}
	return true
}

// Perform simulates sending the email, with a 25% simulated failure
// rate matching the teacher's SendEmailHandler.Execute.
func (h *SendEmailHandler) Perform() bool {
	slog.Info("sending email", "to", h.To, "subject", h.Subject, "body_length", len(h.Body))
	if rand.Intn(4) == 0 {
		h.lastErr = fmt.Errorf("email delivery failed: SMTP connection timeout")
		return false
	}
	return true
}

// Success logs a confirmation.
func (h *SendEmailHandler) Success() {
	slog.Info("email sent", "to", h.To)
}

// Error logs the handler's raised error, if any.
func (h *SendEmailHandler) Error(err error) {
	slog.Error("send_email failed", "to", h.To, "error", err)
}
