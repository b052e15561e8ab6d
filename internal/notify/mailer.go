package notify

import (
	"context"
	"log"
)

// LogMailer stands in when no mail transport is configured. The diagnostic
// email action still succeeds; the content lands in the process log.
type LogMailer struct{}

func (LogMailer) SendDiagnostic(_ context.Context, to, subject, body string) error {
	log.Printf("diagnostic mail to %s: %s: %s", to, subject, body)
	return nil
}
