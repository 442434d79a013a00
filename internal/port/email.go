package port

import "context"

// ImportSummary describes a committed import for the notification email.
type ImportSummary struct {
	SessionID string
	Created   []string
	Updated   []string
	SourceURL string
}

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendImportSummary(ctx context.Context, toEmail, toName string, summary ImportSummary) error
}
