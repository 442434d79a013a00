package ses

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"weddingplan/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendImportSummary(ctx context.Context, toEmail, toName string, summary port.ImportSummary) error {
	msg := BuildImportSummary(toName, s.frontendURL, summary)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &msg.Subject},
				Body: &types.Body{
					Html: &types.Content{Data: &msg.HTML},
					Text: &types.Content{Data: &msg.Text},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// BuildImportSummary renders the email sent after an import commits.
func BuildImportSummary(toName, frontendURL string, summary port.ImportSummary) Message {
	vendorsURL := fmt.Sprintf("%s/vendors?import=%s", strings.TrimRight(frontendURL, "/"), url.QueryEscape(summary.SessionID))
	total := len(summary.Created) + len(summary.Updated)

	subject := fmt.Sprintf("Your vendor import is done: %d vendor", total)
	if total != 1 {
		subject += "s"
	}
	subject += " saved"

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nYour vendor import has been saved.\n", toName)
	writeTextList(&text, "Added", summary.Created)
	writeTextList(&text, "Updated", summary.Updated)
	if summary.SourceURL != "" {
		fmt.Fprintf(&text, "\nThe imported document is available for 7 days at:\n%s\n", summary.SourceURL)
	}
	fmt.Fprintf(&text, "\nReview your vendors:\n%s\n", vendorsURL)

	var body strings.Builder
	body.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Your vendor import is saved</h2>
`)
	fmt.Fprintf(&body, "  <p>Hi %s,</p>\n", html.EscapeString(toName))
	writeHTMLList(&body, "Added", summary.Created)
	writeHTMLList(&body, "Updated", summary.Updated)
	if summary.SourceURL != "" {
		fmt.Fprintf(&body, "  <p><a href=\"%s\">Imported document</a> (link valid for 7 days)</p>\n", html.EscapeString(summary.SourceURL))
	}
	fmt.Fprintf(&body, `  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Review vendors</a>
  </p>
</body>
</html>`, html.EscapeString(vendorsURL))

	return Message{Subject: subject, HTML: body.String(), Text: text.String()}
}

func writeTextList(sb *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, n := range names {
		fmt.Fprintf(sb, "  - %s\n", n)
	}
}

func writeHTMLList(sb *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(sb, "  <h3>%s</h3>\n  <ul>\n", title)
	for _, n := range names {
		fmt.Fprintf(sb, "    <li>%s</li>\n", html.EscapeString(n))
	}
	sb.WriteString("  </ul>\n")
}
