package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/jobscout/jobscout/internal/safety"
)

// SendEmailInput are the arguments the model supplies for a delivery.
type SendEmailInput struct {
	To      string `json:"to" jsonschema_description:"Recipient email address. Required."`
	Subject string `json:"subject,omitempty" jsonschema_description:"Email subject line. Defaults to the daily postings subject when empty."`
	Body    string `json:"body" jsonschema_description:"Plain-text email body. Required."`
}

var SendEmailInputSchema = GenerateSchema[SendEmailInput]()

// EmailSender is the capability behind the send_email tool.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

const defaultSubject = "Your Daily Job Postings"

// NewSendEmailTool wires an email transport and a recipient policy into a
// tool definition. The recipient is checked against the policy before the
// transport is touched; a rejection is a typed failure fed back to the model.
func NewSendEmailTool(sender EmailSender, policy *safety.RecipientPolicy) ToolDefinition {
	return ToolDefinition{
		Name:        "send_email",
		Description: "Send a plain-text email. Returns a JSON delivery acknowledgment on success. Include every posting's title, company, location and link in the body when reporting search results.",
		InputSchema: SendEmailInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in SendEmailInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("invalid send_email arguments: %w", err)
			}
			if in.To == "" {
				return "", fmt.Errorf("send_email requires a recipient")
			}
			if in.Body == "" {
				return "", fmt.Errorf("send_email requires a body")
			}
			if err := policy.ValidateRecipient(in.To); err != nil {
				return "", err
			}

			subject := in.Subject
			if subject == "" {
				subject = defaultSubject
			}

			if err := sender.Send(ctx, in.To, subject, in.Body); err != nil {
				return "", err
			}

			ack := "{}"
			ack, _ = sjson.Set(ack, "delivered", true)
			ack, _ = sjson.Set(ack, "recipient", in.To)
			ack, _ = sjson.Set(ack, "subject", subject)
			return ack, nil
		},
	}
}
