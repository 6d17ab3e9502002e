package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template is one of the names in pkg/mailer/templates ("welcome",
// "password_reset"); the worker renders subject/text/html from Data. Raw
// Subject/Text/HTML are used when no template is given.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
