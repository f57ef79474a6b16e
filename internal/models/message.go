package models

// WelcomeEmail holds the rendered content of the welcome message.
type WelcomeEmail struct {
	Subject string
	Text    string
	HTML    string
}

// Message is a single outbound email. Sender identity and BCC come from the mailer config.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}
