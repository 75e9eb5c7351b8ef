package core

import "net/mail"

// EmailMessage is a plain-text notification mail.
type EmailMessage struct {
	To       []mail.Address
	Subject  string
	BodyText string
}

func (m EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m EmailMessage) HasContent() bool    { return m.BodyText != "" }

// EmailService sends messages asynchronously; failures are logged, never returned.
type EmailService interface {
	SendMessages(messages ...*EmailMessage)
}
