// Package mailqueue is a maildir-like outbound mail queue. Every message is a
// json file in the queue directory. A message is owned by the processor that
// manages to hard-link it to "<file>.sending" first.
package mailqueue

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type Header struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type Attachment struct {
	Name        string `json:"Name"`
	Content     string `json:"Content"`
	ContentType string `json:"ContentType"`
}

// Message uses the field names of the Postmark email API, so queued files can
// be posted as they are.
type Message struct {
	From          string       `json:"From" validate:"required"`
	To            string       `json:"To" validate:"required"`
	Cc            string       `json:"Cc,omitempty"`
	Bcc           string       `json:"Bcc,omitempty"`
	ReplyTo       string       `json:"ReplyTo,omitempty"`
	Subject       string       `json:"Subject" validate:"required"`
	TextBody      string       `json:"TextBody,omitempty"`
	HtmlBody      string       `json:"HtmlBody,omitempty"`
	Headers       []Header     `json:"Headers,omitempty"`
	Tag           string       `json:"Tag,omitempty"`
	MessageStream string       `json:"MessageStream,omitempty"`
	Attachments   []Attachment `json:"Attachments,omitempty"`
}

var ErrEmptyBody = errors.New("mailqueue: message has neither a text nor a html body")

func (m *Message) Validate() error {
	if m.TextBody == "" && m.HtmlBody == "" {
		return ErrEmptyBody
	}
	return nil
}

func decodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "mailqueue: invalid message")
	}
	return &m, nil
}
