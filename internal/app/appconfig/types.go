package appconfig

import (
	"fmt"
	"strings"
)

type MailTransport string

const (
	MailTransportPostmark MailTransport = "postmark"
	MailTransportSMTP     MailTransport = "smtp"
)

func (t *MailTransport) Decode(value string) error {
	switch v := MailTransport(strings.ToLower(strings.TrimSpace(value))); v {
	case MailTransportPostmark, MailTransportSMTP:
		*t = v
		return nil
	default:
		return fmt.Errorf("invalid mail transport: expect one of postmark, smtp, but got: %s", value)
	}
}
