package mailqueue

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/pkg/errors"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends one message at a time. Tags and message streams are Postmark
// features and are dropped.
type SMTP struct {
	Addr     string
	Username string
	Password string

	send sendFunc
}

var _ Transport = (*SMTP)(nil)

func NewSMTP(addr, username, password string) *SMTP {
	return &SMTP{
		Addr:     addr,
		Username: username,
		Password: password,
		send:     smtp.SendMail,
	}
}

func (s *SMTP) Name() string {
	return "smtp"
}

func (s *SMTP) BatchSize() int {
	return 1
}

func (s *SMTP) auth() smtp.Auth {
	if s.Username == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(s.Addr)
	if err != nil {
		host = s.Addr
	}
	return smtp.PlainAuth("", s.Username, s.Password, host)
}

func (s *SMTP) Send(ctx context.Context, msgs []*Message) ([]error, error) {
	errs := make([]error, len(msgs))
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		errs[i] = s.sendOne(msg)
	}
	return errs, nil
}

func (s *SMTP) sendOne(msg *Message) error {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return errors.Wrap(err, "smtp: invalid sender")
	}

	var rcpt []string
	for _, field := range []string{msg.To, msg.Cc, msg.Bcc} {
		if field == "" {
			continue
		}
		list, err := mail.ParseAddressList(field)
		if err != nil {
			return errors.Wrapf(err, "smtp: invalid recipients %q", field)
		}
		for _, a := range list {
			rcpt = append(rcpt, a.Address)
		}
	}

	data, err := compose(msg, time.Now())
	if err != nil {
		return err
	}
	return s.send(s.Addr, s.auth(), from.Address, rcpt, data)
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	if value != "" {
		fmt.Fprintf(buf, "%s: %s\r\n", name, value)
	}
}

// compose renders msg as a MIME message. Bcc is left out of the headers.
func compose(msg *Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader(&buf, "From", msg.From)
	writeHeader(&buf, "To", msg.To)
	writeHeader(&buf, "Cc", msg.Cc)
	writeHeader(&buf, "Reply-To", msg.ReplyTo)
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	for _, h := range msg.Headers {
		writeHeader(&buf, textproto.CanonicalMIMEHeaderKey(h.Name), h.Value)
	}
	writeHeader(&buf, "MIME-Version", "1.0")

	bodyHeader, body, err := renderBody(msg)
	if err != nil {
		return nil, err
	}

	if len(msg.Attachments) == 0 {
		for _, name := range []string{"Content-Type", "Content-Transfer-Encoding"} {
			writeHeader(&buf, name, bodyHeader.Get(name))
		}
		buf.WriteString("\r\n")
		buf.Write(body)
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", "multipart/mixed; boundary="+mixed.Boundary())
	buf.WriteString("\r\n")

	part, err := mixed.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(body); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		if _, err := base64.StdEncoding.DecodeString(a.Content); err != nil {
			return nil, errors.Wrapf(err, "smtp: attachment %q is not base64", a.Name)
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", a.ContentType)
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
		part, err := mixed.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write([]byte(a.Content)); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderBody returns the content headers and the encoded text and/or html
// body.
func renderBody(msg *Message) (textproto.MIMEHeader, []byte, error) {
	var buf bytes.Buffer
	header := textproto.MIMEHeader{}

	if msg.TextBody != "" && msg.HtmlBody != "" {
		alt := multipart.NewWriter(&buf)
		header.Set("Content-Type", "multipart/alternative; boundary="+alt.Boundary())
		for _, p := range []struct{ contentType, body string }{
			{"text/plain; charset=utf-8", msg.TextBody},
			{"text/html; charset=utf-8", msg.HtmlBody},
		} {
			h := textproto.MIMEHeader{}
			h.Set("Content-Type", p.contentType)
			h.Set("Content-Transfer-Encoding", "quoted-printable")
			part, err := alt.CreatePart(h)
			if err != nil {
				return nil, nil, err
			}
			if err := writeQuoted(part, p.body); err != nil {
				return nil, nil, err
			}
		}
		if err := alt.Close(); err != nil {
			return nil, nil, err
		}
		return header, buf.Bytes(), nil
	}

	contentType, body := "text/plain; charset=utf-8", msg.TextBody
	if msg.HtmlBody != "" {
		contentType, body = "text/html; charset=utf-8", msg.HtmlBody
	}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := writeQuoted(&buf, body); err != nil {
		return nil, nil, err
	}
	return header, buf.Bytes(), nil
}

func writeQuoted(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}
