package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/rotisserie/eris"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through an SMTP relay. smtp.SendMail upgrades to
// STARTTLS whenever the server offers it.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTPSender creates a sender for host:port using PLAIN auth.
func NewSMTPSender(host string, port int, user, pass string) *SMTPSender {
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPSender{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		auth:     auth,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (model.EmailStatus, error) {
	if msg.To == "" {
		return model.EmailFailed, ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return model.EmailFailed, eris.Wrap(err, "smtp: context done before send")
	}
	if err := s.sendMail(s.addr, s.auth, msg.From, []string{msg.To}, s.build(msg)); err != nil {
		return model.EmailFailed, fmt.Errorf("%w: %w", ErrSend, eris.Wrapf(err, "smtp: send to %s", msg.To))
	}
	return model.EmailSent, nil
}

func (s *SMTPSender) Name() string { return ProviderSMTP }

func (s *SMTPSender) build(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
