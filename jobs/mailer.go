package jobs

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPMailer sends plain-text mail through a relay such as Mailpit.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer constructs a mailer pointed at the given relay.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
	}
}

// Send delivers one message. The context deadline is honoured through the
// dial; smtp conversations after connect are short enough to leave unbounded.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", m.addr, err)
	}
	host, _, err := net.SplitHostPort(m.addr)
	if err != nil {
		host = m.addr
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if _, err := wc.Write([]byte(msg)); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
