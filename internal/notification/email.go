package notification

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/frahmantamala/rti-filing/internal"
)

// EmailNotifier mails form submissions to a fixed inbox over SMTP.
type EmailNotifier struct {
	cfg          internal.SMTPConfig
	dialTimeout  time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewEmailNotifier(cfg internal.SMTPConfig, logger *slog.Logger) *EmailNotifier {
	if !cfg.IsConfigured() {
		logger.Warn("smtp not configured, email notifications disabled")
	}
	return &EmailNotifier{
		cfg:          cfg,
		dialTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

var _ EmailSender = (*EmailNotifier)(nil)

func (n *EmailNotifier) SendFormSubmissionEmail(ctx context.Context, formType string, data FormData) bool {
	if !n.cfg.IsConfigured() {
		recordSkipped(ChannelEmail)
		return false
	}

	msg, err := n.buildMessage(formType, data)
	if err != nil {
		n.logger.Error("failed to build notification email", "form_type", formType, "error", err)
		record(ChannelEmail, false)
		return false
	}

	if err := n.send(ctx, msg); err != nil {
		n.logger.Error("failed to send notification email",
			"form_type", formType,
			"reference_id", data.ReferenceID,
			"smtp_host", n.cfg.Host,
			"error", err)
		record(ChannelEmail, false)
		return false
	}

	n.logger.Debug("notification email sent", "form_type", formType, "reference_id", data.ReferenceID)
	record(ChannelEmail, true)
	return true
}

func (n *EmailNotifier) send(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	dialer := &net.Dialer{Timeout: n.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if strings.EqualFold(n.cfg.TLSMode, "tls") {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: n.cfg.Host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("smtp tls handshake: %w", err)
		}
		conn = tlsConn
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer c.Close()

	if strings.EqualFold(n.cfg.TLSMode, "starttls") {
		ok, _ := c.Extension("STARTTLS")
		if !ok {
			return fmt.Errorf("smtp server does not support STARTTLS")
		}
		if err := c.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(n.cfg.To); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", n.cfg.To, err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(n.writeTimeout))
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}

// buildMessage renders a multipart/alternative message with text and HTML parts.
func (n *EmailNotifier) buildMessage(formType string, data FormData) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(toCRLF(plainText(formType, data)))); err != nil {
		return nil, err
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody(formType, data))); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "Message-ID: %s\r\n", messageID(n.cfg.Host))
	fmt.Fprintf(&msg, "From: %s\r\n", formatAddress(n.cfg.FromName, n.cfg.From))
	fmt.Fprintf(&msg, "To: %s\r\n", n.cfg.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject(formType)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func htmlBody(formType string, data FormData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>New %s Submission</h2>\r\n<table>\r\n", html.EscapeString(FormTitle(formType)))
	if data.ReferenceID > 0 {
		fmt.Fprintf(&b, "<tr><td><strong>Reference</strong></td><td>#%d</td></tr>\r\n", data.ReferenceID)
	}
	for _, f := range data.Fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>\r\n",
			html.EscapeString(f.Label), html.EscapeString(f.Value))
	}
	b.WriteString("</table>\r\n")
	return b.String()
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", name), addr)
}

func messageID(domain string) string {
	if domain == "" {
		domain = "localhost"
	}
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return fmt.Sprintf("<%s@%s>", hex.EncodeToString(b), domain)
}

func toCRLF(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}
