package notification_test

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/notification"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

// smtpSink is a minimal plaintext SMTP server that records one message per session.
type smtpSink struct {
	listener net.Listener
	mu       sync.Mutex
	from     string
	rcpt     []string
	data     string
	reject   bool
}

func newSMTPSink() *smtpSink {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	s := &smtpSink{listener: l}
	go s.serve()
	return s
}

func (s *smtpSink) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpSink) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP sink")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch cmd {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 8BITMIME")
		case "MAIL":
			s.mu.Lock()
			s.from = line
			reject := s.reject
			s.mu.Unlock()
			if reject {
				_ = tp.PrintfLine("550 sender rejected")
				continue
			}
			_ = tp.PrintfLine("250 OK")
		case "RCPT":
			s.mu.Lock()
			s.rcpt = append(s.rcpt, line)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case "DATA":
			_ = tp.PrintfLine("354 end with <CRLF>.<CRLF>")
			body, err := bufio.NewReader(tp.DotReader()).ReadString(0)
			if err != nil && body == "" {
				return
			}
			s.mu.Lock()
			s.data = body
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

func (s *smtpSink) port() string {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	return port
}

func (s *smtpSink) Data() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

var _ = Describe("EmailNotifier", func() {
	var sink *smtpSink

	BeforeEach(func() {
		sink = newSMTPSink()
	})

	AfterEach(func() {
		sink.listener.Close()
	})

	config := func() internal.SMTPConfig {
		return internal.SMTPConfig{
			Host:     "127.0.0.1",
			Port:     sink.port(),
			From:     "noreply@rti.example.com",
			FromName: "RTI Filing",
			To:       "desk@rti.example.com",
			TLSMode:  "none",
		}
	}

	It("returns false without dialing when unconfigured", func() {
		n := notification.NewEmailNotifier(internal.SMTPConfig{}, logger.Discard())
		Expect(n.SendFormSubmissionEmail(context.Background(), events.FormTypeConsultation, notification.FormData{})).To(BeFalse())
		Expect(sink.Data()).To(BeEmpty())
	})

	It("sends a multipart message with every non-empty field", func() {
		n := notification.NewEmailNotifier(config(), logger.Discard())
		ok := n.SendFormSubmissionEmail(context.Background(), events.FormTypeRTIApplication, notification.FormData{
			ReferenceID: 99,
			Fields: []events.FormField{
				{Label: "Full Name", Value: "Asha <Verma>"},
				{Label: "RTI Query", Value: ""},
			},
		})
		Expect(ok).To(BeTrue())

		data := sink.Data()
		Expect(data).To(ContainSubstring("To: desk@rti.example.com"))
		Expect(data).To(ContainSubstring("Subject: New Rti Application Submission"))
		Expect(data).To(ContainSubstring("multipart/alternative"))
		Expect(data).To(ContainSubstring("Full Name: Asha <Verma>"))
		Expect(data).To(ContainSubstring("Asha &lt;Verma&gt;"))
		Expect(data).To(ContainSubstring("#99"))
		Expect(data).NotTo(ContainSubstring("RTI Query"))
	})

	It("returns false when the server rejects the message", func() {
		sink.mu.Lock()
		sink.reject = true
		sink.mu.Unlock()

		n := notification.NewEmailNotifier(config(), logger.Discard())
		Expect(n.SendFormSubmissionEmail(context.Background(), events.FormTypeNewsletter, notification.FormData{})).To(BeFalse())
	})

	It("returns false when the server is unreachable", func() {
		cfg := config()
		sink.listener.Close()
		n := notification.NewEmailNotifier(cfg, logger.Discard())
		Expect(n.SendFormSubmissionEmail(context.Background(), events.FormTypeNewsletter, notification.FormData{})).To(BeFalse())
	})
})
