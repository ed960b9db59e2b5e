package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ImplicitTLSPort is the SMTP submission port that expects TLS from the first byte.
const ImplicitTLSPort = "465"

var (
	ErrNotConfigured = errors.New("smtp mailer is not configured")
	// ErrAuthUnavailable means the relay does not offer AUTH; mail is never
	// sent unauthenticated.
	ErrAuthUnavailable = errors.New("smtp relay does not offer AUTH")
)

type Config struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	Username string `validate:"required"`
	Password string `validate:"required"`
	To       string `validate:"required"`
	From     string `validate:"required"`
	Timeout  time.Duration
	// MaxPerMinute caps deliveries to the relay; zero disables the cap.
	MaxPerMinute int
}

type Message struct {
	Subject string
	Text    string
	HTML    string
	ReplyTo string
}

// Mailer delivers messages to the single configured recipient.
type Mailer struct {
	cfg      Config
	validate *validator.Validate
	throttle *rate.Limiter
	now      func() time.Time
}

func NewMailer(cfg Config) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	m := &Mailer{cfg: cfg, validate: validator.New(), now: time.Now}
	if cfg.MaxPerMinute > 0 {
		m.throttle = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.MaxPerMinute)), cfg.MaxPerMinute)
	}
	return m
}

// Check reports which settings are missing without leaking their values.
func (m *Mailer) Check() error {
	if err := m.validate.Struct(m.cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: invalid %s", ErrNotConfigured, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return nil
}

// Send fails with ErrNotConfigured before any connection attempt when the
// configuration is incomplete.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := m.Check(); err != nil {
		return err
	}

	if m.throttle != nil {
		if err := m.throttle.Wait(ctx); err != nil {
			return fmt.Errorf("smtp throttle: %w", err)
		}
	}

	body, err := m.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.deliver(ctx, addr, body); err != nil {
		log.WithError(err).WithField("addr", addr).Error("SMTP send error")
		return err
	}
	log.WithField("addr", addr).Info("Email sent")
	return nil
}

func (m *Mailer) deliver(ctx context.Context, addr string, body []byte) error {
	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
	if m.cfg.Port == ImplicitTLSPort {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("tls handshake: %w", err)
		}
		conn = tlsConn
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if m.cfg.Port != ImplicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if ok, _ := c.Extension("AUTH"); !ok {
		return ErrAuthUnavailable
	}
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(m.cfg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}
	return c.Quit()
}

func (m *Mailer) buildMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + m.cfg.From,
		"To: " + m.cfg.To,
	}
	if msg.ReplyTo != "" {
		headers = append(headers, "Reply-To: "+sanitizeHeader(msg.ReplyTo))
	}
	headers = append(headers,
		"Subject: "+mime.QEncoding.Encode("utf-8", sanitizeHeader(msg.Subject)),
		"Date: "+m.now().UTC().Format(time.RFC1123Z),
		fmt.Sprintf("Message-ID: <%s@%s>", uuid.NewString(), m.cfg.Host),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary="+mw.Boundary(),
	)
	var out bytes.Buffer
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")

	if err := writePart(mw, "text/plain; charset=UTF-8", msg.Text); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html; charset=UTF-8", msg.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

// sanitizeHeader strips CR/LF so user input cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
