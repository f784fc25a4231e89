package filter

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

// SMTPRelay re-injects processed mail into an MTA
type SMTPRelay struct {
	addr    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSMTPRelay creates a relay to addr (host:port)
func NewSMTPRelay(addr string, timeout time.Duration, logger *zap.Logger) *SMTPRelay {
	return &SMTPRelay{addr: addr, timeout: timeout, logger: logger}
}

// Send delivers data to every recipient the next hop accepts
func (r *SMTPRelay) Send(from string, to []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", r.addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to next hop: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(r.timeout)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			r.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		r.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}
