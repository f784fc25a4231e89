// Package filter provides an SMTP content filter that scores the Subject header of passing mail.
package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/mikey/subject-analyzer/internal/whitelist"
	"go.uber.org/zap"
)

// Headers added to every scored message
const (
	HeaderScore         = "X-Subject-Score"
	HeaderIssues        = "X-Subject-Issues"
	HeaderAI            = "X-Subject-AI"
	HeaderAnalysisID    = "X-Subject-Analysis-ID"
	HeaderAnalysisError = "X-Subject-Analysis-Error"
)

const analysisTimeout = 30 * time.Second

// SubjectAnalyzer is the part of the analysis service the filter needs
type SubjectAnalyzer interface {
	Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResponse, error)
}

// Relay delivers a processed message to the next hop
type Relay interface {
	Send(from string, to []string, data []byte) error
}

// SMTPFilter is an SMTP content filter. Postfix hands it mail, it stamps subject
// scores into the headers and re-injects the message to the next hop.
type SMTPFilter struct {
	service       SubjectAnalyzer
	checker       *whitelist.Checker
	relay         Relay
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	cfg           config.FilterConfig
	server        *smtp.Server
	newID         func() string
}

// NewSMTPFilter creates a new filter. A nil relay means processed mail is only logged.
func NewSMTPFilter(
	service SubjectAnalyzer,
	checker *whitelist.Checker,
	relay Relay,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	cfg config.FilterConfig,
) *SMTPFilter {
	f := &SMTPFilter{
		service:       service,
		checker:       checker,
		relay:         relay,
		textProcessor: textProcessor,
		logger:        logger,
		cfg:           cfg,
		newID:         func() string { return uuid.NewString() },
	}

	s := smtp.NewServer(&smtpBackend{filter: f})
	s.Addr = cfg.ListenAddress
	s.Domain = cfg.Domain
	s.ReadTimeout = cfg.ReadTimeout
	s.WriteTimeout = cfg.WriteTimeout
	s.MaxMessageBytes = cfg.MaxMessageBytes
	s.MaxRecipients = 50
	f.server = s

	return f
}

// Name identifies the frontend in logs
func (f *SMTPFilter) Name() string {
	return "smtp-filter"
}

// Start listens on the configured address and blocks until Stop is called
func (f *SMTPFilter) Start() error {
	f.logger.Info("SMTP filter starting",
		zap.String("address", f.cfg.ListenAddress),
		zap.String("next_hop", f.cfg.NextHop),
		zap.String("industry", f.cfg.Industry))

	if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return fmt.Errorf("SMTP server error: %w", err)
	}
	return nil
}

// Serve accepts connections on an existing listener
func (f *SMTPFilter) Serve(l net.Listener) error {
	if err := f.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return fmt.Errorf("SMTP server error: %w", err)
	}
	return nil
}

// Stop closes the listener and every open session
func (f *SMTPFilter) Stop() error {
	return f.server.Close()
}

// ProcessMessage scores the Subject of a raw message and returns the message with result headers prepended
func (f *SMTPFilter) ProcessMessage(ctx context.Context, sender string, raw []byte) ([]byte, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	if !f.checker.IsAllowed(sender) {
		f.logger.Debug("Sender domain not scored, passing through",
			zap.String("sender", sender))
		return raw, nil
	}

	original := msg.Header.Get("Subject")
	subject, err := decodeEncodedHeader(original)
	if err != nil {
		f.logger.Warn("Failed to decode subject, using raw value", zap.Error(err))
		subject = original
	}
	subject = f.textProcessor.TruncateRunes(f.textProcessor.SanitizeUTF8(subject), core.MaxSubjectLength)

	id := f.newID()
	var headers bytes.Buffer
	writeHeader(&headers, HeaderAnalysisID, id)

	resp, err := f.service.Analyze(ctx, core.AnalysisRequest{
		Subject:  subject,
		Industry: f.cfg.Industry,
	})
	if err != nil {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			f.logger.Info("Subject failed validation, passing through",
				zap.String("analysis_id", id),
				zap.String("sender", sender),
				zap.Error(err))
		} else {
			f.logger.Error("Failed to analyze subject",
				zap.String("analysis_id", id),
				zap.String("sender", sender),
				zap.Error(err))
		}
		writeHeader(&headers, HeaderAnalysisError, err.Error())
		return append(headers.Bytes(), raw...), nil
	}

	result := resp.Result
	writeHeader(&headers, HeaderScore, strconv.Itoa(result.Score))
	writeHeader(&headers, HeaderIssues, strings.Join(result.Issues, "; "))
	writeHeader(&headers, HeaderAI, aiHeader(result))

	f.logger.Info("Scored message subject",
		zap.String("analysis_id", id),
		zap.String("sender", sender),
		zap.String("sender_domain", whitelist.SenderDomain(sender)),
		zap.Int("score", result.Score),
		zap.Bool("cached", resp.Cached))

	return append(headers.Bytes(), raw...), nil
}

func aiHeader(result *core.AnalysisResult) string {
	if result.ScoringBreakdown.AIBased == nil {
		return "unavailable"
	}
	return strconv.Itoa(*result.ScoringBreakdown.AIBased)
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", key, foldHeader(len(key)+2, headerValue(value)))
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data processes the message and hands it to the relay
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	out, err := s.filter.ProcessMessage(ctx, s.sender, raw)
	if err != nil {
		s.filter.logger.Warn("Rejecting malformed message",
			zap.String("sender", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	if s.filter.relay == nil {
		s.filter.logger.Warn("No next hop configured, message not forwarded",
			zap.String("sender", s.sender))
		return nil
	}

	if err := s.filter.relay.Send(s.sender, s.recipients, out); err != nil {
		s.filter.logger.Error("Failed to forward message",
			zap.String("sender", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 4, 0},
			Message:      "Next hop unavailable, try again later",
		}
	}
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
