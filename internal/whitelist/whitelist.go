// Package whitelist decides which senders the SMTP filter scores.
package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker matches sender addresses against a list of domains.
// An empty list admits every sender.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new sender domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized sender domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsAllowed reports whether mail from the sender should be scored.
// A listed domain also admits its subdomains.
func (c *Checker) IsAllowed(from string) bool {
	if len(c.domains) == 0 {
		return true
	}

	domain := SenderDomain(from)
	if domain == "" {
		return false
	}

	for _, allowed := range c.domains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			if c.logger != nil {
				c.logger.Debug("Sender domain is allowed",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}

	return false
}

// SenderDomain extracts the lowercased domain from an address, or "" when there is none
func SenderDomain(from string) string {
	addr := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}
