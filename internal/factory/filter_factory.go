package factory

import (
	"fmt"

	"github.com/mikey/subject-analyzer/internal/adapters/filter"
	"github.com/mikey/subject-analyzer/internal/api"
	"github.com/mikey/subject-analyzer/internal/config"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/ports"
	"github.com/mikey/subject-analyzer/internal/utils"
	"github.com/mikey/subject-analyzer/internal/whitelist"
	"go.uber.org/zap"
)

// FilterFactory creates the frontends that feed the analysis service
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       *core.AnalysisService
	textProcessor *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.AnalysisService,
	textProcessor *utils.TextProcessor,
) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		textProcessor: textProcessor,
	}
}

// CreateHTTPServer creates the HTTP API frontend
func (f *FilterFactory) CreateHTTPServer() (*api.Server, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	rateCfg, err := f.cfg.GetRateLimit()
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
	}

	handler := api.NewHandler(f.service, f.logger, serverCfg.Version, serverCfg.IsDevelopment())
	router := api.NewRouter(handler, serverCfg, rateCfg, f.logger)
	return api.NewServer(serverCfg, router, f.logger), nil
}

// CreateSMTPFilter creates the SMTP subject filter, or nil when it is disabled
func (f *FilterFactory) CreateSMTPFilter() (*filter.SMTPFilter, error) {
	filterCfg, err := f.cfg.GetFilter()
	if err != nil {
		return nil, fmt.Errorf("invalid filter configuration: %w", err)
	}
	if !filterCfg.Enabled {
		return nil, nil
	}
	if !core.Industry(filterCfg.Industry).IsSupported() {
		return nil, fmt.Errorf("unsupported filter industry: %s", filterCfg.Industry)
	}

	var relay filter.Relay
	if filterCfg.NextHop != "" {
		relay = filter.NewSMTPRelay(filterCfg.NextHop, filterCfg.WriteTimeout, f.logger)
	} else {
		f.logger.Warn("SMTP filter has no next hop, scored mail will not be forwarded")
	}

	return filter.NewSMTPFilter(
		f.service,
		whitelist.NewChecker(filterCfg.SenderDomains, f.logger),
		relay,
		f.textProcessor,
		f.logger,
		filterCfg,
	), nil
}

// CreateFrontends creates every enabled frontend
func (f *FilterFactory) CreateFrontends() ([]ports.Frontend, error) {
	server, err := f.CreateHTTPServer()
	if err != nil {
		return nil, err
	}
	frontends := []ports.Frontend{server}

	smtpFilter, err := f.CreateSMTPFilter()
	if err != nil {
		return nil, err
	}
	if smtpFilter != nil {
		frontends = append(frontends, smtpFilter)
	}
	return frontends, nil
}
