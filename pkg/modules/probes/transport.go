package probes

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esaudit/esaudit/pkg/engine"
	"github.com/esaudit/esaudit/pkg/report"
)

const (
	transportModuleName  = "transport"
	transportModuleLabel = "Elasticsearch HTTP/S test"
)

// TransportModule checks whether the target serves its API over plain HTTP.
// Cleartext transport is a finding; HTTPS targets are only noted.
type TransportModule struct {
	meta   engine.ModuleMetadata
	logger zerolog.Logger
}

func init() {
	engine.RegisterModuleFactory(transportModuleName, func() engine.Module {
		return newTransportModule()
	})
}

func newTransportModule() *TransportModule {
	return &TransportModule{
		meta: engine.ModuleMetadata{
			Name:        transportModuleName,
			Label:       transportModuleLabel,
			Version:     "1.0.0",
			Description: "Checks if the target is reachable over plain HTTP.",
			Type:        engine.DetectionModuleType,
			Tags:        []string{"elasticsearch", "transport", "https"},
		},
	}
}

// Metadata returns the module's descriptive metadata.
func (m *TransportModule) Metadata() engine.ModuleMetadata {
	return m.meta
}

// Init initializes the module. The transport probe has no configuration.
func (m *TransportModule) Init(config map[string]any) error {
	m.logger = log.With().Str("module", m.meta.Name).Logger()
	return nil
}

// Run checks the target scheme. For an http:// target it verifies the host
// actually answers in cleartext (200 or 401; a 401 still proves the API is
// served unencrypted) before reporting the finding.
func (m *TransportModule) Run(ctx context.Context, session *engine.Session) error {
	if !strings.HasPrefix(session.TargetURL, "http://") {
		m.logger.Info().Msg("Target served over HTTPS")
		session.Console.Info(4, "The host is not running on HTTP")
		session.Report.SetProperty("transport", "https")
		return nil
	}

	resp, err := session.Client.Get(ctx, session.TargetURL)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusUnauthorized {
		m.logger.Warn().Int("status", resp.StatusCode).Msg("Target served over plain HTTP")
		session.Console.Vuln(4, "The host is running HTTP")
		session.Report.AddVulnerability(report.CodeElasticHTTP, "API served over cleartext HTTP")
		session.Report.SetProperty("transport", "http")
		return nil
	}

	m.logger.Info().Int("status", resp.StatusCode).Msg("No cleartext HTTP service detected")
	session.Console.Info(4, "The host is not running on HTTP")
	return nil
}
