// Package probes contains the Elasticsearch probe modules. Each module sends
// one or a few HTTP GET requests to the target, classifies status codes,
// headers, and JSON body shape, and records findings into the shared report.
package probes

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esaudit/esaudit/pkg/detect"
	"github.com/esaudit/esaudit/pkg/engine"
	"github.com/esaudit/esaudit/pkg/report"
)

const (
	availabilityModuleName  = "availability"
	availabilityModuleLabel = "Elasticsearch availability test"
)

// AvailabilityModule checks whether the target host is running Elasticsearch
// by extracting identification signals from the root endpoint response and
// classifying them.
type AvailabilityModule struct {
	meta   engine.ModuleMetadata
	logger zerolog.Logger
}

func init() {
	engine.RegisterModuleFactory(availabilityModuleName, func() engine.Module {
		return newAvailabilityModule()
	})
}

func newAvailabilityModule() *AvailabilityModule {
	return &AvailabilityModule{
		meta: engine.ModuleMetadata{
			Name:        availabilityModuleName,
			Label:       availabilityModuleLabel,
			Version:     "1.0.0",
			Description: "Checks if the target host is running Elasticsearch.",
			Type:        engine.DetectionModuleType,
			Tags:        []string{"elasticsearch", "detection", "availability"},
		},
	}
}

// Metadata returns the module's descriptive metadata.
func (m *AvailabilityModule) Metadata() engine.ModuleMetadata {
	return m.meta
}

// Init initializes the module. The availability probe has no configuration.
func (m *AvailabilityModule) Init(config map[string]any) error {
	m.logger = log.With().Str("module", m.meta.Name).Logger()
	return nil
}

// Run fetches the target root endpoint, extracts the identification signals
// and classifies them. Confirmed and Likely verdicts are reported as
// findings; the Likely case is kept distinct in the report because the
// target's behavior in that state is ambiguous.
func (m *AvailabilityModule) Run(ctx context.Context, session *engine.Session) error {
	resp, err := session.Client.Get(ctx, session.TargetURL)
	if err != nil {
		// Transport failures are inconclusive, not classifier input.
		m.logger.Warn().Err(err).Msg("Probe request failed, detection inconclusive")
		session.Console.Error(4, "Could not reach the target: %v", err)
		return err
	}

	if session.Verbose {
		session.Console.Info(4, "Sending request to: %s", session.TargetURL)
		session.Console.Info(4, "Returned response status: %d", resp.StatusCode)
	}

	signals := detect.ExtractSignals(resp)
	verdict, reason := detect.Classify(signals)

	switch verdict {
	case detect.Confirmed:
		m.logger.Warn().Str("verdict", verdict.String()).Str("reason", reason).Msg("Elasticsearch detected")
		session.Console.Vuln(4, "The host is running Elasticsearch")
		session.Report.AddVulnerability(report.CodeElasticExposed, reason)
		session.Report.SetProperty("elasticsearch", verdict.String())

	case detect.Likely:
		m.logger.Warn().Str("verdict", verdict.String()).Str("reason", reason).Msg("Elasticsearch likely")
		session.Console.Vuln(4, "The host might be running Elasticsearch")
		session.Report.AddVulnerability(report.CodeElasticExposed, reason)
		session.Report.SetProperty("elasticsearch", verdict.String())

	default:
		m.logger.Info().Str("verdict", verdict.String()).Str("reason", reason).Msg("Elasticsearch not detected")
		session.Console.Info(4, "The host is not running Elasticsearch")
	}

	if session.Verbose {
		session.Console.Info(4, "Verdict: %s (%s)", verdict, reason)
	}

	return nil
}
