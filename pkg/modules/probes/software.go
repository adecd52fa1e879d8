package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/esaudit/esaudit/pkg/engine"
	"github.com/esaudit/esaudit/pkg/report"
)

const (
	softwareModuleName  = "software"
	softwareModuleLabel = "Elasticsearch software test"

	nodesPath      = "_nodes"
	catPluginsPath = "_cat/plugins"

	// Release lines older than this no longer receive fixes from upstream.
	defaultMaintainedConstraint = ">= 8.0.0"
)

// SoftwareModule inventories the software running on the target: the
// Elasticsearch release itself, the modules loaded on each node, and the
// installed plugins. Any successful enumeration is a technology-disclosure
// finding.
type SoftwareModule struct {
	meta                 engine.ModuleMetadata
	maintainedConstraint *semver.Constraints
	logger               zerolog.Logger
}

func init() {
	engine.RegisterModuleFactory(softwareModuleName, func() engine.Module {
		return newSoftwareModule()
	})
}

func newSoftwareModule() *SoftwareModule {
	return &SoftwareModule{
		meta: engine.ModuleMetadata{
			Name:        softwareModuleName,
			Label:       softwareModuleLabel,
			Version:     "1.0.0",
			Description: "Enumerates the Elasticsearch version, node modules and installed plugins.",
			Type:        engine.InventoryModuleType,
			Tags:        []string{"elasticsearch", "inventory", "version", "plugins"},
		},
	}
}

// Metadata returns the module's descriptive metadata.
func (m *SoftwareModule) Metadata() engine.ModuleMetadata {
	return m.meta
}

// Init initializes the module. The "maintained_constraint" key overrides the
// semver range a detected release is checked against.
func (m *SoftwareModule) Init(config map[string]any) error {
	m.logger = log.With().Str("module", m.meta.Name).Logger()

	constraint := defaultMaintainedConstraint
	if raw, ok := config["maintained_constraint"]; ok {
		constraint = cast.ToString(raw)
	}

	parsed, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid maintained_constraint %q: %w", constraint, err)
	}
	m.maintainedConstraint = parsed
	return nil
}

// rootInfo mirrors the cluster information block on the root endpoint.
type rootInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number        string `json:"number"`
		LuceneVersion string `json:"lucene_version"`
	} `json:"version"`
}

// nodesInfo mirrors the per-node module listing of the _nodes endpoint.
type nodesInfo struct {
	Nodes map[string]struct {
		Modules []struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Description string `json:"description"`
		} `json:"modules"`
	} `json:"nodes"`
}

// Run performs the three enumerations. Each one degrades independently; a
// finding is recorded if any of them succeeded.
func (m *SoftwareModule) Run(ctx context.Context, session *engine.Session) error {
	versionFound := m.enumerateVersion(ctx, session)
	modulesFound := m.enumerateModules(ctx, session)
	pluginsFound := m.enumeratePlugins(ctx, session)

	if versionFound || modulesFound || pluginsFound {
		session.Report.AddVulnerability(report.CodeMiscTech, "software inventory disclosed")
	}
	return nil
}

func (m *SoftwareModule) enumerateVersion(ctx context.Context, session *engine.Session) bool {
	resp, err := session.Client.Get(ctx, session.TargetURL)
	if err != nil {
		session.Console.Error(4, "Could not enumerate version: %v", err)
		return false
	}
	if resp.StatusCode != http.StatusOK {
		session.Console.Error(4, "Could not enumerate version. Received response code: %d", resp.StatusCode)
		return false
	}

	var info rootInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		session.Console.Error(4, "Error when reading JSON response: %v", err)
		return false
	}
	if info.Version.Number == "" {
		session.Console.Error(4, "Response carries no version information")
		return false
	}

	session.Console.Info(4, "Elasticsearch version: %s", info.Version.Number)
	session.Console.Info(4, "Cluster name: %s", info.ClusterName)
	session.Console.Info(4, "Apache Lucene version: %s", info.Version.LuceneVersion)

	properties := map[string]any{
		"es_version":            info.Version.Number,
		"name":                  info.Name,
		"cluster_name":          info.ClusterName,
		"apache_lucene_version": info.Version.LuceneVersion,
	}
	session.Report.AddNode("sw", properties)

	m.checkMaintained(session, info.Version.Number)
	return true
}

// checkMaintained flags release lines that no longer receive upstream fixes.
func (m *SoftwareModule) checkMaintained(session *engine.Session, rawVersion string) {
	version, err := semver.NewVersion(strings.TrimSuffix(rawVersion, "-SNAPSHOT"))
	if err != nil {
		m.logger.Debug().Str("version", rawVersion).Msg("Unparseable version, skipping maintenance check")
		return
	}
	if m.maintainedConstraint.Check(version) {
		return
	}

	m.logger.Warn().Str("version", rawVersion).Msg("Release line is past end of life")
	session.Console.Vuln(4, "Version %s is past its end of life and no longer receives fixes", rawVersion)
	session.Report.SetProperty("end_of_life", rawVersion)
}

func (m *SoftwareModule) enumerateModules(ctx context.Context, session *engine.Session) bool {
	resp, err := session.Client.Get(ctx, session.Endpoint(nodesPath))
	if err != nil {
		session.Console.Error(4, "Could not enumerate modules: %v", err)
		return false
	}
	if resp.StatusCode != http.StatusOK {
		session.Console.Error(4, "Could not enumerate modules. Received response code: %d", resp.StatusCode)
		return false
	}

	var info nodesInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		session.Console.Error(4, "Error when reading JSON response: %v", err)
		return false
	}

	found := false
	for _, node := range info.Nodes {
		for _, module := range node.Modules {
			found = true
			session.Report.AddNode("sw", map[string]any{
				"name":        module.Name,
				"version":     module.Version,
				"description": module.Description,
			})
			session.Console.Info(4, "Found module: %s %s", module.Name, module.Version)
		}
	}
	return found
}

// enumeratePlugins reads the _cat/plugins table. The endpoint answers with
// plain text, one "node plugin version" row per line.
func (m *SoftwareModule) enumeratePlugins(ctx context.Context, session *engine.Session) bool {
	resp, err := session.Client.Get(ctx, session.Endpoint(catPluginsPath))
	if err != nil {
		session.Console.Error(4, "Could not enumerate plugins: %v", err)
		return false
	}
	if resp.StatusCode != http.StatusOK {
		session.Console.Error(4, "Could not enumerate plugins. Received response code: %d", resp.StatusCode)
		return false
	}

	found := false
	for _, line := range strings.Split(resp.BodyText(), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		found = true
		session.Report.AddNode("sw", map[string]any{
			"es_node": fields[0],
			"name":    fields[1],
			"version": fields[2],
		})
		session.Console.Info(4, "Found plugin: %s %s on node: %s", fields[1], fields[2], fields[0])
	}
	return found
}
