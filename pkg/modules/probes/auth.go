package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esaudit/esaudit/pkg/engine"
	"github.com/esaudit/esaudit/pkg/report"
)

const (
	authModuleName  = "auth"
	authModuleLabel = "Elasticsearch authentication test"

	xpackSecurityPath = "_xpack?filter_path=features.security"
	securityUserPath  = "_security/user"
)

// AuthModule determines the target's authentication posture: a 401 on the
// root endpoint means authentication is enabled; a 200 means either security
// is disabled entirely or anonymous access is allowed.
type AuthModule struct {
	meta   engine.ModuleMetadata
	logger zerolog.Logger
}

func init() {
	engine.RegisterModuleFactory(authModuleName, func() engine.Module {
		return newAuthModule()
	})
}

func newAuthModule() *AuthModule {
	return &AuthModule{
		meta: engine.ModuleMetadata{
			Name:        authModuleName,
			Label:       authModuleLabel,
			Version:     "1.0.0",
			Description: "Checks if the target has authentication enabled or disabled.",
			Type:        engine.EvaluationModuleType,
			Tags:        []string{"elasticsearch", "authentication", "posture"},
		},
	}
}

// Metadata returns the module's descriptive metadata.
func (m *AuthModule) Metadata() engine.ModuleMetadata {
	return m.meta
}

// Init initializes the module. The auth probe has no configuration.
func (m *AuthModule) Init(config map[string]any) error {
	m.logger = log.With().Str("module", m.meta.Name).Logger()
	return nil
}

// xpackSecurity mirrors the filtered _xpack response:
//
//	{"features":{"security":{"enabled":false,...}}}
type xpackSecurity struct {
	Features struct {
		Security struct {
			Enabled bool `json:"enabled"`
		} `json:"security"`
	} `json:"features"`
}

// Run sends one GET to the root endpoint and classifies the posture by
// status code: 401 means authentication is enabled, 200 triggers the
// anonymous-access check.
func (m *AuthModule) Run(ctx context.Context, session *engine.Session) error {
	resp, err := session.Client.Get(ctx, session.TargetURL)
	if err != nil {
		return err
	}

	if session.Verbose {
		session.Console.Info(4, "Sending request to: %s", session.TargetURL)
		session.Console.Info(4, "Returned response status: %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		m.logger.Info().Msg("Authentication is enabled")
		session.Console.Info(4, "Authentication is enabled")
		session.Report.SetProperty("authentication", "enabled")
		return nil

	case http.StatusOK:
		return m.checkAnonymousAccess(ctx, session)

	default:
		return fmt.Errorf("target returns status code: %d", resp.StatusCode)
	}
}

// checkAnonymousAccess distinguishes "security disabled" from "security
// enabled but anonymous access allowed" via the _xpack feature flags.
func (m *AuthModule) checkAnonymousAccess(ctx context.Context, session *engine.Session) error {
	resp, err := session.Client.Get(ctx, session.Endpoint(xpackSecurityPath))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("security feature lookup returns status code: %d", resp.StatusCode)
	}

	var security xpackSecurity
	if err := json.Unmarshal(resp.Body, &security); err != nil {
		return fmt.Errorf("parse security features: %w", err)
	}

	if !security.Features.Security.Enabled {
		m.logger.Warn().Msg("Authentication is disabled")
		session.Console.Vuln(4, "Authentication is disabled")
		session.Report.AddVulnerability(report.CodeElasticAuth, "authentication disabled")
		session.Report.SetProperty("authentication", "disabled")
		return nil
	}

	m.logger.Warn().Msg("Authentication enabled but anonymous access allowed")
	session.Console.Vuln(4, "Authentication is enabled, but anonymous access is allowed")
	session.Report.SetProperty("authentication", "anonymous")
	return m.printAnonymousRole(ctx, session)
}

// printAnonymousRole looks up the anonymous user's roles so the operator
// sees what an unauthenticated caller is allowed to do.
func (m *AuthModule) printAnonymousRole(ctx context.Context, session *engine.Session) error {
	resp, err := session.Client.Get(ctx, session.Endpoint(securityUserPath))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user lookup returns status code: %d", resp.StatusCode)
	}

	var users map[string]struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return fmt.Errorf("parse user listing: %w", err)
	}

	for name, user := range users {
		if strings.Contains(name, "anon") {
			session.Console.Info(7, "Anonymous role: %s", strings.Join(user.Roles, ", "))
			session.Report.SetProperty("anonymous_roles", strings.Join(user.Roles, ","))
			return nil
		}
	}

	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	session.Console.Error(4, "Could not find a username matching 'anonymous' or 'anon'. All users: %s",
		strings.Join(names, ","))
	return nil
}
