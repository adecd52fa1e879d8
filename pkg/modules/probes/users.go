package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esaudit/esaudit/pkg/engine"
)

const (
	usersModuleName  = "users"
	usersModuleLabel = "Elasticsearch user enumeration"

	securityRolePath = "_security/role"
)

// UsersModule enumerates the accounts known to the target together with
// their roles and, when the role API is readable, the privileges each role
// grants on indices and applications.
type UsersModule struct {
	meta   engine.ModuleMetadata
	logger zerolog.Logger
}

func init() {
	engine.RegisterModuleFactory(usersModuleName, func() engine.Module {
		return newUsersModule()
	})
}

func newUsersModule() *UsersModule {
	return &UsersModule{
		meta: engine.ModuleMetadata{
			Name:        usersModuleName,
			Label:       usersModuleLabel,
			Version:     "1.0.0",
			Description: "Enumerates users, their roles and role privileges.",
			Type:        engine.InventoryModuleType,
			Tags:        []string{"elasticsearch", "inventory", "users", "roles"},
		},
	}
}

// Metadata returns the module's descriptive metadata.
func (m *UsersModule) Metadata() engine.ModuleMetadata {
	return m.meta
}

// Init initializes the module. The users probe has no configuration.
func (m *UsersModule) Init(config map[string]any) error {
	m.logger = log.With().Str("module", m.meta.Name).Logger()
	return nil
}

// securityUser mirrors one entry of the _security/user listing.
type securityUser struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// securityRole mirrors one entry of the _security/role listing.
type securityRole struct {
	Indices []struct {
		Names                  []string `json:"names"`
		Privileges             []string `json:"privileges"`
		AllowRestrictedIndices bool     `json:"allow_restricted_indices"`
	} `json:"indices"`
	Applications []struct {
		Application string   `json:"application"`
		Privileges  []string `json:"privileges"`
	} `json:"applications"`
}

// Run lists users and walks their roles. Role privileges are best effort:
// when the role endpoint is not readable the users are still reported.
func (m *UsersModule) Run(ctx context.Context, session *engine.Session) error {
	resp, err := session.Client.Get(ctx, session.Endpoint(securityUserPath))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		session.Console.Error(4, "Could not enumerate users. Received status code: %d", resp.StatusCode)
		return nil
	}

	var users map[string]securityUser
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return fmt.Errorf("parse user listing: %w", err)
	}

	roles := m.fetchRoles(ctx, session)

	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m.reportUser(session, users[name], roles)
	}

	m.logger.Info().Int("users", len(users)).Msg("User enumeration finished")
	return nil
}

// fetchRoles reads the role definitions; nil means privileges cannot be
// enumerated for this run.
func (m *UsersModule) fetchRoles(ctx context.Context, session *engine.Session) map[string]securityRole {
	resp, err := session.Client.Get(ctx, session.Endpoint(securityRolePath))
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}

	var roles map[string]securityRole
	if err := json.Unmarshal(resp.Body, &roles); err != nil {
		return nil
	}
	return roles
}

func (m *UsersModule) reportUser(session *engine.Session, user securityUser, roles map[string]securityRole) {
	session.Console.Info(4, "Found user: %s", user.Username)
	session.Console.Info(8, "Email: %s", user.Email)

	session.Report.AddNode("user", map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"roles":    user.Roles,
	})

	seen := map[string]bool{}
	for _, role := range user.Roles {
		if seen[role] {
			continue
		}
		seen[role] = true

		if role == "superuser" {
			session.Console.Vuln(8, "Role: %s", role)
		} else {
			session.Console.Info(8, "Role: %s", role)
		}

		if roles == nil {
			session.Console.Error(4, "Could not enumerate privileges")
			continue
		}
		m.reportPrivileges(session, roles[role])
	}
}

// reportPrivileges prints what a role grants. A bare "*" entry means the
// grant covers everything and is shown as ALL.
func (m *UsersModule) reportPrivileges(session *engine.Session, role securityRole) {
	for _, index := range role.Indices {
		indexName := strings.Join(index.Names, ", ")
		if len(index.Names) > 0 && index.Names[0] == "*" {
			indexName = "ALL"
		}
		session.Console.Info(12, "Privileges on indices: %s: %s; Can edit restricted indices: %t",
			indexName, strings.ToUpper(strings.Join(index.Privileges, ", ")), index.AllowRestrictedIndices)
	}

	for _, app := range role.Applications {
		appName := "app_" + app.Application
		if app.Application == "*" {
			appName = "app_ALL"
		}
		privileges := strings.ToUpper(strings.Join(app.Privileges, ", "))
		if len(app.Privileges) > 0 && app.Privileges[0] == "*" {
			privileges = "ALL"
		}
		session.Console.Info(12, "Privileges on application: %s: %s", appName, privileges)
	}
}
