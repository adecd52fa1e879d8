// Package bind extracts and validates command flags into typed option
// structs, keeping flag parsing out of the command run functions.
package bind

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/esaudit/esaudit/pkg/probe"
)

// ProbeOptions holds the validated inputs of the probe command.
type ProbeOptions struct {
	Target   string `validate:"required,url"`
	Tests    []string
	Headers  map[string]string
	Cookie   string
	Username string `validate:"required_with=Password"`
	Password string `validate:"required_with=Username"`
	JSON     bool
	Verbose  bool
}

var optionsValidator = validator.New()

// BindProbeOptions reads the probe command flags and the positional target
// argument and constructs a validated ProbeOptions value.
//
// The target is normalized before validation: a missing scheme defaults to
// http:// and a trailing slash is appended.
func BindProbeOptions(cmd *cobra.Command, args []string) (ProbeOptions, error) {
	tests, _ := cmd.Flags().GetStringSlice("tests")
	rawHeaders, _ := cmd.Flags().GetStringArray("header")
	cookie, _ := cmd.Flags().GetString("cookie")
	username, _ := cmd.Flags().GetString("user")
	password, _ := cmd.Flags().GetString("password")
	jsonOut, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	headers, err := parseHeaders(rawHeaders)
	if err != nil {
		return ProbeOptions{}, err
	}

	opts := ProbeOptions{
		Target:   probe.NormalizeTarget(args[0]),
		Tests:    normalizeTests(tests),
		Headers:  headers,
		Cookie:   cookie,
		Username: username,
		Password: password,
		JSON:     jsonOut,
		Verbose:  verbose,
	}

	if err := optionsValidator.Struct(opts); err != nil {
		return opts, fmt.Errorf("invalid probe options: %w", err)
	}
	return opts, nil
}

// parseHeaders converts repeated "Name: Value" flag values into a map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, found := strings.Cut(entry, ":")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected format 'Name: Value'", entry)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// normalizeTests lower-cases test selectors so --tests is case-insensitive.
func normalizeTests(tests []string) []string {
	if len(tests) == 0 {
		return nil
	}
	normalized := make([]string, len(tests))
	for i, test := range tests {
		normalized[i] = strings.ToLower(strings.TrimSpace(test))
	}
	return normalized
}
