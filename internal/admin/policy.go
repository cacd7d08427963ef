// Package admin holds the allow-list policy gating administrative endpoints.
// The policy is built once at startup and injected; every administrative
// handler re-checks it before mutating shared state.
package admin

import (
	"os"
	"strings"
)

// Policy is the set of usernames permitted to use the administrative surface.
type Policy struct {
	allowed map[string]bool
}

// NewPolicy builds a policy from a list of usernames.
func NewPolicy(usernames []string) *Policy {
	allowed := make(map[string]bool, len(usernames))
	for _, username := range usernames {
		username = strings.TrimSpace(username)
		if username != "" {
			allowed[username] = true
		}
	}
	return &Policy{allowed: allowed}
}

// LoadPolicyFromEnv reads the comma-separated ADMIN_USERNAMES variable.
// An empty variable yields a policy that allows no one.
func LoadPolicyFromEnv() *Policy {
	raw := os.Getenv("ADMIN_USERNAMES")
	if raw == "" {
		return NewPolicy(nil)
	}
	return NewPolicy(strings.Split(raw, ","))
}

// Allows reports whether a username may perform administrative operations.
func (p *Policy) Allows(username string) bool {
	return p.allowed[username]
}
