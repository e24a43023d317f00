// internal/preflight/authorizer.go
package preflight

import "context"

// Authorizer answers whether a caller is the wallet's administrative
// principal. Evaluated per request; a caller's admin status can change
// between messages, so results are never cached.
type Authorizer interface {
	IsAdmin(ctx context.Context, callerID string) (bool, error)
}

// StaticAuthorizer authorizes callers against a fixed identity list from
// configuration.
type StaticAuthorizer struct {
	admins map[string]struct{}
}

// NewStaticAuthorizer creates an authorizer for the given admin identities.
func NewStaticAuthorizer(adminIDs []string) *StaticAuthorizer {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &StaticAuthorizer{admins: admins}
}

// IsAdmin reports whether callerID is an administrative principal.
func (a *StaticAuthorizer) IsAdmin(_ context.Context, callerID string) (bool, error) {
	_, ok := a.admins[callerID]
	return ok, nil
}
