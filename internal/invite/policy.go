package invite

import "slices"

// Policy is the static allow/deny list for callers.
type Policy struct {
	Allowed    []string
	Disallowed []string
}

// Authorize reports whether caller may manage invitations. A non-empty
// Allowed list must contain the caller; a non-empty Disallowed list must not.
func (p Policy) Authorize(caller string) bool {
	if len(p.Allowed) > 0 && !slices.Contains(p.Allowed, caller) {
		return false
	}
	if len(p.Disallowed) > 0 && slices.Contains(p.Disallowed, caller) {
		return false
	}
	return true
}
