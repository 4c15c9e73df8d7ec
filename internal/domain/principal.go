package domain

// Principal is the resolved caller identity supplied by the gateway.
// Authentication itself happens upstream; the service only consumes
// the resolved identity.
type Principal struct {
	UserID  string
	TeamID  string
	IsAdmin bool
}

// IsAuthenticated reports whether a user identity was resolved.
func (p Principal) IsAuthenticated() bool {
	return p.UserID != ""
}
