// FilePath: internal/models/models.credential.go
package models

import "time"

// Credential is the bearer token issued by the upstream password grant.
type Credential struct {
	Token  string
	Expiry time.Time
}

// ValidAt reports whether the credential may still be used at now. The
// comparison is strict: a credential expiring exactly at now is valid.
func (c *Credential) ValidAt(now time.Time) bool {
	if c == nil || c.Token == "" {
		return false
	}
	return !now.After(c.Expiry)
}
