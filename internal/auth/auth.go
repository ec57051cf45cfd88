// Package auth answers "is this credential valid?" for the HTTP surface.
package auth

import "crypto/subtle"

// Validator checks an opaque client credential.
type Validator interface {
	Validate(key string) bool
}

// StaticValidator validates against a single configured internal API key.
type StaticValidator struct {
	key []byte
}

// NewStaticValidator creates a validator for the given key. An empty key
// rejects every credential, so a misconfigured deployment fails closed.
func NewStaticValidator(key string) *StaticValidator {
	return &StaticValidator{key: []byte(key)}
}

// Validate reports whether the presented key matches. The comparison is
// constant time.
func (v *StaticValidator) Validate(key string) bool {
	if len(v.key) == 0 || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare(v.key, []byte(key)) == 1
}
