// Package id produces request identifiers and opaque secrets.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. Request ids sort by creation time in the logs.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Secret returns n random bytes hex-encoded, so the result is 2n characters long.
func Secret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
