package audit

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Identifier formats below are a wire contract used for cross-system log
// correlation; do not change them.

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewEntryID builds an entry identifier: alog-{unixMillis}-{sequence}-{6 char
// random}.
func NewEntryID(ts time.Time, sequence int64) string {
	return fmt.Sprintf("alog-%d-%d-%s", ts.UnixMilli(), sequence, randomString(6))
}

// NewLogID builds a log identifier: log-{tenantId}-{scope}-{8 char random}.
func NewLogID(tenantID, scope string) string {
	return fmt.Sprintf("log-%s-%s-%s", tenantID, scope, randomString(8))
}

// randomString returns n characters from the lowercase alphanumeric alphabet
// using crypto/rand.
func randomString(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the platform RNG is broken; ids must
		// still be produced, so fall back to a time-derived suffix.
		now := time.Now().UnixNano()
		for i := range buf {
			buf[i] = idAlphabet[int(now>>(uint(i)*5))%len(idAlphabet)]
		}
		return string(buf)
	}
	for i := range buf {
		buf[i] = idAlphabet[int(buf[i])%len(idAlphabet)]
	}
	return string(buf)
}
