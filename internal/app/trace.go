package app

import (
	"bytes"
	"crypto/sha256"
	"time"

	"github.com/oklog/ulid/v2"
)

// TraceID derives a run identifier from the seed and start time. Runs of
// the same seed share entropy, so their IDs differ only in the timestamp.
func TraceID(seed string, at time.Time) string {
	sum := sha256.Sum256([]byte(seed))
	id, err := ulid.New(ulid.Timestamp(at), bytes.NewReader(sum[:]))
	if err != nil {
		return ""
	}
	return id.String()
}
