package idgen

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

func newID(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return prefix + strings.ToLower(id.String())
}

// NewSyncID returns a sync_* ULID string.
func NewSyncID() string { return newID("sync_") }

// NewFilterID returns a flt_* ULID string.
func NewFilterID() string { return newID("flt_") }

// NewRunID returns a run_* ULID string.
func NewRunID() string { return newID("run_") }

// IsValid reports whether the string is a prefixed ULID.
func IsValid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// Parse strips the known prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	for _, prefix := range []string{"sync_", "flt_", "run_"} {
		if strings.HasPrefix(value, prefix) {
			value = strings.TrimPrefix(value, prefix)
			break
		}
	}
	return ulid.Parse(value)
}
