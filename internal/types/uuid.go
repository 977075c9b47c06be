package types

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_MEMBERSHIP  = "mem"
	UUID_PREFIX_LEVEL       = "level"
	UUID_PREFIX_GRACE_ENTRY = "grace"
	UUID_PREFIX_ORDER       = "order"
	UUID_PREFIX_REQUEST     = "req"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier with a prefix,
// e.g. grace_01HXYZ...
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
