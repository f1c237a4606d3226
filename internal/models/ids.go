package models

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRunID generates a new ULID string for a run. Chapter and job ids are
// deterministic; only run ids need global uniqueness.
func NewRunID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}
