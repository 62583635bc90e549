package api

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	nonceEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	nonceEntropyMu sync.Mutex
)

// NewNonce returns a fresh raid nonce. ULIDs are unique per call, which
// is what keeps repeated raids against the same defender from colliding
// on their idempotency key.
func NewNonce() string {
	nonceEntropyMu.Lock()
	defer nonceEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), nonceEntropy).String()
}
