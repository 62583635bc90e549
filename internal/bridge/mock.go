package bridge

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// Mock fulfils every capability contract locally, for running the
// client without a host platform. Shapes match the real bridge: ads
// produce event IDs, purchases settle through the same grant-then-event
// handshake, share and viral are logged no-ops.
type Mock struct {
	// IdentityFile persists the generated identity between runs. Empty
	// means a fresh identity each run.
	IdentityFile string
	// SettleDelay is how long a mock purchase waits before requesting
	// the grant.
	SettleDelay time.Duration

	mu      sync.Mutex
	adReady bool
	entropy *ulid.MonotonicEntropy
}

func NewMock(identityFile string) *Mock {
	return &Mock{
		IdentityFile: identityFile,
		SettleDelay:  time.Second,
		entropy:      ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (m *Mock) newID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String()
}

func (m *Mock) ResolveIdentity(_ context.Context) (string, error) {
	if m.IdentityFile != "" {
		if raw, err := os.ReadFile(m.IdentityFile); err == nil {
			id := strings.TrimSpace(string(raw))
			if id != "" {
				return id, nil
			}
		}
	}
	id := "dev_" + m.newID()
	if m.IdentityFile != "" {
		if err := os.WriteFile(m.IdentityFile, []byte(id+"\n"), 0o644); err != nil {
			log.Debug().Err(err).Str("path", m.IdentityFile).Msg("identity file write failed")
		}
	}
	return id, nil
}

func (m *Mock) LoadRewardedAd(_ context.Context, adUnitID string) error {
	m.mu.Lock()
	m.adReady = true
	m.mu.Unlock()
	log.Debug().Str("ad_unit", adUnitID).Msg("mock ad loaded")
	return nil
}

func (m *Mock) ShowRewardedAd(_ context.Context) (string, error) {
	m.mu.Lock()
	ready := m.adReady
	m.adReady = false
	m.mu.Unlock()
	if !ready {
		return "", fmt.Errorf("no rewarded ad loaded")
	}
	return "mock_ad_" + m.newID(), nil
}

// CreatePurchaseOrder settles asynchronously after SettleDelay: grant
// request first, then the terminal mock_success event if the grant
// succeeded, or OnError if it did not. The returned cancel handle stops
// a settlement that has not started yet.
func (m *Mock) CreatePurchaseOrder(_ context.Context, sku string, h PurchaseHandler) (CancelFunc, error) {
	orderID := fmt.Sprintf("mock_order_%s_%s", sku, m.newID())
	timer := time.AfterFunc(m.SettleDelay, func() {
		ok := false
		if h.OnGrantRequest != nil {
			ok = h.OnGrantRequest(orderID)
		}
		if ok {
			if h.OnEvent != nil {
				h.OnEvent(PurchaseEvent{Type: EventMockSuccess, OrderID: orderID})
			}
			return
		}
		if h.OnError != nil {
			h.OnError(fmt.Errorf("mock grant failed for order %s", orderID))
		}
	})
	return func() { timer.Stop() }, nil
}

func (m *Mock) ShareLink(_ context.Context, in ShareInput) error {
	log.Info().Str("url", in.URL).Str("title", in.Title).Msg("mock share")
	return nil
}

func (m *Mock) ContactsViral(_ context.Context, moduleID string) error {
	log.Info().Str("module_id", moduleID).Msg("mock contacts viral")
	return nil
}

func (m *Mock) SubmitLeaderboardScore(_ context.Context, score int64) error {
	log.Debug().Int64("score", score).Msg("mock leaderboard submit")
	return nil
}

func (m *Mock) OpenLeaderboard(_ context.Context) error {
	log.Debug().Msg("mock leaderboard open")
	return nil
}
