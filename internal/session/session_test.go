package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/x-ordo/the-landlord-web-client/internal/api"
	"github.com/x-ordo/the-landlord-web-client/internal/bridge"
	"github.com/x-ordo/the-landlord-web-client/internal/config"
)

type fakeBridge struct {
	mu         sync.Mutex
	identity   string
	loaded     bool
	adEventID  string
	shares     []bridge.ShareInput
	scores     []int64
	viralCalls []string
	handler    bridge.PurchaseHandler
	orders     []string
	cancelled  bool
	opens      int
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{identity: "user-a", adEventID: "ad-ev-1"}
}

func (b *fakeBridge) ResolveIdentity(context.Context) (string, error) {
	return b.identity, nil
}

func (b *fakeBridge) LoadRewardedAd(context.Context, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loaded = true
	return nil
}

func (b *fakeBridge) ShowRewardedAd(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return "", errors.New("no ad loaded")
	}
	b.loaded = false
	return b.adEventID, nil
}

func (b *fakeBridge) CreatePurchaseOrder(_ context.Context, sku string, h bridge.PurchaseHandler) (bridge.CancelFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
	b.orders = append(b.orders, sku)
	return func() { b.cancelled = true }, nil
}

func (b *fakeBridge) ShareLink(_ context.Context, in bridge.ShareInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shares = append(b.shares, in)
	return nil
}

func (b *fakeBridge) ContactsViral(_ context.Context, moduleID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viralCalls = append(b.viralCalls, moduleID)
	return nil
}

func (b *fakeBridge) SubmitLeaderboardScore(_ context.Context, score int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores = append(b.scores, score)
	return nil
}

func (b *fakeBridge) OpenLeaderboard(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	return nil
}

func (b *fakeBridge) grantHandler() bridge.PurchaseHandler {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func baseSnapshot() api.Snapshot {
	return api.Snapshot{
		UserHash:      "user-a",
		Gold:          0,
		BuildingLevel: 1,
		BuildingType:  "residential",
		GPS:           10,
		LastCollectAt: "2025-03-01T00:00:00Z",
	}
}

// testMux registers minimal handlers for the whole wire contract, with
// per-test overrides layered on top.
func testMux(overrides map[string]http.HandlerFunc) *http.ServeMux {
	handlers := map[string]http.HandlerFunc{
		"/session/start": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, baseSnapshot())
		},
		"/telemetry/event": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
		"/raid/targets": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"targets": []api.RaidTarget{{DefenderHash: "user-b", DefenderAssets: 30000, MaxLootHint: 900}}})
		},
		"/inbox": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.InboxData{UnreadCount: 0, Items: []api.InboxItem{}})
		},
		"/employment/list": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.EmploymentData{ActiveCount: 0, BonusMultiplier: 1, Employees: []api.Employee{}})
		},
		"/iap/pending": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"orders": []api.PendingOrder{}})
		},
		"/block": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"items": []api.BlockEntry{}})
		},
		"/leaderboard": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.LeaderboardData{TopEntries: []api.LeaderboardEntry{}})
		},
		"/quests": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"quests": []api.Quest{}})
		},
		"/collect": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.CollectResult{CollectedAmount: 0, Snapshot: baseSnapshot()})
		},
	}
	for path, h := range overrides {
		handlers[path] = h
	}
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	return mux
}

func newTestSession(t *testing.T, overrides map[string]http.HandlerFunc, launchURL string) (*Session, *fakeBridge) {
	t.Helper()
	srv := httptest.NewServer(testMux(overrides))
	t.Cleanup(srv.Close)
	cfg := config.ClientConfig{
		APIBaseURL:    srv.URL,
		ClientVersion: "test-1",
		HTTPTimeout:   2 * time.Second,
		AdUnitID:      "unit-1",
		LaunchURL:     launchURL,
		Consented:     true,
	}
	br := newFakeBridge()
	return New(api.NewClient(cfg), br, cfg), br
}

func TestBootInstallsSnapshotAndDeepLinks(t *testing.T) {
	resolves := 0
	overrides := map[string]http.HandlerFunc{
		"/raid/resolve": func(w http.ResponseWriter, r *http.Request) {
			resolves++
			writeJSON(w, api.RaidDetail{
				RaidID:       r.URL.Query().Get("raid_id"),
				AttackerHash: "user-b",
				DefenderHash: "user-a",
				LootAmount:   300,
			})
		},
	}
	s, br := newTestSession(t, overrides, "http://localhost:5173/?invite=inv-1&raid_id=r-77")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	v := s.State()
	if v.Identity != "user-a" {
		t.Fatalf("Identity = %q", v.Identity)
	}
	if v.Snapshot == nil || v.Snapshot.Gold != 0 || v.Snapshot.BuildingLevel != 1 {
		t.Fatalf("unexpected snapshot: %+v", v.Snapshot)
	}
	if v.InviteID != "inv-1" {
		t.Fatalf("InviteID = %q, want inv-1", v.InviteID)
	}
	if v.RevengeID != "r-77" {
		t.Fatalf("RevengeID = %q, want r-77 (legacy raid_id param)", v.RevengeID)
	}
	if v.RevengeInfo == nil || v.RevengeInfo.RaidID != "r-77" {
		t.Fatalf("revenge info = %+v", v.RevengeInfo)
	}
	if resolves != 1 {
		t.Fatalf("raid/resolve called %d times, want 1", resolves)
	}
	if got := s.Assets(); got != 20000 {
		t.Fatalf("Assets() = %d, want 20000", got)
	}
	if len(v.Targets) != 1 || v.Targets[0].DefenderHash != "user-b" {
		t.Fatalf("targets = %+v", v.Targets)
	}
	br.mu.Lock()
	scores := len(br.scores)
	br.mu.Unlock()
	if scores == 0 {
		t.Fatal("boot should submit a leaderboard score")
	}
}

func TestBootFailureLeavesSnapshotNil(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/session/start": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(500)
			_, _ = w.Write([]byte(`{"code":"boom"}`))
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err == nil {
		t.Fatal("Boot() should fail")
	}
	v := s.State()
	if v.Snapshot != nil {
		t.Fatal("snapshot must stay nil after a failed boot")
	}
	if v.LastError != "server error" {
		t.Fatalf("LastError = %q, want the 500 default", v.LastError)
	}
}

func TestCollectEndToEnd(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/collect": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Idempotency-Key") == "" {
				t.Error("collect must carry an idempotency key")
			}
			snap := baseSnapshot()
			snap.Gold = 500
			writeJSON(w, api.CollectResult{CollectedAmount: 500, Snapshot: snap})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if got := s.Assets(); got != 20000 {
		t.Fatalf("Assets() before collect = %d, want 20000", got)
	}
	if err := s.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	v := s.State()
	if v.Snapshot.Gold != 500 {
		t.Fatalf("Gold = %d, want 500", v.Snapshot.Gold)
	}
	if got := s.Assets(); got != 20500 {
		t.Fatalf("Assets() after collect = %d, want 20500", got)
	}
	if v.Busy {
		t.Fatal("busy must clear after the action")
	}
}

func TestRaidPopulatesShareOffer(t *testing.T) {
	rewardCalls := 0
	overrides := map[string]http.HandlerFunc{
		"/raid/execute": func(w http.ResponseWriter, r *http.Request) {
			snap := baseSnapshot()
			snap.Gold = 900
			writeJSON(w, api.RaidOutcome{RaidID: "raid-9", LootAmount: 900, Snapshot: snap})
		},
		"/share/og": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.ShareImage{OGImageURL: "https://cdn.example.com/og/raid-9.png"})
		},
		"/share/reward": func(w http.ResponseWriter, r *http.Request) {
			rewardCalls++
			writeJSON(w, api.ShareRewardResult{Granted: true, RewardGold: 100, Snapshot: baseSnapshot()})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.Raid(context.Background(), "user-b", ""); err != nil {
		t.Fatalf("Raid() error = %v", err)
	}
	v := s.State()
	if v.ShareOffer == nil || v.ShareOffer.RaidID != "raid-9" {
		t.Fatalf("share offer = %+v", v.ShareOffer)
	}
	if v.ShareOffer.ImageURL != "https://cdn.example.com/og/raid-9.png" {
		t.Fatalf("ImageURL = %q", v.ShareOffer.ImageURL)
	}

	s.CloseShareOffer()
	if s.State().ShareOffer != nil {
		t.Fatal("CloseShareOffer must clear the offer")
	}
	if rewardCalls != 0 {
		t.Fatalf("share/reward called %d times, want 0 on close", rewardCalls)
	}
}

func TestRaidRateLimitedKeepsSnapshot(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/raid/execute": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(429)
			_, _ = w.Write([]byte(`{"code":"rate_limited"}`))
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	before := *s.State().Snapshot

	err := s.Raid(context.Background(), "user-b", "")
	if err == nil {
		t.Fatal("Raid() should fail")
	}
	v := s.State()
	if v.LastError != "too many requests, try again shortly" {
		t.Fatalf("LastError = %q, want the 429 default", v.LastError)
	}
	if *v.Snapshot != before {
		t.Fatalf("snapshot changed on a failed raid: %+v", v.Snapshot)
	}
	if v.ShareOffer != nil {
		t.Fatal("no share offer on a failed raid")
	}
}

func TestBusyIsExclusive(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	overrides := map[string]http.HandlerFunc{
		"/collect": func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-release
			writeJSON(w, api.CollectResult{CollectedAmount: 1, Snapshot: baseSnapshot()})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Collect(context.Background()) }()
	<-entered

	if !s.State().Busy {
		t.Fatal("busy should be set while an action is in flight")
	}
	if err := s.UpgradeBuilding(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("overlapping action error = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if s.State().Busy {
		t.Fatal("busy should clear once the action finishes")
	}
}

func TestBusyReleasedAfterActionPanic(t *testing.T) {
	s, _ := newTestSession(t, nil, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic did not propagate")
			}
		}()
		_ = s.run(func() error { panic("action blew up") })
	}()

	if s.State().Busy {
		t.Fatal("busy flag still set after a panicking action")
	}
	if err := s.Collect(context.Background()); err != nil {
		t.Fatalf("session wedged after panic: Collect() error = %v", err)
	}
}

func TestRefreshFailureKeepsPriorView(t *testing.T) {
	var mu sync.Mutex
	fail := false
	overrides := map[string]http.HandlerFunc{
		"/inbox": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			broken := fail
			mu.Unlock()
			if broken {
				w.WriteHeader(500)
				return
			}
			readAt := "2025-03-01T00:00:00Z"
			writeJSON(w, api.InboxData{UnreadCount: 1, Items: []api.InboxItem{
				{ID: "m1", Type: "raid", CreatedAt: "2025-03-01T00:00:00Z"},
				{ID: "m2", Type: "raid", CreatedAt: "2025-03-01T00:00:00Z", ReadAt: &readAt},
			}})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if v := s.State(); v.Inbox == nil || len(v.Inbox.Items) != 2 {
		t.Fatalf("inbox after boot = %+v", v.Inbox)
	}

	mu.Lock()
	fail = true
	mu.Unlock()
	s.RefreshAll(context.Background())

	v := s.State()
	if v.Inbox == nil || len(v.Inbox.Items) != 2 {
		t.Fatalf("failed refresh must keep the prior inbox, got %+v", v.Inbox)
	}
	if len(v.Targets) != 1 {
		t.Fatalf("other views must still refresh, targets = %+v", v.Targets)
	}
	if v.LastError != "" {
		t.Fatalf("refresh failures must not set lastError, got %q", v.LastError)
	}
}

func TestMarkAllRead(t *testing.T) {
	var mu sync.Mutex
	readCalls := 0
	var readIDs []string
	allRead := false
	overrides := map[string]http.HandlerFunc{
		"/inbox": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			readAt := "2025-03-01T00:00:00Z"
			if allRead {
				writeJSON(w, api.InboxData{Items: []api.InboxItem{{ID: "m1", ReadAt: &readAt}}})
				return
			}
			writeJSON(w, api.InboxData{UnreadCount: 2, Items: []api.InboxItem{
				{ID: "m1"}, {ID: "m2"}, {ID: "m3", ReadAt: &readAt},
			}})
		},
		"/inbox/read": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				IDs []string `json:"ids"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			readCalls++
			readIDs = body.IDs
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	mu.Lock()
	if readCalls != 1 || len(readIDs) != 2 || readIDs[0] != "m1" || readIDs[1] != "m2" {
		t.Fatalf("read calls = %d, ids = %v", readCalls, readIDs)
	}
	allRead = true
	mu.Unlock()

	s.RefreshAll(context.Background())
	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if readCalls != 1 {
		t.Fatalf("zero unread items must not issue a read call, calls = %d", readCalls)
	}
}

func TestRevengeGateMatrix(t *testing.T) {
	s, _ := newTestSession(t, nil, "http://localhost:5173/")
	if gate := s.RevengeAction(); gate != nil {
		t.Fatalf("gate before boot = %+v, want nil", gate)
	}

	s.mu.Lock()
	s.identity = "user-a"
	s.revengeInfo = &api.RaidDetail{RaidID: "r1", AttackerHash: "user-b", DefenderHash: "user-c"}
	s.mu.Unlock()
	gate := s.RevengeAction()
	if gate == nil || gate.OK || !strings.Contains(gate.Reason, "defender") {
		t.Fatalf("wrong-defender gate = %+v", gate)
	}

	s.mu.Lock()
	s.revengeInfo = &api.RaidDetail{RaidID: "r1", AttackerHash: "user-b", DefenderHash: "user-a", IsRevenged: true}
	s.mu.Unlock()
	gate = s.RevengeAction()
	if gate == nil || gate.OK || !strings.Contains(gate.Reason, "already") {
		t.Fatalf("already-revenged gate = %+v", gate)
	}

	s.mu.Lock()
	s.revengeInfo = &api.RaidDetail{RaidID: "r1", AttackerHash: "user-b", DefenderHash: "user-a"}
	s.mu.Unlock()
	gate = s.RevengeAction()
	if gate == nil || !gate.OK {
		t.Fatalf("permitted gate = %+v", gate)
	}
}

func TestRevengeResolvedOncePerToken(t *testing.T) {
	var mu sync.Mutex
	resolves := 0
	overrides := map[string]http.HandlerFunc{
		"/raid/resolve": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			resolves++
			mu.Unlock()
			writeJSON(w, api.RaidDetail{RaidID: "r-5", DefenderHash: "user-a"})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/?revenge=r-5")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	s.resolveRevenge(context.Background(), "r-5")
	s.resolveRevenge(context.Background(), "r-5")
	mu.Lock()
	defer mu.Unlock()
	if resolves != 1 {
		t.Fatalf("resolve called %d times for one token, want 1", resolves)
	}
}

func TestRevengeResolveFailureMeansNoRevenge(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/raid/resolve": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(404)
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/?revenge=gone")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	v := s.State()
	if v.RevengeInfo != nil {
		t.Fatalf("revenge info = %+v, want nil on resolve failure", v.RevengeInfo)
	}
	if v.LastError != "" {
		t.Fatalf("resolve failure must not set lastError, got %q", v.LastError)
	}
}

func TestDeepLinkClearsStripURL(t *testing.T) {
	s, _ := newTestSession(t, nil, "http://localhost:5173/?invite=inv-9&raid_id=r-3&keep=1")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	s.ClearInvite()
	v := s.State()
	if v.InviteID != "" {
		t.Fatalf("InviteID = %q after clear", v.InviteID)
	}
	if u := s.LaunchURL(); strings.Contains(u, "invite=") {
		t.Fatalf("invite param still in URL %q", u)
	}

	s.CloseRevenge()
	v = s.State()
	if v.RevengeID != "" || v.RevengeInfo != nil {
		t.Fatalf("revenge state not cleared: %+v", v)
	}
	u := s.LaunchURL()
	if strings.Contains(u, "raid_id=") || strings.Contains(u, "revenge=") {
		t.Fatalf("revenge params still in URL %q", u)
	}
	if !strings.Contains(u, "keep=1") {
		t.Fatalf("unrelated params must survive, URL %q", u)
	}
}

func TestAcceptInviteClearsToken(t *testing.T) {
	accepts := 0
	overrides := map[string]http.HandlerFunc{
		"/employment/accept": func(w http.ResponseWriter, r *http.Request) {
			accepts++
			var body struct {
				InviteID string `json:"invite_id"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.InviteID != "inv-2" {
				t.Errorf("invite_id = %q", body.InviteID)
			}
			writeJSON(w, api.AcceptResult{Activated: true, Snapshot: baseSnapshot()})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/?invite=inv-2")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.AcceptInvite(context.Background()); err != nil {
		t.Fatalf("AcceptInvite() error = %v", err)
	}
	if accepts != 1 {
		t.Fatalf("accept calls = %d", accepts)
	}
	v := s.State()
	if v.InviteID != "" {
		t.Fatalf("InviteID = %q after accept", v.InviteID)
	}
	if strings.Contains(s.LaunchURL(), "invite=") {
		t.Fatal("invite param must be stripped after accept")
	}

	if err := s.AcceptInvite(context.Background()); !errors.Is(err, ErrNoInvite) {
		t.Fatalf("second accept error = %v, want ErrNoInvite", err)
	}
}

func TestCreateInviteSharesLink(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/employment/invite": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.InviteData{InviteID: "inv-7", InviteURL: ""})
		},
	}
	s, br := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.CreateInvite(context.Background()); err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if len(br.shares) != 1 {
		t.Fatalf("share calls = %d, want 1", len(br.shares))
	}
	if br.shares[0].URL != "http://localhost:5173?invite=inv-7" {
		t.Fatalf("share URL = %q", br.shares[0].URL)
	}
}

func TestPlayAdGrantsReward(t *testing.T) {
	var gotKey, gotEvent string
	overrides := map[string]http.HandlerFunc{
		"/ad/reward": func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("Idempotency-Key")
			var body struct {
				AdEventID string `json:"ad_event_id"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotEvent = body.AdEventID
			snap := baseSnapshot()
			snap.Gold = 50
			writeJSON(w, api.SnapshotResult{Snapshot: snap})
		},
	}
	s, _ := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.PlayAd(context.Background(), "gold"); err != nil {
		t.Fatalf("PlayAd() error = %v", err)
	}
	if gotEvent != "ad-ev-1" {
		t.Fatalf("ad_event_id = %q", gotEvent)
	}
	if gotKey != "ad_reward:user-a:ad-ev-1" {
		t.Fatalf("idempotency key = %q", gotKey)
	}
	if s.State().Snapshot.Gold != 50 {
		t.Fatal("ad reward snapshot not installed")
	}
}

func TestContactsViralNeedsModuleID(t *testing.T) {
	overrides := map[string]http.HandlerFunc{
		"/viral/contacts/send": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.ViralGrantResult{Granted: true, Snapshot: baseSnapshot(), RewardGold: 100})
		},
	}
	s, br := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.ContactsViral(context.Background()); err != nil {
		t.Fatalf("ContactsViral() error = %v", err)
	}
	br.mu.Lock()
	calls := len(br.viralCalls)
	br.mu.Unlock()
	if calls != 0 {
		t.Fatal("bridge contacts call must be skipped without a module id")
	}

	s.cfg.ViralModuleID = "mod-1"
	if err := s.ContactsViral(context.Background()); err != nil {
		t.Fatalf("ContactsViral() error = %v", err)
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if len(br.viralCalls) != 1 || br.viralCalls[0] != "mod-1" {
		t.Fatalf("viral calls = %v", br.viralCalls)
	}
}

func TestOpenLeaderboardReachesBridge(t *testing.T) {
	s, br := newTestSession(t, nil, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.OpenLeaderboard(context.Background()); err != nil {
		t.Fatalf("OpenLeaderboard() error = %v", err)
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.opens != 1 {
		t.Fatalf("bridge open calls = %d, want 1", br.opens)
	}
}

func TestShareForReward(t *testing.T) {
	rewardCalls := 0
	overrides := map[string]http.HandlerFunc{
		"/raid/execute": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.RaidOutcome{RaidID: "raid-4", LootAmount: 10, Snapshot: baseSnapshot()})
		},
		"/share/og": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, api.ShareImage{OGImageURL: "https://cdn.example.com/x.png"})
		},
		"/share/reward": func(w http.ResponseWriter, r *http.Request) {
			rewardCalls++
			snap := baseSnapshot()
			snap.Gold = 100
			writeJSON(w, api.ShareRewardResult{Granted: true, RewardGold: 100, Snapshot: snap})
		},
	}
	s, br := newTestSession(t, overrides, "http://localhost:5173/")
	if err := s.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	if err := s.ShareForReward(context.Background()); !errors.Is(err, ErrNoOffer) {
		t.Fatalf("ShareForReward without offer error = %v, want ErrNoOffer", err)
	}
	if err := s.Raid(context.Background(), "user-b", ""); err != nil {
		t.Fatalf("Raid() error = %v", err)
	}
	if err := s.ShareForReward(context.Background()); err != nil {
		t.Fatalf("ShareForReward() error = %v", err)
	}
	if rewardCalls != 1 {
		t.Fatalf("reward calls = %d, want 1", rewardCalls)
	}
	v := s.State()
	if v.ShareOffer != nil {
		t.Fatal("offer must close after sharing")
	}
	if v.Snapshot.Gold != 100 {
		t.Fatalf("reward snapshot not installed, gold = %d", v.Snapshot.Gold)
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	found := false
	for _, in := range br.shares {
		if strings.Contains(in.URL, "revenge=raid-4") {
			found = true
		}
	}
	if !found {
		t.Fatalf("share link should carry the revenge deep link, shares = %+v", br.shares)
	}
}
