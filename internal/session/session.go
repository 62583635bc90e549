// Package session owns all client-visible game state and sequences every
// call to the backend. One Session per loaded client; consumers read
// state through View copies and never write fields directly.
package session

import (
	"errors"
	"net/url"
	"sync"

	"github.com/x-ordo/the-landlord-web-client/internal/api"
	"github.com/x-ordo/the-landlord-web-client/internal/bridge"
	"github.com/x-ordo/the-landlord-web-client/internal/config"
	"github.com/x-ordo/the-landlord-web-client/internal/economy"
)

var (
	ErrBusy       = errors.New("another action is in flight")
	ErrNoIdentity = errors.New("session has no identity yet")
	ErrNoInvite   = errors.New("no pending invite")
	ErrNoOffer    = errors.New("no pending share offer")
)

// ShareOffer is a pending share-for-reward offer created as a side
// effect of a raid. Payable at most once per raid; the backend enforces
// the once, the client only clears the offer.
type ShareOffer struct {
	RaidID      string
	ImageURL    string
	Title       string
	Description string
}

// RevengeGate is the advisory client-side permission check for a
// revenge deep link. The backend stays authoritative.
type RevengeGate struct {
	OK     bool
	Reason string
}

// View is an immutable copy of the session state for presentation.
type View struct {
	Identity    string
	Consented   bool
	Snapshot    *api.Snapshot
	Targets     []api.RaidTarget
	Inbox       *api.InboxData
	Employment  *api.EmploymentData
	Leaderboard *api.LeaderboardData
	Quests      []api.Quest
	Pending     []api.PendingOrder
	Blocked     []api.BlockEntry
	InviteID    string
	RevengeID   string
	RevengeInfo *api.RaidDetail
	Busy        bool
	ShareOffer  *ShareOffer
	LastError   string
}

type Session struct {
	api    *api.Client
	bridge bridge.Bridge
	cfg    config.ClientConfig

	// busyCh is the single coarse mutex over mutating actions: actions
	// try-acquire and fail fast with ErrBusy, the purchase grant
	// callback acquires blocking because it arrives from outside any
	// action window and must not be dropped.
	busyCh chan struct{}

	mu            sync.Mutex
	identity      string
	snapshot      *api.Snapshot
	targets       []api.RaidTarget
	inbox         *api.InboxData
	employment    *api.EmploymentData
	leaderboard   *api.LeaderboardData
	quests        []api.Quest
	pending       []api.PendingOrder
	blocked       []api.BlockEntry
	inviteID      string
	revengeID     string
	resolvedToken string
	revengeInfo   *api.RaidDetail
	busy          bool
	shareOffer    *ShareOffer
	lastError     string
	launchURL     *url.URL
}

func New(client *api.Client, br bridge.Bridge, cfg config.ClientConfig) *Session {
	s := &Session{
		api:    client,
		bridge: br,
		cfg:    cfg,
		busyCh: make(chan struct{}, 1),
	}
	if u, err := url.Parse(cfg.LaunchURL); err == nil {
		s.launchURL = u
	}
	return s
}

// Identity is the stable opaque user identifier, empty until Boot.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// LaunchURL is the page URL with any consumed deep-link parameters
// already stripped.
func (s *Session) LaunchURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launchURL == nil {
		return ""
	}
	return s.launchURL.String()
}

// State returns a copy of the current session state.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Identity:  s.identity,
		Consented: s.cfg.Consented,
		Targets:   append([]api.RaidTarget(nil), s.targets...),
		Quests:    append([]api.Quest(nil), s.quests...),
		Pending:   append([]api.PendingOrder(nil), s.pending...),
		Blocked:   append([]api.BlockEntry(nil), s.blocked...),
		InviteID:  s.inviteID,
		RevengeID: s.revengeID,
		Busy:      s.busy,
		LastError: s.lastError,
	}
	if s.snapshot != nil {
		snap := *s.snapshot
		v.Snapshot = &snap
	}
	if s.inbox != nil {
		ib := *s.inbox
		ib.Items = append([]api.InboxItem(nil), s.inbox.Items...)
		v.Inbox = &ib
	}
	if s.employment != nil {
		emp := *s.employment
		emp.Employees = append([]api.Employee(nil), s.employment.Employees...)
		v.Employment = &emp
	}
	if s.leaderboard != nil {
		lb := *s.leaderboard
		lb.TopEntries = append([]api.LeaderboardEntry(nil), s.leaderboard.TopEntries...)
		v.Leaderboard = &lb
	}
	if s.revengeInfo != nil {
		ri := *s.revengeInfo
		v.RevengeInfo = &ri
	}
	if s.shareOffer != nil {
		so := *s.shareOffer
		v.ShareOffer = &so
	}
	return v
}

// Assets is the derived total for the current snapshot, zero before boot.
func (s *Session) Assets() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return 0
	}
	return economy.Assets(s.snapshot.Gold, s.snapshot.BuildingLevel, s.snapshot.GPS)
}

func (s *Session) EffectiveGPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return 0
	}
	return s.snapshot.GPS
}

// RevengeAction gates the revenge flow. Nil when there is nothing to
// decide (no resolved revenge record or no identity yet).
func (s *Session) RevengeAction() *RevengeGate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revengeInfo == nil || s.identity == "" {
		return nil
	}
	if s.revengeInfo.DefenderHash != s.identity {
		return &RevengeGate{Reason: "only the raid's defender can take revenge"}
	}
	if s.revengeInfo.IsRevenged {
		return &RevengeGate{Reason: "revenge already taken"}
	}
	return &RevengeGate{OK: true}
}

// tryBegin starts a mutating action: fails fast when another action is
// in flight, clears the previous error optimistically.
func (s *Session) tryBegin() error {
	if s.Identity() == "" {
		return ErrNoIdentity
	}
	select {
	case s.busyCh <- struct{}{}:
	default:
		return ErrBusy
	}
	s.mu.Lock()
	s.busy = true
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// beginBlocking is tryBegin for callers that arrive from outside any
// action window (the purchase grant callback) and must wait instead of
// failing.
func (s *Session) beginBlocking() {
	s.busyCh <- struct{}{}
	s.mu.Lock()
	s.busy = true
	s.lastError = ""
	s.mu.Unlock()
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.lastError = api.Describe(err)
	}
	s.mu.Unlock()
	<-s.busyCh
}

// run wraps a mutating action in the busy window. The action's error is
// recorded as the session's last error and returned. The window is
// released via defer so even a panicking action cannot wedge the
// session.
func (s *Session) run(action func() error) (err error) {
	if beginErr := s.tryBegin(); beginErr != nil {
		return beginErr
	}
	defer func() { s.finish(err) }()
	return action()
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastError = api.Describe(err)
	s.mu.Unlock()
}
