// Package devserver is an in-memory stand-in for the economy backend,
// implementing the same wire contract so the client and its tests can
// run with zero infrastructure. Not a reference for backend rules; the
// real backend stays authoritative.
package devserver

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/x-ordo/the-landlord-web-client/internal/api"
	"github.com/x-ordo/the-landlord-web-client/internal/economy"
)

type user struct {
	snap    api.Snapshot
	inbox   []api.InboxItem
	blocked []api.BlockEntry
	pending []api.PendingOrder
	quests  map[string]*api.Quest

	employees []api.Employee
	raidCount int
}

type raid struct {
	detail api.RaidDetail
}

type Server struct {
	mu      sync.Mutex
	users   map[string]*user
	raids   map[string]*raid
	invites map[string]string // invite id -> employer hash
	idem    map[string]savedResponse

	entropy   *ulid.MonotonicEntropy
	entropyMu sync.Mutex

	now         func() time.Time
	seedTargets int
}

func New(seedTargets int) *Server {
	s := &Server{
		users:       map[string]*user{},
		raids:       map[string]*raid{},
		invites:     map[string]string{},
		idem:        map[string]savedResponse{},
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:         time.Now,
		seedTargets: seedTargets,
	}
	s.seed()
	return s
}

func (s *Server) newID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// seed creates a handful of bot landlords so a fresh client has raid
// targets and a leaderboard to look at.
func (s *Server) seed() {
	types := []string{"residential", "villa", "apartment", "skyscraper"}
	for i := 0; i < s.seedTargets; i++ {
		hash := fmt.Sprintf("bot_%02d", i+1)
		s.users[hash] = &user{
			snap: api.Snapshot{
				UserHash:      hash,
				Gold:          int64(1000 * (i + 1)),
				BuildingLevel: int64(i + 1),
				BuildingType:  types[i%len(types)],
				GPS:           float64(10 * (i + 1)),
				LastCollectAt: s.now().UTC().Format(time.RFC3339),
			},
			quests: map[string]*api.Quest{},
		}
	}
}

func defaultQuests() map[string]*api.Quest {
	return map[string]*api.Quest{
		"first_collect": {
			QuestID:     "first_collect",
			Description: "Collect rent once",
			TargetCount: 1,
			RewardGold:  200,
		},
		"raid_3": {
			QuestID:     "raid_3",
			Description: "Raid other landlords 3 times",
			TargetCount: 3,
			RewardGold:  1000,
		},
	}
}

func (s *Server) getOrCreate(hash string) *user {
	u, ok := s.users[hash]
	if !ok {
		u = &user{
			snap: api.Snapshot{
				UserHash:      hash,
				Gold:          500,
				BuildingLevel: 1,
				BuildingType:  "residential",
				GPS:           10,
				LastCollectAt: s.now().UTC().Format(time.RFC3339),
			},
			quests: defaultQuests(),
		}
		s.users[hash] = u
	}
	if len(u.quests) == 0 {
		u.quests = defaultQuests()
	}
	return u
}

func (s *Server) startSession(hash string) api.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(hash).snap
}

func (s *Server) snapshot(hash string) (api.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[hash]
	if !ok {
		return api.Snapshot{}, errNotFound("unknown user")
	}
	return u.snap, nil
}

func (s *Server) collect(hash string) (api.CollectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)

	last, err := time.Parse(time.RFC3339, u.snap.LastCollectAt)
	now := s.now().UTC()
	if err != nil {
		last = now
	}
	elapsed := now.Sub(last)
	if limit := economy.MaxUncollectedHours * time.Hour; elapsed > limit {
		elapsed = limit
	}
	amount := int64(u.snap.GPS * elapsed.Seconds())
	u.snap.Gold += amount
	u.snap.LastCollectAt = now.Format(time.RFC3339)
	s.bumpQuest(u, "first_collect", 1)
	return api.CollectResult{CollectedAmount: amount, Snapshot: u.snap}, nil
}

func (s *Server) upgradeBuilding(hash string) (api.UpgradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	cost := economy.UpgradeCost(u.snap.BuildingLevel)
	if u.snap.Gold < cost {
		return api.UpgradeResult{}, errBadRequest("insufficient_funds", "not enough gold for the upgrade")
	}
	u.snap.Gold -= cost
	u.snap.BuildingLevel++
	u.snap.GPS += 5
	return api.UpgradeResult{Spent: cost, Snapshot: u.snap}, nil
}

func (s *Server) changeBuildingType(hash, buildingType string) (api.SnapshotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	if buildingType == "" {
		return api.SnapshotResult{}, errBadRequest("invalid_request", "missing building type")
	}
	u.snap.BuildingType = buildingType
	return api.SnapshotResult{Snapshot: u.snap}, nil
}

func (s *Server) raidTargets(hash string) []api.RaidTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := make([]api.RaidTarget, 0, len(s.users))
	for otherHash, other := range s.users {
		if otherHash == hash {
			continue
		}
		assets := economy.Assets(other.snap.Gold, other.snap.BuildingLevel, other.snap.GPS)
		targets = append(targets, api.RaidTarget{
			DefenderHash:   otherHash,
			DefenderAssets: assets,
			MaxLootHint:    int64(float64(other.snap.Gold) * economy.LootRatio),
		})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].DefenderHash < targets[j].DefenderHash })
	return targets
}

func (s *Server) executeRaid(hash, defender, revengeFor string) (api.RaidOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if defender == "" || defender == hash {
		return api.RaidOutcome{}, errBadRequest("invalid_request", "bad defender")
	}
	attacker := s.getOrCreate(hash)
	target, ok := s.users[defender]
	if !ok {
		return api.RaidOutcome{}, errNotFound("unknown defender")
	}
	if until := target.snap.ShieldUntil; until != nil {
		if t, err := time.Parse(time.RFC3339, *until); err == nil && s.now().Before(t) {
			return api.RaidOutcome{}, errBadRequest("shield_active", "defender is under shield")
		}
	}

	loot := int64(float64(target.snap.Gold) * economy.LootRatio)
	target.snap.Gold -= loot
	attacker.snap.Gold += loot
	attacker.raidCount++
	s.bumpQuest(attacker, "raid_3", 1)

	raidID := s.newID()
	now := s.now().UTC().Format(time.RFC3339)
	s.raids[raidID] = &raid{detail: api.RaidDetail{
		RaidID:       raidID,
		AttackerHash: hash,
		DefenderHash: defender,
		LootAmount:   loot,
		CreatedAt:    now,
	}}
	if revengeFor != "" {
		if orig, ok := s.raids[revengeFor]; ok {
			orig.detail.IsRevenged = true
		}
	}
	target.inbox = append(target.inbox, api.InboxItem{
		ID:        s.newID(),
		Type:      "raided",
		Payload:   map[string]any{"attacker_hash": hash, "loot": loot, "raid_id": raidID},
		CreatedAt: now,
	})
	return api.RaidOutcome{RaidID: raidID, LootAmount: loot, Snapshot: attacker.snap}, nil
}

func (s *Server) resolveRaid(raidID string) (api.RaidDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.raids[raidID]
	if !ok {
		return api.RaidDetail{}, errNotFound("unknown raid")
	}
	return r.detail, nil
}

func (s *Server) getInbox(hash string) api.InboxData {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	unread := 0
	for _, item := range u.inbox {
		if item.ReadAt == nil {
			unread++
		}
	}
	items := append([]api.InboxItem(nil), u.inbox...)
	return api.InboxData{UnreadCount: unread, Items: items}
}

func (s *Server) readInbox(hash string, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	now := s.now().UTC().Format(time.RFC3339)
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	for i := range u.inbox {
		if wanted[u.inbox[i].ID] && u.inbox[i].ReadAt == nil {
			at := now
			u.inbox[i].ReadAt = &at
		}
	}
}

func (s *Server) createInvite(hash string) api.InviteData {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(hash)
	inviteID := s.newID()
	s.invites[inviteID] = hash
	return api.InviteData{InviteID: inviteID, InviteURL: ""}
}

func (s *Server) acceptInvite(hash, inviteID string) (api.AcceptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	employer, ok := s.invites[inviteID]
	if !ok {
		return api.AcceptResult{}, errNotFound("unknown invite")
	}
	if employer == hash {
		return api.AcceptResult{}, errBadRequest("invalid_request", "cannot work for yourself")
	}
	delete(s.invites, inviteID)

	emp := s.getOrCreate(employer)
	worker := s.getOrCreate(hash)
	now := s.now().UTC().Format(time.RFC3339)
	emp.employees = append(emp.employees, api.Employee{
		EmployerHash: employer,
		EmployeeHash: hash,
		Status:       "active",
		CreatedAt:    now,
	})
	emp.snap.GPS *= 1 + economy.EmployeeGPSBonus
	return api.AcceptResult{Activated: true, Snapshot: worker.snap}, nil
}

func (s *Server) listEmployment(hash string) api.EmploymentData {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	mult := 1 + economy.EmployeeGPSBonus*float64(len(u.employees))
	if mult > economy.MaxEmployeeGPSMultiplier {
		mult = economy.MaxEmployeeGPSMultiplier
	}
	return api.EmploymentData{
		ActiveCount:     len(u.employees),
		BonusMultiplier: mult,
		Employees:       append([]api.Employee(nil), u.employees...),
	}
}

func (s *Server) shareImage(raidID string) api.ShareImage {
	return api.ShareImage{OGImageURL: "https://dev.local/og/" + raidID + ".png"}
}

func (s *Server) grantShareReward(hash, raidID string) (api.ShareRewardResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.raids[raidID]; !ok {
		return api.ShareRewardResult{}, errNotFound("unknown raid")
	}
	u := s.getOrCreate(hash)
	const reward = 100
	u.snap.Gold += reward
	return api.ShareRewardResult{Granted: true, RewardGold: reward, Snapshot: u.snap}, nil
}

func (s *Server) viralGrant(hash string) api.ViralGrantResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	const reward = 500
	u.snap.Gold += reward
	return api.ViralGrantResult{Granted: true, Snapshot: u.snap, RewardGold: reward}
}

func (s *Server) listBlocked(hash string) []api.BlockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.BlockEntry(nil), s.getOrCreate(hash).blocked...)
}

func (s *Server) addBlock(hash, target, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target == "" {
		return errBadRequest("invalid_request", "missing blocked_hash")
	}
	u := s.getOrCreate(hash)
	for _, b := range u.blocked {
		if b.BlockedHash == target {
			return nil
		}
	}
	u.blocked = append(u.blocked, api.BlockEntry{
		BlockedHash: target,
		Reason:      reason,
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *Server) leaderboard(hash string) api.LeaderboardData {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]api.LeaderboardEntry, 0, len(s.users))
	for otherHash, other := range s.users {
		entries = append(entries, api.LeaderboardEntry{
			UserHash:      otherHash,
			BuildingLevel: other.snap.BuildingLevel,
			Assets:        economy.Assets(other.snap.Gold, other.snap.BuildingLevel, other.snap.GPS),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Assets > entries[j].Assets })
	var mine *api.LeaderboardEntry
	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].UserHash == hash {
			cp := entries[i]
			mine = &cp
		}
	}
	top := entries
	if len(top) > 10 {
		top = top[:10]
	}
	return api.LeaderboardData{TopEntries: top, MyEntry: mine}
}

func (s *Server) listQuests(hash string) []api.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	quests := make([]api.Quest, 0, len(u.quests))
	for _, q := range u.quests {
		quests = append(quests, *q)
	}
	sort.Slice(quests, func(i, j int) bool { return quests[i].QuestID < quests[j].QuestID })
	return quests
}

func (s *Server) claimQuest(hash, questID string) (api.QuestClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	q, ok := u.quests[questID]
	if !ok {
		return api.QuestClaimResult{}, errNotFound("unknown quest")
	}
	if !q.IsCompleted {
		return api.QuestClaimResult{}, errBadRequest("quest_not_completed", "quest is not completed yet")
	}
	if q.IsClaimed {
		return api.QuestClaimResult{}, errBadRequest("quest_already_claimed", "quest reward already claimed")
	}
	q.IsClaimed = true
	u.snap.Gold += q.RewardGold
	return api.QuestClaimResult{Success: true, RewardGold: q.RewardGold, Snapshot: u.snap}, nil
}

func (s *Server) bumpQuest(u *user, questID string, by int) {
	q, ok := u.quests[questID]
	if !ok {
		return
	}
	q.CurrentCount += by
	if q.CurrentCount >= q.TargetCount {
		q.CurrentCount = q.TargetCount
		q.IsCompleted = true
	}
}

func (s *Server) pendingOrders(hash string) []api.PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.PendingOrder(nil), s.getOrCreate(hash).pending...)
}

func (s *Server) grantPurchase(hash, orderID, sku string) (api.GrantResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if orderID == "" || sku == "" {
		return api.GrantResult{}, errBadRequest("invalid_request", "missing order or product")
	}
	u := s.getOrCreate(hash)
	now := s.now().UTC()
	switch sku {
	case "shield_24h":
		until := now.Add(24 * time.Hour).Format(time.RFC3339)
		u.snap.ShieldUntil = &until
	case "auto_collect_7d":
		until := now.Add(7 * 24 * time.Hour).Format(time.RFC3339)
		u.snap.AutoCollectUntil = &until
	default:
		u.snap.Gold += 1000
	}
	u.pending = append(u.pending, api.PendingOrder{
		OrderID:   orderID,
		ProductID: sku,
		GrantedAt: now.Format(time.RFC3339),
	})
	return api.GrantResult{Granted: true, Snapshot: u.snap}, nil
}

func (s *Server) completePurchase(hash, orderID string) (api.CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.getOrCreate(hash)
	kept := u.pending[:0]
	found := false
	for _, o := range u.pending {
		if o.OrderID == orderID {
			found = true
			continue
		}
		kept = append(kept, o)
	}
	u.pending = kept
	if !found {
		return api.CompleteResult{}, errNotFound("unknown order")
	}
	return api.CompleteResult{Completed: true}, nil
}

func (s *Server) adReward(hash, rewardType, adEventID string) (api.SnapshotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if adEventID == "" {
		return api.SnapshotResult{}, errBadRequest("invalid_request", "missing ad_event_id")
	}
	u := s.getOrCreate(hash)
	if rewardType == "" {
		rewardType = "gold"
	}
	u.snap.Gold += 200
	return api.SnapshotResult{Snapshot: u.snap}, nil
}
