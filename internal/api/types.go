package api

// Wire contract types. Field tags follow the backend's JSON exactly; the
// backend is the authority for all of these values and the client never
// patches individual snapshot fields.

type Snapshot struct {
	UserHash         string  `json:"user_hash"`
	Gold             int64   `json:"gold"`
	BuildingLevel    int64   `json:"building_level"`
	BuildingType     string  `json:"building_type"`
	GPS              float64 `json:"gps"`
	LastCollectAt    string  `json:"last_collect_at"`
	ShieldUntil      *string `json:"shield_until,omitempty"`
	AutoCollectUntil *string `json:"auto_collect_until,omitempty"`
}

type RaidTarget struct {
	DefenderHash   string `json:"defender_hash"`
	DefenderAssets int64  `json:"defender_assets"`
	MaxLootHint    int64  `json:"max_loot_hint"`
}

type RaidOutcome struct {
	RaidID     string   `json:"raid_id"`
	LootAmount int64    `json:"loot_amount"`
	Snapshot   Snapshot `json:"snapshot"`
}

type RaidDetail struct {
	RaidID       string `json:"raid_id"`
	AttackerHash string `json:"attacker_hash"`
	DefenderHash string `json:"defender_hash"`
	LootAmount   int64  `json:"loot_amount"`
	IsRevenged   bool   `json:"is_revenged"`
	CreatedAt    string `json:"created_at"`
}

type InboxItem struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt string         `json:"created_at"`
	ReadAt    *string        `json:"read_at,omitempty"`
}

type InboxData struct {
	UnreadCount int         `json:"unread_count"`
	Items       []InboxItem `json:"items"`
}

type Employee struct {
	EmployerHash string `json:"employer_hash"`
	EmployeeHash string `json:"employee_hash"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type EmploymentData struct {
	ActiveCount     int        `json:"active_count"`
	BonusMultiplier float64    `json:"bonus_multiplier"`
	Employees       []Employee `json:"employees"`
}

type InviteData struct {
	InviteID  string `json:"invite_id"`
	InviteURL string `json:"invite_url"`
}

type LeaderboardEntry struct {
	UserHash      string `json:"user_hash"`
	BuildingLevel int64  `json:"building_level"`
	Assets        int64  `json:"assets"`
	Rank          int    `json:"rank"`
}

type LeaderboardData struct {
	TopEntries []LeaderboardEntry `json:"top_entries"`
	MyEntry    *LeaderboardEntry  `json:"my_entry,omitempty"`
}

type Quest struct {
	QuestID      string `json:"quest_id"`
	Description  string `json:"description"`
	CurrentCount int    `json:"current_count"`
	TargetCount  int    `json:"target_count"`
	RewardGold   int64  `json:"reward_gold"`
	IsClaimed    bool   `json:"is_claimed"`
	IsCompleted  bool   `json:"is_completed"`
}

type PendingOrder struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	GrantedAt string `json:"granted_at"`
}

type BlockEntry struct {
	BlockedHash string `json:"blocked_hash"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"created_at"`
}

type CollectResult struct {
	CollectedAmount int64    `json:"collected_amount"`
	Snapshot        Snapshot `json:"snapshot"`
}

type UpgradeResult struct {
	Spent    int64    `json:"spent"`
	Snapshot Snapshot `json:"snapshot"`
}

type SnapshotResult struct {
	Snapshot Snapshot `json:"snapshot"`
}

type AcceptResult struct {
	Activated bool     `json:"activated"`
	Snapshot  Snapshot `json:"snapshot"`
}

type ShareImage struct {
	OGImageURL string `json:"ogImageUrl"`
}

type ShareRewardResult struct {
	Granted    bool     `json:"granted"`
	RewardGold int64    `json:"reward_gold"`
	Snapshot   Snapshot `json:"snapshot"`
}

type ViralGrantResult struct {
	Granted    bool     `json:"granted"`
	Snapshot   Snapshot `json:"snapshot"`
	RewardGold int64    `json:"reward_gold"`
	RetryAt    *string  `json:"retry_at,omitempty"`
}

type QuestClaimResult struct {
	Success    bool     `json:"success"`
	RewardGold int64    `json:"reward_gold"`
	Snapshot   Snapshot `json:"snapshot"`
}

type GrantResult struct {
	Granted  bool     `json:"granted"`
	Snapshot Snapshot `json:"snapshot"`
}

type CompleteResult struct {
	Completed bool `json:"completed"`
}
