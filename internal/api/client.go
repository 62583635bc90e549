package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/x-ordo/the-landlord-web-client/internal/config"
)

// Client is the typed gateway to the remote economy backend. Every
// request carries the user identity and client version; mutating
// requests additionally carry an idempotency key. The client never
// retries and never deduplicates locally.
type Client struct {
	base    string
	version string
	http    *http.Client
	now     func() time.Time
}

func NewClient(cfg config.ClientConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(cfg.APIBaseURL, "/"),
		version: cfg.ClientVersion,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// NewClientWithClock is NewClient with an injected time source, for
// callers whose idempotency key buckets must line up with a controlled
// clock.
func NewClientWithClock(cfg config.ClientConfig, now func() time.Time) *Client {
	c := NewClient(cfg)
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path, identity, key string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Hash", identity)
	req.Header.Set("X-Client-Version", c.version)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ParseAPIError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) get(ctx context.Context, path, identity string, out any) error {
	return c.do(ctx, http.MethodGet, path, identity, "", nil, out)
}

func (c *Client) SessionStart(ctx context.Context, identity string, consented bool) (Snapshot, error) {
	var snap Snapshot
	body := map[string]any{"consented": consented, "client_version": c.version}
	err := c.do(ctx, http.MethodPost, "/session/start", identity, "", body, &snap)
	return snap, err
}

func (c *Client) Snapshot(ctx context.Context, identity string) (Snapshot, error) {
	var snap Snapshot
	err := c.get(ctx, "/snapshot", identity, &snap)
	return snap, err
}

func (c *Client) Collect(ctx context.Context, identity string) (CollectResult, error) {
	var res CollectResult
	err := c.do(ctx, http.MethodPost, "/collect", identity, collectKey(identity, c.now()), nil, &res)
	return res, err
}

func (c *Client) UpgradeBuilding(ctx context.Context, identity string) (UpgradeResult, error) {
	var res UpgradeResult
	body := map[string]string{"target": "building"}
	err := c.do(ctx, http.MethodPost, "/upgrade/building", identity, upgradeKey(identity, c.now()), body, &res)
	return res, err
}

func (c *Client) ChangeBuildingType(ctx context.Context, identity, buildingType string) (SnapshotResult, error) {
	var res SnapshotResult
	body := map[string]string{"target": "type", "type": buildingType}
	err := c.do(ctx, http.MethodPost, "/upgrade/building", identity, changeTypeKey(identity, buildingType), body, &res)
	return res, err
}

func (c *Client) RaidTargets(ctx context.Context, identity string) ([]RaidTarget, error) {
	var res struct {
		Targets []RaidTarget `json:"targets"`
	}
	err := c.get(ctx, "/raid/targets", identity, &res)
	return res.Targets, err
}

func (c *Client) RaidExecute(ctx context.Context, identity, defender, nonce, revengeFor string) (RaidOutcome, error) {
	var res RaidOutcome
	body := map[string]any{
		"defender_hash":     defender,
		"client_raid_nonce": nonce,
	}
	if revengeFor != "" {
		body["revenge_for_raid_id"] = revengeFor
	}
	err := c.do(ctx, http.MethodPost, "/raid/execute", identity, raidKey(identity, defender, nonce), body, &res)
	return res, err
}

func (c *Client) RaidResolve(ctx context.Context, identity, raidID string) (RaidDetail, error) {
	var res RaidDetail
	err := c.get(ctx, "/raid/resolve?raid_id="+url.QueryEscape(raidID), identity, &res)
	return res, err
}

func (c *Client) Inbox(ctx context.Context, identity string) (InboxData, error) {
	var res InboxData
	err := c.get(ctx, "/inbox", identity, &res)
	return res, err
}

func (c *Client) InboxRead(ctx context.Context, identity string, ids []string) error {
	body := map[string]any{"ids": ids}
	return c.do(ctx, http.MethodPost, "/inbox/read", identity, "", body, nil)
}

func (c *Client) EmploymentInvite(ctx context.Context, identity string) (InviteData, error) {
	var res InviteData
	err := c.do(ctx, http.MethodPost, "/employment/invite", identity, inviteKey(identity, c.now()), nil, &res)
	return res, err
}

func (c *Client) EmploymentAccept(ctx context.Context, identity, inviteID string) (AcceptResult, error) {
	var res AcceptResult
	body := map[string]string{"invite_id": inviteID}
	err := c.do(ctx, http.MethodPost, "/employment/accept", identity, acceptKey(identity, inviteID), body, &res)
	return res, err
}

func (c *Client) EmploymentList(ctx context.Context, identity string) (EmploymentData, error) {
	var res EmploymentData
	err := c.get(ctx, "/employment/list", identity, &res)
	return res, err
}

func (c *Client) ShareOG(ctx context.Context, identity, raidID, attacker, defender string) (ShareImage, error) {
	var res ShareImage
	body := map[string]string{"raid_id": raidID, "attacker_hash": attacker, "defender_hash": defender}
	err := c.do(ctx, http.MethodPost, "/share/og", identity, "", body, &res)
	return res, err
}

func (c *Client) ShareReward(ctx context.Context, identity, raidID string) (ShareRewardResult, error) {
	var res ShareRewardResult
	body := map[string]string{"raid_id": raidID}
	err := c.do(ctx, http.MethodPost, "/share/reward", identity, shareRewardKey(identity, raidID), body, &res)
	return res, err
}

func (c *Client) ViralContactsSend(ctx context.Context, identity string) (ViralGrantResult, error) {
	var res ViralGrantResult
	body := map[string]string{"source": "contactsViral"}
	err := c.do(ctx, http.MethodPost, "/viral/contacts/send", identity, viralContactsKey(identity, c.now()), body, &res)
	return res, err
}

func (c *Client) BlockList(ctx context.Context, identity string) ([]BlockEntry, error) {
	var res struct {
		Items []BlockEntry `json:"items"`
	}
	err := c.get(ctx, "/block", identity, &res)
	return res.Items, err
}

func (c *Client) BlockAdd(ctx context.Context, identity, target, reason string) error {
	if reason == "" {
		reason = "manual"
	}
	body := map[string]string{"blocked_hash": target, "reason": reason}
	return c.do(ctx, http.MethodPost, "/block", identity, blockKey(identity, target), body, nil)
}

func (c *Client) Leaderboard(ctx context.Context, identity string) (LeaderboardData, error) {
	var res LeaderboardData
	err := c.get(ctx, "/leaderboard", identity, &res)
	return res, err
}

func (c *Client) Quests(ctx context.Context, identity string) ([]Quest, error) {
	var res struct {
		Quests []Quest `json:"quests"`
	}
	err := c.get(ctx, "/quests", identity, &res)
	return res.Quests, err
}

func (c *Client) QuestClaim(ctx context.Context, identity, questID string) (QuestClaimResult, error) {
	var res QuestClaimResult
	body := map[string]string{"quest_id": questID}
	err := c.do(ctx, http.MethodPost, "/quests/claim", identity, "", body, &res)
	return res, err
}

func (c *Client) IAPPending(ctx context.Context, identity string) ([]PendingOrder, error) {
	var res struct {
		Orders []PendingOrder `json:"orders"`
	}
	err := c.get(ctx, "/iap/pending", identity, &res)
	return res.Orders, err
}

func (c *Client) IAPGrant(ctx context.Context, identity, orderID, sku string) (GrantResult, error) {
	var res GrantResult
	body := map[string]string{"orderId": orderID, "productId": sku}
	err := c.do(ctx, http.MethodPost, "/iap/grant", identity, grantKey(identity, orderID), body, &res)
	return res, err
}

func (c *Client) IAPComplete(ctx context.Context, identity, orderID string) (CompleteResult, error) {
	var res CompleteResult
	body := map[string]string{"orderId": orderID}
	err := c.do(ctx, http.MethodPost, "/iap/complete", identity, completeKey(identity, orderID), body, &res)
	return res, err
}

func (c *Client) AdReward(ctx context.Context, identity, rewardType, adEventID string) (SnapshotResult, error) {
	var res SnapshotResult
	body := map[string]string{"reward_type": rewardType, "ad_event_id": adEventID}
	err := c.do(ctx, http.MethodPost, "/ad/reward", identity, adRewardKey(identity, adEventID), body, &res)
	return res, err
}

// TelemetryEvent is fire-and-forget; the response body is ignored and
// callers are expected to discard the error.
func (c *Client) TelemetryEvent(ctx context.Context, identity, name string, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	body := map[string]any{"event_name": name, "props": props}
	return c.do(ctx, http.MethodPost, "/telemetry/event", identity, "", body, nil)
}
