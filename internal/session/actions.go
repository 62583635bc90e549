package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/x-ordo/the-landlord-web-client/internal/api"
	"github.com/x-ordo/the-landlord-web-client/internal/bridge"
	"github.com/x-ordo/the-landlord-web-client/internal/economy"
)

const (
	shareOfferTitle = "Landlord Wars: seizure notice issued"
	inviteTitle     = "Landlord Wars: now hiring"
	inviteBody      = "Join up and accept to boost my building's income."
)

// Boot resolves the identity, starts the backend session, and reads the
// deep-link tokens from the launch URL. On failure the snapshot stays
// nil and the session remains unusable.
func (s *Session) Boot(ctx context.Context) error {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()

	identity, err := s.bridge.ResolveIdentity(ctx)
	if err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	snap, err := s.api.SessionStart(ctx, identity, s.cfg.Consented)
	if err != nil {
		s.setError(err)
		return err
	}
	s.installSnapshot(ctx, snap)
	s.telemetry(ctx, "session_start", map[string]any{
		"consented": s.cfg.Consented,
		"ts":        time.Now().UTC().Format(time.RFC3339),
	})

	s.mu.Lock()
	if s.launchURL != nil {
		q := s.launchURL.Query()
		if inv := q.Get("invite"); inv != "" {
			s.inviteID = inv
		}
		rev := q.Get("revenge")
		if rev == "" {
			rev = q.Get("raid_id") // legacy deep-link name
		}
		if rev != "" {
			s.revengeID = rev
		}
	}
	revengeID := s.revengeID
	s.mu.Unlock()

	s.RefreshAll(ctx)
	if revengeID != "" {
		s.resolveRevenge(ctx, revengeID)
	}
	return nil
}

// resolveRevenge fetches the revenge detail exactly once per token
// value. A failed fetch means "no such revenge", not a retryable error.
func (s *Session) resolveRevenge(ctx context.Context, token string) {
	s.mu.Lock()
	if s.resolvedToken == token {
		s.mu.Unlock()
		return
	}
	s.resolvedToken = token
	identity := s.identity
	s.mu.Unlock()

	detail, err := s.api.RaidResolve(ctx, identity, token)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revengeID != token {
		return // dismissed while the fetch was in flight
	}
	if err != nil {
		s.revengeInfo = nil
		return
	}
	s.revengeInfo = &detail
}

// RefreshAll fans out the auxiliary-view fetches concurrently. Each is
// independently fault-tolerant: a failed fetch leaves that view's prior
// value untouched. Never touches the busy flag.
func (s *Session) RefreshAll(ctx context.Context) {
	identity := s.Identity()
	if identity == "" {
		return
	}
	var wg sync.WaitGroup
	fetch := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	fetch(func() {
		if v, err := s.api.RaidTargets(ctx, identity); err == nil {
			s.mu.Lock()
			s.targets = v
			s.mu.Unlock()
		}
	})
	fetch(func() {
		if v, err := s.api.Inbox(ctx, identity); err == nil {
			s.mu.Lock()
			s.inbox = &v
			s.mu.Unlock()
		}
	})
	fetch(func() {
		if v, err := s.api.EmploymentList(ctx, identity); err == nil {
			s.mu.Lock()
			s.employment = &v
			s.mu.Unlock()
		}
	})
	fetch(func() {
		if v, err := s.api.IAPPending(ctx, identity); err == nil {
			s.mu.Lock()
			s.pending = v
			s.mu.Unlock()
		}
	})
	fetch(func() {
		if v, err := s.api.BlockList(ctx, identity); err == nil {
			s.mu.Lock()
			s.blocked = v
			s.mu.Unlock()
		}
	})
	fetch(func() {
		if v, err := s.api.Leaderboard(ctx, identity); err == nil {
			s.mu.Lock()
			s.leaderboard = &v
			s.mu.Unlock()
		}
	})
	fetch(func() {
		if v, err := s.api.Quests(ctx, identity); err == nil {
			s.mu.Lock()
			s.quests = v
			s.mu.Unlock()
		}
	})
	wg.Wait()
}

func (s *Session) Collect(ctx context.Context) error {
	return s.run(func() error {
		res, err := s.api.Collect(ctx, s.Identity())
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "collect", map[string]any{"amount": res.CollectedAmount})
		s.RefreshAll(ctx)
		return nil
	})
}

func (s *Session) UpgradeBuilding(ctx context.Context) error {
	return s.run(func() error {
		res, err := s.api.UpgradeBuilding(ctx, s.Identity())
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "upgrade_building", map[string]any{"level": res.Snapshot.BuildingLevel})
		s.RefreshAll(ctx)
		return nil
	})
}

func (s *Session) ChangeBuildingType(ctx context.Context, buildingType string) error {
	return s.run(func() error {
		res, err := s.api.ChangeBuildingType(ctx, s.Identity(), buildingType)
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "change_building_type", map[string]any{"type": buildingType})
		s.RefreshAll(ctx)
		return nil
	})
}

// Raid attacks defender, optionally as revenge for an earlier raid. On
// success it best-effort fetches a shareable image for the outcome and,
// if one comes back, opens the share-for-reward offer.
func (s *Session) Raid(ctx context.Context, defender, revengeFor string) error {
	return s.run(func() error {
		identity := s.Identity()
		nonce := api.NewNonce()
		out, err := s.api.RaidExecute(ctx, identity, defender, nonce, revengeFor)
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, out.Snapshot)

		if img, imgErr := s.api.ShareOG(ctx, identity, out.RaidID, identity, defender); imgErr == nil && img.OGImageURL != "" {
			s.mu.Lock()
			s.shareOffer = &ShareOffer{
				RaidID:      out.RaidID,
				ImageURL:    img.OGImageURL,
				Title:       shareOfferTitle,
				Description: fmt.Sprintf("You got raided. Come take revenge. (raid=%s)", out.RaidID),
			}
			s.mu.Unlock()
		}
		s.telemetry(ctx, "raid", map[string]any{
			"defenderHash": defender,
			"loot":         out.LootAmount,
			"raid_id":      out.RaidID,
		})
		s.RefreshAll(ctx)
		return nil
	})
}

// AcceptInvite consumes the pending employment invite deep link.
func (s *Session) AcceptInvite(ctx context.Context) error {
	return s.run(func() error {
		s.mu.Lock()
		inviteID := s.inviteID
		s.mu.Unlock()
		if inviteID == "" {
			return ErrNoInvite
		}
		res, err := s.api.EmploymentAccept(ctx, s.Identity(), inviteID)
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "employment_accept", map[string]any{"inviteId": inviteID})
		s.mu.Lock()
		s.inviteID = ""
		s.stripParamLocked("invite")
		s.mu.Unlock()
		s.RefreshAll(ctx)
		return nil
	})
}

// CreateInvite requests an invite and hands it to the native share
// capability. The share itself is fire-and-forget.
func (s *Session) CreateInvite(ctx context.Context) error {
	return s.run(func() error {
		res, err := s.api.EmploymentInvite(ctx, s.Identity())
		if err != nil {
			return err
		}
		s.telemetry(ctx, "employment_invite_create", nil)
		inviteURL := res.InviteURL
		if inviteURL == "" {
			inviteURL = s.originURL("invite", res.InviteID)
		}
		if shareErr := s.bridge.ShareLink(ctx, bridge.ShareInput{
			Title:       inviteTitle,
			Description: inviteBody,
			URL:         inviteURL,
		}); shareErr != nil {
			log.Debug().Err(shareErr).Msg("invite share failed")
		}
		s.RefreshAll(ctx)
		return nil
	})
}

func (s *Session) ContactsViral(ctx context.Context) error {
	return s.run(func() error {
		res, err := s.api.ViralContactsSend(ctx, s.Identity())
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "viral_contacts_send", map[string]any{"moduleId": s.cfg.ViralModuleID})
		if s.cfg.ViralModuleID != "" {
			if brErr := s.bridge.ContactsViral(ctx, s.cfg.ViralModuleID); brErr != nil {
				log.Debug().Err(brErr).Msg("contacts viral bridge call failed")
			}
		}
		s.RefreshAll(ctx)
		return nil
	})
}

func (s *Session) BlockUser(ctx context.Context, target string) error {
	return s.run(func() error {
		if err := s.api.BlockAdd(ctx, s.Identity(), target, "inbox_block"); err != nil {
			return err
		}
		s.telemetry(ctx, "block_add", map[string]any{"blocked": target})
		s.RefreshAll(ctx)
		return nil
	})
}

// MarkAllRead bulk-reads the currently unread inbox items. With zero
// unread items no read call is issued.
func (s *Session) MarkAllRead(ctx context.Context) error {
	return s.run(func() error {
		s.mu.Lock()
		var unread []string
		if s.inbox != nil {
			for _, item := range s.inbox.Items {
				if item.ReadAt == nil {
					unread = append(unread, item.ID)
				}
			}
		}
		s.mu.Unlock()
		if len(unread) > 0 {
			if err := s.api.InboxRead(ctx, s.Identity(), unread); err != nil {
				return err
			}
		}
		s.telemetry(ctx, "inbox_mark_all_read", map[string]any{"count": len(unread)})
		s.RefreshAll(ctx)
		return nil
	})
}

func (s *Session) ClaimQuest(ctx context.Context, questID string) error {
	return s.run(func() error {
		res, err := s.api.QuestClaim(ctx, s.Identity(), questID)
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "quest_claim", map[string]any{"questId": questID, "reward": res.RewardGold})
		s.RefreshAll(ctx)
		return nil
	})
}

// CompletePendingOrder re-drives the completion step for an order
// abandoned mid-handshake. This is the designed recovery path for
// interrupted purchases.
func (s *Session) CompletePendingOrder(ctx context.Context, orderID string) error {
	return s.run(func() error {
		if _, err := s.api.IAPComplete(ctx, s.Identity(), orderID); err != nil {
			return err
		}
		s.telemetry(ctx, "iap_complete", map[string]any{"orderId": orderID})
		s.RefreshAll(ctx)
		return nil
	})
}

// PlayAd loads and shows a rewarded ad, then grants the reward keyed by
// the platform's ad event identifier.
func (s *Session) PlayAd(ctx context.Context, rewardType string) error {
	return s.run(func() error {
		if err := s.bridge.LoadRewardedAd(ctx, s.cfg.AdUnitID); err != nil {
			return err
		}
		adEventID, err := s.bridge.ShowRewardedAd(ctx)
		if err != nil {
			return err
		}
		res, err := s.api.AdReward(ctx, s.Identity(), rewardType, adEventID)
		if err != nil {
			return err
		}
		s.installSnapshot(ctx, res.Snapshot)
		s.telemetry(ctx, "ad_reward", map[string]any{"rewardType": rewardType, "adEventId": adEventID})
		s.RefreshAll(ctx)
		return nil
	})
}

// Purchase starts the three-party purchase handshake: it registers the
// grant handler with the platform and returns. The grant request and
// the terminal settlement event arrive later, outside this busy window.
func (s *Session) Purchase(ctx context.Context, sku string) error {
	return s.run(func() error {
		_, err := s.bridge.CreatePurchaseOrder(ctx, sku, bridge.PurchaseHandler{
			OnGrantRequest: func(orderID string) bool {
				return s.handleGrantRequest(context.Background(), sku, orderID)
			},
			OnEvent: func(ev bridge.PurchaseEvent) {
				s.handlePurchaseEvent(context.Background(), ev)
			},
			OnError: func(err error) {
				s.setError(err)
			},
		})
		return err
	})
}

// handleGrantRequest credits the purchase. The platform invokes it at a
// time of its choosing, so it acquires its own busy window; the boolean
// tells the platform whether to finalize or roll back.
func (s *Session) handleGrantRequest(ctx context.Context, sku, orderID string) bool {
	s.beginBlocking()
	defer s.finish(nil) // the platform surfaces grant failures through OnError

	res, err := s.api.IAPGrant(ctx, s.Identity(), orderID, sku)
	if err != nil {
		log.Debug().Err(err).Str("order_id", orderID).Msg("purchase grant failed")
		return false
	}
	s.installSnapshot(ctx, res.Snapshot)
	s.telemetry(ctx, "iap_grant", map[string]any{"orderId": orderID, "sku": sku})
	return true
}

// handlePurchaseEvent closes the commercial transaction once the
// platform reports terminal success. Completion failures are swallowed;
// the pending-orders view recovers them.
func (s *Session) handlePurchaseEvent(ctx context.Context, ev bridge.PurchaseEvent) {
	if !ev.IsTerminalSuccess() {
		return
	}
	if _, err := s.api.IAPComplete(ctx, s.Identity(), ev.OrderID); err != nil {
		log.Debug().Err(err).Str("order_id", ev.OrderID).Msg("purchase completion failed")
	}
	s.RefreshAll(ctx)
}

// ShareForReward shares the pending offer and claims the one-time share
// reward. Every step is best-effort; the offer always closes and the
// views always refresh.
func (s *Session) ShareForReward(ctx context.Context) error {
	return s.run(func() error {
		s.mu.Lock()
		offer := s.shareOffer
		s.mu.Unlock()
		if offer == nil {
			return ErrNoOffer
		}
		identity := s.Identity()
		shareErr := s.bridge.ShareLink(ctx, bridge.ShareInput{
			Title:       offer.Title,
			Description: offer.Description,
			URL:         s.originURL("revenge", offer.RaidID),
			ImageURL:    offer.ImageURL,
		})
		if shareErr == nil {
			if res, err := s.api.ShareReward(ctx, identity, offer.RaidID); err == nil {
				s.installSnapshot(ctx, res.Snapshot)
				s.telemetry(ctx, "share_reward", map[string]any{"raidId": offer.RaidID, "granted": res.Granted})
			} else {
				log.Debug().Err(err).Str("raid_id", offer.RaidID).Msg("share reward failed")
			}
		} else {
			log.Debug().Err(shareErr).Msg("share link failed")
		}
		s.mu.Lock()
		s.shareOffer = nil
		s.mu.Unlock()
		s.RefreshAll(ctx)
		return nil
	})
}

// OpenLeaderboard asks the platform to present its native leaderboard
// surface. Purely a bridge call; the backend view is unaffected.
func (s *Session) OpenLeaderboard(ctx context.Context) error {
	if err := s.bridge.OpenLeaderboard(ctx); err != nil {
		return err
	}
	s.telemetry(ctx, "leaderboard_open", nil)
	return nil
}

// CloseShareOffer dismisses the offer without touching the reward
// endpoint.
func (s *Session) CloseShareOffer() {
	s.mu.Lock()
	s.shareOffer = nil
	s.mu.Unlock()
}

// CloseRevenge dismisses the revenge flow and strips its deep-link
// parameters from the launch URL.
func (s *Session) CloseRevenge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stripParamLocked("revenge")
	s.stripParamLocked("raid_id")
	s.revengeID = ""
	s.revengeInfo = nil
}

// ClearInvite dismisses the invite flow and strips its deep-link
// parameter.
func (s *Session) ClearInvite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stripParamLocked("invite")
	s.inviteID = ""
}

func (s *Session) stripParamLocked(key string) {
	if s.launchURL == nil {
		return
	}
	q := s.launchURL.Query()
	q.Del(key)
	s.launchURL.RawQuery = q.Encode()
}

// originURL builds <scheme://host>?<key>=<value> from the launch URL.
func (s *Session) originURL(key, value string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launchURL == nil {
		return ""
	}
	origin := *s.launchURL
	origin.Path = ""
	origin.RawQuery = key + "=" + url.QueryEscape(value)
	origin.Fragment = ""
	return origin.String()
}

// installSnapshot replaces the server-authoritative snapshot wholesale
// and fires the score submission side effects.
func (s *Session) installSnapshot(ctx context.Context, snap api.Snapshot) {
	s.mu.Lock()
	cp := snap
	s.snapshot = &cp
	identity := s.identity
	s.mu.Unlock()

	score := economy.Assets(snap.Gold, snap.BuildingLevel, snap.GPS)
	if err := s.bridge.SubmitLeaderboardScore(ctx, score); err != nil {
		log.Debug().Err(err).Msg("leaderboard submit failed")
	}
	if err := s.api.TelemetryEvent(ctx, identity, "leaderboard_submit", map[string]any{"score": score}); err != nil {
		log.Debug().Err(err).Msg("leaderboard telemetry failed")
	}
}

// telemetry is the best-effort usage event; failures never surface.
func (s *Session) telemetry(ctx context.Context, name string, props map[string]any) {
	if err := s.api.TelemetryEvent(ctx, s.Identity(), name, props); err != nil {
		log.Debug().Err(err).Str("event", name).Msg("telemetry failed")
	}
}
