package devserver

import (
	"net/http"
)

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Consented     bool   `json:"consented"`
		ClientVersion string `json:"client_version"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.startSession(identityFrom(r)))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(identityFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	res, err := s.collect(identityFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

// handleUpgrade serves both the level upgrade and the building type
// change; the request's target field picks which.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
		Type   string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch req.Target {
	case "type":
		res, err := s.changeBuildingType(identityFrom(r), req.Type)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)
	default:
		res, err := s.upgradeBuilding(identityFrom(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, res)
	}
}

func (s *Server) handleRaidTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"targets": s.raidTargets(identityFrom(r))})
}

func (s *Server) handleRaidExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DefenderHash     string `json:"defender_hash"`
		ClientRaidNonce  string `json:"client_raid_nonce"`
		RevengeForRaidID string `json:"revenge_for_raid_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.executeRaid(identityFrom(r), req.DefenderHash, req.RevengeForRaidID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleRaidResolve(w http.ResponseWriter, r *http.Request) {
	detail, err := s.resolveRaid(r.URL.Query().Get("raid_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.getInbox(identityFrom(r)))
}

func (s *Server) handleInboxRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.readInbox(identityFrom(r), req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEmploymentInvite(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.createInvite(identityFrom(r)))
}

func (s *Server) handleEmploymentAccept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteID string `json:"invite_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.acceptInvite(identityFrom(r), req.InviteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleEmploymentList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.listEmployment(identityFrom(r)))
}

func (s *Server) handleShareOG(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RaidID       string `json:"raid_id"`
		AttackerHash string `json:"attacker_hash"`
		DefenderHash string `json:"defender_hash"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.shareImage(req.RaidID))
}

func (s *Server) handleShareReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RaidID string `json:"raid_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.grantShareReward(identityFrom(r), req.RaidID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleViralContacts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.viralGrant(identityFrom(r)))
}

func (s *Server) handleBlockList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"items": s.listBlocked(identityFrom(r))})
}

func (s *Server) handleBlockAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlockedHash string `json:"blocked_hash"`
		Reason      string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.addBlock(identityFrom(r), req.BlockedHash, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.leaderboard(identityFrom(r)))
}

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"quests": s.listQuests(identityFrom(r))})
}

func (s *Server) handleQuestClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestID string `json:"quest_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.claimQuest(identityFrom(r), req.QuestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleIAPPending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"orders": s.pendingOrders(identityFrom(r))})
}

func (s *Server) handleIAPGrant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID   string `json:"orderId"`
		ProductID string `json:"productId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.grantPurchase(identityFrom(r), req.OrderID, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleIAPComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.completePurchase(identityFrom(r), req.OrderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleAdReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RewardType string `json:"reward_type"`
		AdEventID  string `json:"ad_event_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.adReward(identityFrom(r), req.RewardType, req.AdEventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

// handleTelemetry accepts any well-formed event and drops it. Dev runs
// do not keep analytics.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventName string         `json:"event_name"`
		Props     map[string]any `json:"props"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
