package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(apiLogMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireIdentity)
		r.Use(s.idempotency)

		r.Post("/session/start", s.handleSessionStart)
		r.Get("/snapshot", s.handleSnapshot)
		r.Post("/collect", s.handleCollect)
		r.Post("/upgrade/building", s.handleUpgrade)

		r.Get("/raid/targets", s.handleRaidTargets)
		r.Post("/raid/execute", s.handleRaidExecute)
		r.Get("/raid/resolve", s.handleRaidResolve)

		r.Get("/inbox", s.handleInbox)
		r.Post("/inbox/read", s.handleInboxRead)

		r.Post("/employment/invite", s.handleEmploymentInvite)
		r.Post("/employment/accept", s.handleEmploymentAccept)
		r.Get("/employment/list", s.handleEmploymentList)

		r.Post("/share/og", s.handleShareOG)
		r.Post("/share/reward", s.handleShareReward)
		r.Post("/viral/contacts/send", s.handleViralContacts)

		r.Get("/block", s.handleBlockList)
		r.Post("/block", s.handleBlockAdd)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/quests", s.handleQuests)
		r.Post("/quests/claim", s.handleQuestClaim)

		r.Get("/iap/pending", s.handleIAPPending)
		r.Post("/iap/grant", s.handleIAPGrant)
		r.Post("/iap/complete", s.handleIAPComplete)

		r.Post("/ad/reward", s.handleAdReward)
		r.Post("/telemetry/event", s.handleTelemetry)
	})

	return r
}
