// Package api is the small JSON surface the web dashboard uses: public
// profiles, the coin store, and login.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"guildhall.gg/internal/economy"
	"guildhall.gg/internal/persistence/auditlog"
	"guildhall.gg/internal/protocol"
	"guildhall.gg/internal/tuning"
)

// Membership grants and revokes timed perks on the chat platform side
// (VIP roles and the like). The gateway owner wires the real one in.
type Membership interface {
	Grant(ctx context.Context, playerID, grantID string) error
	Revoke(ctx context.Context, playerID, grantID string) error
}

// IdentityExchanger turns an OAuth-style authorization code into a player
// identity. Nil means login is not configured.
type IdentityExchanger interface {
	Exchange(ctx context.Context, code string) (playerID, displayName string, err error)
}

type Server struct {
	store      economy.Store
	tune       tuning.Tuning
	audit      *auditlog.Logger
	membership Membership
	identity   IdentityExchanger
	now        func() time.Time
	log        *log.Logger
}

type Config struct {
	Store  economy.Store
	Tuning tuning.Tuning

	// Optional.
	Audit      *auditlog.Logger
	Membership Membership
	Identity   IdentityExchanger
	Now        func() time.Time
	Log        *log.Logger
}

func NewServer(cfg Config) *Server {
	s := &Server{
		store:      cfg.Store,
		tune:       cfg.Tuning,
		audit:      cfg.Audit,
		membership: cfg.Membership,
		identity:   cfg.Identity,
		now:        cfg.Now,
		log:        cfg.Log,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = log.Default()
	}
	return s
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/user/", s.handleUser)
	mux.HandleFunc("/api/store/buy", s.handleBuy)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
}

type userResponse struct {
	PlayerID     string        `json:"player_id"`
	Balance      int           `json:"balance"`
	XP           int           `json:"xp"`
	Rep          int           `json:"rep"`
	Level        int           `json:"level"`
	Tier         string        `json:"tier"`
	JoinDate     time.Time     `json:"join_date"`
	Achievements []achievement `json:"achievements"`
}

type achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

func (s *Server) handleUser(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/user/")
	if id == "" || strings.Contains(id, "/") {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "bad player id")
		return
	}

	l, err := s.store.Get(r.Context(), id)
	if errors.Is(err, economy.ErrNotFound) {
		writeError(rw, http.StatusNotFound, protocol.ErrNotFound, "unknown player")
		return
	}
	if err != nil {
		s.log.Printf("api: get %s: %v", id, err)
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "storage error")
		return
	}

	writeJSON(rw, http.StatusOK, s.profileOf(l))
}

func (s *Server) profileOf(l economy.Ledger) userResponse {
	now := s.now()
	supporter := hasGrant(l, s.tune.SupporterID, now)
	resp := userResponse{
		PlayerID: l.PlayerID,
		Balance:  l.Balance,
		XP:       l.XP,
		Rep:      l.Rep,
		Level:    economy.Level(l.XP),
		Tier:     economy.TierFor(l.XP, l.Rep).String(),
		JoinDate: l.JoinDate,
	}
	for _, a := range economy.Achievements(l, now, supporter) {
		resp.Achievements = append(resp.Achievements, achievement{
			Name:        a.Name,
			Description: a.Description,
			Unlocked:    a.Unlocked,
		})
	}
	return resp
}

type buyRequest struct {
	PlayerID string `json:"player_id"`
	Item     string `json:"item"`
}

type buyResponse struct {
	Item      string    `json:"item"`
	Balance   int       `json:"balance"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleBuy(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "bad request body")
		return
	}
	if req.Item != "vip_week" {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "unknown item")
		return
	}

	ctx := r.Context()
	l, err := s.store.Get(ctx, req.PlayerID)
	if errors.Is(err, economy.ErrNotFound) {
		writeError(rw, http.StatusNotFound, protocol.ErrNotFound, "unknown player")
		return
	}
	if err != nil {
		s.log.Printf("api: buy load %s: %v", req.PlayerID, err)
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "storage error")
		return
	}
	if l.Balance < s.tune.VipCost {
		writeError(rw, http.StatusConflict, protocol.ErrNoFunds, "not enough coins")
		return
	}

	now := s.now()
	expires := now.Add(time.Duration(s.tune.VipDays) * 24 * time.Hour)

	// Grant the platform perk first so a failed grant costs nothing.
	if s.membership != nil {
		if err := s.membership.Grant(ctx, req.PlayerID, s.tune.VipGrantID); err != nil {
			s.log.Printf("api: grant %s to %s: %v", s.tune.VipGrantID, req.PlayerID, err)
			writeError(rw, http.StatusBadGateway, protocol.ErrInternal, "grant failed")
			return
		}
	}

	l.Balance -= s.tune.VipCost
	l.TempGrants = append(l.TempGrants, economy.TempGrant{
		GrantID:   s.tune.VipGrantID,
		ExpiresAt: expires,
	})
	if err := s.store.Save(ctx, l); err != nil {
		s.log.Printf("api: buy save %s: %v", req.PlayerID, err)
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "storage error")
		return
	}
	_ = s.audit.Write(auditlog.Entry{
		At:       now,
		PlayerID: req.PlayerID,
		Kind:     "purchase",
		Coins:    -s.tune.VipCost,
		Detail:   req.Item,
	})

	writeJSON(rw, http.StatusOK, buyResponse{
		Item:      req.Item,
		Balance:   l.Balance,
		ExpiresAt: expires,
	})
}

type loginRequest struct {
	Code string `json:"code"`
}

type loginResponse struct {
	DisplayName string       `json:"display_name,omitempty"`
	Profile     userResponse `json:"profile"`
}

func (s *Server) handleLogin(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.identity == nil {
		writeError(rw, http.StatusNotImplemented, protocol.ErrInternal, "login not configured")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, "missing code")
		return
	}

	playerID, name, err := s.identity.Exchange(r.Context(), req.Code)
	if err != nil {
		writeError(rw, http.StatusUnauthorized, protocol.ErrBadRequest, "exchange failed")
		return
	}
	// First-time web logins get a ledger too.
	l, err := s.store.GetOrCreate(r.Context(), playerID)
	if err != nil {
		s.log.Printf("api: login create %s: %v", playerID, err)
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, "storage error")
		return
	}
	writeJSON(rw, http.StatusOK, loginResponse{
		DisplayName: name,
		Profile:     s.profileOf(l),
	})
}

func hasGrant(l economy.Ledger, grantID string, now time.Time) bool {
	for _, g := range l.TempGrants {
		if g.GrantID == grantID && g.ExpiresAt.After(now) {
			return true
		}
	}
	return false
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(rw http.ResponseWriter, status int, code, msg string) {
	writeJSON(rw, status, errorBody{Code: code, Message: msg})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
