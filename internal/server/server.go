// Package server exposes the UI boundary over HTTP: campaign setup, session
// control, the live game state, and save management.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taleforge/taleforge/internal/game"
	"github.com/taleforge/taleforge/internal/save"
	"github.com/taleforge/taleforge/internal/session"
)

// Server wires the session orchestrator, the campaign state and the save
// store to HTTP endpoints.
type Server struct {
	orch  *session.Orchestrator
	game  *game.State
	saves save.Store
	log   *slog.Logger
}

// New creates a Server. A nil logger defaults to [slog.Default].
func New(orch *session.Orchestrator, st *game.State, saves save.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{orch: orch, game: st, saves: saves, log: log}
}

// Handler returns an http.Handler serving the API:
//
//	GET    /api/rulesets            — available campaign rulesets and templates
//	POST   /api/campaign            — start a campaign from a template
//	GET    /api/state               — full campaign state
//	GET    /api/session             — session state and live transcription
//	POST   /api/session/connect     — open the narration session
//	POST   /api/session/disconnect  — close the narration session
//	POST   /api/session/exit        — disconnect and clear the campaign
//	POST   /api/session/mic         — toggle the microphone
//	POST   /api/session/text        — submit a typed user action
//	GET    /api/saves               — list saves, newest first
//	POST   /api/saves               — snapshot the campaign into a new save
//	POST   /api/saves/{id}/load     — restore a save
//	DELETE /api/saves/{id}          — delete a save
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rulesets", s.handleRulesets)
	mux.HandleFunc("POST /api/campaign", s.handleStartCampaign)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/session/connect", s.handleConnect)
	mux.HandleFunc("POST /api/session/disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /api/session/exit", s.handleExit)
	mux.HandleFunc("POST /api/session/mic", s.handleMic)
	mux.HandleFunc("POST /api/session/text", s.handleText)
	mux.HandleFunc("GET /api/saves", s.handleListSaves)
	mux.HandleFunc("POST /api/saves", s.handleCreateSave)
	mux.HandleFunc("POST /api/saves/{id}/load", s.handleLoadSave)
	mux.HandleFunc("DELETE /api/saves/{id}", s.handleDeleteSave)
	return mux
}

// rulesetInfo is the JSON shape of one ruleset in the rulesets listing.
type rulesetInfo struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Templates   []game.Template `json:"templates"`
}

func (s *Server) handleRulesets(w http.ResponseWriter, _ *http.Request) {
	keys := game.RulesetKeys()
	out := make([]rulesetInfo, 0, len(keys))
	for _, key := range keys {
		rs, _ := game.RulesetByKey(key)
		out = append(out, rulesetInfo{
			Key:         rs.Key,
			Name:        rs.Name,
			Description: rs.Description,
			Templates:   rs.Templates,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// startCampaignRequest is the JSON body for the campaign endpoint.
type startCampaignRequest struct {
	Ruleset  string `json:"ruleset"`
	Template string `json:"template"`
}

func (s *Server) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	var req startCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rs, ok := game.RulesetByKey(req.Ruleset)
	if !ok {
		http.Error(w, "unknown ruleset", http.StatusNotFound)
		return
	}
	var tpl *game.Template
	for i := range rs.Templates {
		if rs.Templates[i].Name == req.Template {
			tpl = &rs.Templates[i]
			break
		}
	}
	if tpl == nil {
		http.Error(w, "unknown template", http.StatusNotFound)
		return
	}

	s.game.ResetCampaign()
	s.game.SetCharacter(rs.Key, tpl.Character)
	s.log.Info("campaign started", "ruleset", rs.Key, "character", tpl.Character.Name)

	ch, _ := s.game.Character()
	writeJSON(w, http.StatusOK, ch)
}

// stateResponse is the JSON shape of the full campaign state.
type stateResponse struct {
	SystemKey string              `json:"systemKey"`
	Character *game.Character     `json:"character"`
	Messages  []game.ChatMessage  `json:"messages"`
	Quests    []game.Quest        `json:"quests"`
	NPCs      []game.NPC          `json:"npcs"`
	Chapters  []game.StoryChapter `json:"chapters"`
	Notepad   string              `json:"notepadContent"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	resp := stateResponse{
		SystemKey: s.game.SystemKey(),
		Messages:  s.game.Messages(),
		Quests:    s.game.Quests(),
		NPCs:      s.game.NPCs(),
		Chapters:  s.game.Chapters(),
		Notepad:   s.game.Notepad(),
	}
	if ch, ok := s.game.Character(); ok {
		resp.Character = &ch
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionResponse is the JSON shape of the live session view.
type sessionResponse struct {
	State         session.State `json:"state"`
	MicEnabled    bool          `json:"micEnabled"`
	Transcription struct {
		User  string `json:"user"`
		Model string `json:"model"`
	} `json:"transcription"`
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	resp := sessionResponse{
		State:      s.orch.State(),
		MicEnabled: s.orch.MicEnabled(),
	}
	resp.Transcription.User, resp.Transcription.Model = s.orch.Transcription()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	switch err := s.orch.Connect(r.Context()); {
	case errors.Is(err, session.ErrNoCharacter):
		http.Error(w, "no character selected", http.StatusConflict)
	case errors.Is(err, session.ErrSessionActive):
		http.Error(w, "session already active", http.StatusConflict)
	case err != nil:
		http.Error(w, "connect failed: "+err.Error(), http.StatusBadGateway)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"state": s.orch.State()})
	}
}

func (s *Server) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.orch.Disconnect()
	writeJSON(w, http.StatusOK, map[string]any{"state": s.orch.State()})
}

func (s *Server) handleExit(w http.ResponseWriter, _ *http.Request) {
	s.orch.ExitToMenu()
	writeJSON(w, http.StatusOK, map[string]any{"state": s.orch.State()})
}

// micRequest is the JSON body for the mic toggle endpoint.
type micRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleMic(w http.ResponseWriter, r *http.Request) {
	var req micRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.orch.SetMicEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"micEnabled": req.Enabled})
}

// textRequest is the JSON body for the text action endpoint.
type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	s.orch.SubmitText(req.Text)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := s.saves.List(r.Context())
	if err != nil {
		http.Error(w, "list saves: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saves)
}

func (s *Server) handleCreateSave(w http.ResponseWriter, r *http.Request) {
	snap := s.game.Snapshot()
	if err := s.saves.Put(r.Context(), snap); err != nil {
		http.Error(w, "store save: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("campaign saved", "save_id", snap.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"id": snap.ID, "timestamp": snap.Timestamp})
}

func (s *Server) handleLoadSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := s.saves.Get(r.Context(), id)
	if errors.Is(err, save.ErrNotFound) {
		http.Error(w, "save not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "load save: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Loading replaces the running campaign wholesale; an active session
	// would keep narrating the old one.
	s.orch.Disconnect()
	s.game.Restore(snap)
	s.log.Info("campaign restored", "save_id", id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.saves.Delete(r.Context(), id)
	if errors.Is(err, save.ErrNotFound) {
		http.Error(w, "save not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "delete save: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
