package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goalstash/goalstash/internal/ctxkeys"
	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/progress"
	"github.com/goalstash/goalstash/internal/repository"
	"github.com/goalstash/goalstash/internal/service"
)

// ChatHandler wraps each advisor call in a load-mutate-save of the user's
// stored session, so the service itself stays stateless.
type ChatHandler struct {
	chatService *service.ChatService
	sessionRepo repository.ChatSessionRepository
}

func NewChatHandler(chatService *service.ChatService, sessionRepo repository.ChatSessionRepository) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		sessionRepo: sessionRepo,
	}
}

type proposalResponse struct {
	Name           string `json:"name"`
	TargetAmount   string `json:"target_amount"`
	TargetDate     string `json:"target_date,omitempty"`
	Frequency      string `json:"frequency"`
	InitialDeposit string `json:"initial_deposit"`
}

func toProposalResponse(p *model.PendingProposal) *proposalResponse {
	if p == nil {
		return nil
	}
	return &proposalResponse{
		Name:           p.Name,
		TargetAmount:   p.TargetAmount,
		TargetDate:     p.TargetDate,
		Frequency:      p.Frequency,
		InitialDeposit: p.InitialDeposit,
	}
}

func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	session, err := h.sessionRepo.Session(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.chatService.HandleTurn(r.Context(), session, payload.Message)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.sessionRepo.Save(session); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"reply":    result.Reply,
		"proposal": toProposalResponse(result.Proposal),
	})
}

func (h *ChatHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	session, err := h.sessionRepo.Session(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	goal, completed, err := h.chatService.Confirm(r.Context(), session)
	if err != nil {
		// The pending slot is consumed even on failure; persist that before
		// reporting the error.
		if saveErr := h.sessionRepo.Save(session); saveErr != nil {
			respondError(w, saveErr)
			return
		}
		respondError(w, err)
		return
	}

	if err := h.sessionRepo.Save(session); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":        true,
		"goal":      toGoalResponse(goal, progress.Compute(goal, time.Now())),
		"completed": completed,
	})
}

func (h *ChatHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	session, err := h.sessionRepo.Session(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	reply := h.chatService.Cancel(session)

	if err := h.sessionRepo.Save(session); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"reply": reply,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	session, err := h.sessionRepo.Session(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	turns := make([]map[string]string, 0, len(session.Turns))
	for _, t := range session.Turns {
		turns = append(turns, map[string]string{
			"role": t.Role,
			"text": t.Text,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"turns":    turns,
		"proposal": toProposalResponse(session.Pending),
	})
}

func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.sessionRepo.Delete(user.ID); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
