package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goalstash/goalstash/internal/ctxkeys"
	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/progress"
	"github.com/goalstash/goalstash/internal/service"
	"github.com/goalstash/goalstash/internal/validation"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

type goalPayload struct {
	Name           string `json:"name"`
	TargetAmount   string `json:"target_amount"`
	TargetDate     string `json:"target_date"`
	Frequency      string `json:"frequency"`
	InitialDeposit string `json:"initial_deposit"`
}

type goalResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetAmount string  `json:"target_amount"`
	SavedAmount  string  `json:"saved_amount"`
	TargetDate   *string `json:"target_date,omitempty"`
	Frequency    string  `json:"frequency"`
	NextDueDate  *string `json:"next_due_date,omitempty"`
	Status       string  `json:"status"`

	Percent     string `json:"percent"`
	Remaining   string `json:"remaining"`
	DaysLeft    *int   `json:"days_left,omitempty"`
	Milestone   int    `json:"milestone"`
	Recommended string `json:"recommended_contribution"`
	IsDue       bool   `json:"is_due"`
}

func toGoalResponse(goal *model.Goal, snap progress.Snapshot) goalResponse {
	resp := goalResponse{
		ID:           goal.ID,
		Name:         goal.Name,
		TargetAmount: goal.TargetAmount.StringFixed(2),
		SavedAmount:  goal.SavedAmount.StringFixed(2),
		Frequency:    goal.Frequency,
		Status:       goal.Status,
		Percent:      snap.Percent.StringFixed(2),
		Remaining:    snap.Remaining.StringFixed(2),
		DaysLeft:     snap.DaysLeft,
		Milestone:    snap.MilestoneBucket,
		Recommended:  snap.Recommended.StringFixed(2),
		IsDue:        snap.IsDue,
	}
	if goal.TargetDate != nil {
		d := goal.TargetDate.Format("2006-01-02")
		resp.TargetDate = &d
	}
	if goal.NextDueDate != nil {
		d := goal.NextDueDate.Format("2006-01-02")
		resp.NextDueDate = &d
	}
	return resp
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	active, err := h.goalService.Active(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	completed, err := h.goalService.Completed(user.ID, 10)
	if err != nil {
		respondError(w, err)
		return
	}

	activeResp := make([]goalResponse, 0, len(active))
	for _, g := range active {
		activeResp = append(activeResp, toGoalResponse(g.Goal, g.Progress))
	}
	completedResp := make([]goalResponse, 0, len(completed))
	for _, g := range completed {
		completedResp = append(completedResp, toGoalResponse(g.Goal, g.Progress))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"goals":     activeResp,
		"completed": completedResp,
	})
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goalID := r.PathValue("id")

	goal, err := h.goalService.ByID(user.ID, goalID)
	if err != nil {
		respondError(w, err)
		return
	}

	deposits, err := h.goalService.Deposits(user.ID, goalID, 50)
	if err != nil {
		respondError(w, err)
		return
	}

	total, err := h.goalService.DepositedTotal(user.ID, goalID)
	if err != nil {
		respondError(w, err)
		return
	}

	depositResp := make([]map[string]any, 0, len(deposits))
	for _, d := range deposits {
		depositResp = append(depositResp, map[string]any{
			"id":         d.ID,
			"amount":     d.Amount.StringFixed(2),
			"note":       d.Note,
			"created_at": d.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":              true,
		"goal":            toGoalResponse(goal, progress.Compute(goal, time.Now())),
		"deposits":        depositResp,
		"deposited_total": total.StringFixed(2),
	})
}

func (h *GoalHandler) parsePayload(r *http.Request) (service.CreateGoalParams, error) {
	var payload goalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return service.CreateGoalParams{}, errInvalidBody
	}

	target, err := validation.ParsePositiveAmount(payload.TargetAmount)
	if err != nil {
		return service.CreateGoalParams{}, err
	}

	params := service.CreateGoalParams{
		Name:         payload.Name,
		TargetAmount: target,
		Frequency:    payload.Frequency,
	}

	if payload.TargetDate != "" {
		date, err := validation.ParseDate(payload.TargetDate)
		if err != nil {
			return service.CreateGoalParams{}, err
		}
		params.TargetDate = &date
	}

	if payload.InitialDeposit != "" {
		initial, err := validation.ParseNonNegativeAmount(payload.InitialDeposit)
		if err != nil {
			return service.CreateGoalParams{}, err
		}
		params.InitialDeposit = initial
	}

	return params, nil
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	params, err := h.parsePayload(r)
	if err != nil {
		respondError(w, err)
		return
	}

	goal, completed, err := h.goalService.Create(r.Context(), user.ID, params)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":        true,
		"goal":      toGoalResponse(goal, progress.Compute(goal, time.Now())),
		"completed": completed,
	})
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goalID := r.PathValue("id")

	params, err := h.parsePayload(r)
	if err != nil {
		respondError(w, err)
		return
	}

	err = h.goalService.Update(r.Context(), user.ID, goalID, service.UpdateGoalParams{
		Name:         params.Name,
		TargetAmount: params.TargetAmount,
		TargetDate:   params.TargetDate,
		Frequency:    params.Frequency,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goalID := r.PathValue("id")

	if err := h.goalService.Delete(user.ID, goalID); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *GoalHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goalID := r.PathValue("id")

	var payload struct {
		Amount string `json:"amount"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := validation.ParsePositiveAmount(payload.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	goal, completed, err := h.goalService.RecordDeposit(r.Context(), user.ID, goalID, amount, payload.Note)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"goal":      toGoalResponse(goal, progress.Compute(goal, time.Now())),
		"completed": completed,
	})
}

func (h *GoalHandler) AutoContribute(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goalID := r.PathValue("id")

	goal, completed, err := h.goalService.AutoContribute(r.Context(), user.ID, goalID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"goal":      toGoalResponse(goal, progress.Compute(goal, time.Now())),
		"completed": completed,
	})
}

func (h *GoalHandler) SkipPeriod(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	goalID := r.PathValue("id")

	nextDue, err := h.goalService.SkipPeriod(user.ID, goalID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"next_due_date": nextDue.Format("2006-01-02"),
	})
}
