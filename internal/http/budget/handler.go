package budget

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/http/respond"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
}

type budgetResponse struct {
	ID        uuid.UUID       `json:"id"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Period    budget.Period   `json:"period"`
	CreatedAt time.Time       `json:"created_at"`
}

// evaluationResponse embeds the budget with its read-time figures. When the
// budget could not be evaluated only Error is set.
type evaluationResponse struct {
	budgetResponse

	Spent      *decimal.Decimal `json:"spent,omitempty"`
	Status     budget.Status    `json:"status,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Progress   *decimal.Decimal `json:"progress,omitempty"`
	Remaining  *decimal.Decimal `json:"remaining,omitempty"`
	Overage    *decimal.Decimal `json:"overage,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func toBudgetResponse(b *budget.Budget) budgetResponse {
	return budgetResponse{
		ID:        b.ID,
		Category:  b.Category,
		Limit:     b.Limit,
		Period:    b.Period,
		CreatedAt: b.CreatedAt,
	}
}

func toEvaluationResponse(e budget.Evaluation) evaluationResponse {
	resp := evaluationResponse{budgetResponse: toBudgetResponse(e.Budget)}

	if e.Err != nil {
		resp.Error = e.Err.Error()
		return resp
	}

	resp.Spent = new(e.Spent)
	resp.Status = e.Status
	resp.Percentage = new(e.Percentage.Round(2))
	resp.Progress = new(e.Progress.Round(2))
	resp.Remaining = new(e.Remaining)
	resp.Overage = new(e.Overage)

	return resp
}

type createBudgetRequest struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Period   budget.Period   `json:"period"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Create(r.Context(), budget.CreateParams{
		Category: req.Category,
		Limit:    req.Limit,
		Period:   req.Period,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toBudgetResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	evals, err := h.svc.Evaluate(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]evaluationResponse, len(evals))
	for i, e := range evals {
		resp[i] = toEvaluationResponse(e)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	eval, err := h.svc.EvaluateOne(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toEvaluationResponse(eval))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateBudgetRequest struct {
	Category *string          `json:"category,omitempty"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
	Period   *budget.Period   `json:"period,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if req.Category != nil {
		b.Category = *req.Category
	}

	if req.Limit != nil {
		b.Limit = *req.Limit
	}

	if req.Period != nil {
		b.Period = *req.Period
	}

	if err := h.svc.Update(r.Context(), b); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toBudgetResponse(b))
}
