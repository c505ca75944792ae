package overview

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/campusfin/internal/http/transaction"
	"github.com/MrJamesThe3rd/campusfin/internal/overview"
)

type Handler struct {
	svc *overview.Service
}

func NewHandler(svc *overview.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
}

type summaryResponse struct {
	TotalIncome      decimal.Decimal   `json:"total_income"`
	TotalExpenses    decimal.Decimal   `json:"total_expenses"`
	Balance          decimal.Decimal   `json:"balance"`
	MonthlyIncome    decimal.Decimal   `json:"monthly_income"`
	MonthlyExpenses  decimal.Decimal   `json:"monthly_expenses"`
	MonthlyBalance   decimal.Decimal   `json:"monthly_balance"`
	AverageMonthly   decimal.Decimal   `json:"average_monthly"`
	TransactionCount int               `json:"transaction_count"`
	Recent           []txhttp.Response `json:"recent"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Summary(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, summaryResponse{
		TotalIncome:      s.Overview.TotalIncome,
		TotalExpenses:    s.Overview.TotalExpenses,
		Balance:          s.Overview.Balance,
		MonthlyIncome:    s.Overview.MonthlyIncome,
		MonthlyExpenses:  s.Overview.MonthlyExpenses,
		MonthlyBalance:   s.MonthlyBalance,
		AverageMonthly:   s.AverageMonthly,
		TransactionCount: s.TransactionCount,
		Recent:           txhttp.ToResponseList(s.Recent),
	})
}
