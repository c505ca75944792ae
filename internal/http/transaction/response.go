package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

// Response is the JSON shape of a transaction.
type Response struct {
	ID          uuid.UUID        `json:"id"`
	Type        transaction.Type `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Date        transaction.Date `json:"date"`
	Tags        []string         `json:"tags"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ToResponse renders tx for API clients. Amounts are encoded as decimal strings.
func ToResponse(tx *transaction.Transaction) Response {
	tags := tx.Tags
	if tags == nil {
		tags = []string{}
	}

	return Response{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
		Tags:        tags,
		CreatedAt:   tx.CreatedAt,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}

type categoriesResponse struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}
