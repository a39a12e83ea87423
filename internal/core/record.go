package core

import "errors"

const (
	TypeExpense RecordType = "expense"
	TypeIncome  RecordType = "income"
)

type (
	// RecordType distinguishes money going out from money coming in.
	RecordType string

	// Record is a persisted expense or income entry. Optional text fields
	// are pointers so their absence marshals as an explicit JSON null.
	Record struct {
		ID         int64      `json:"id"`
		Amount     float64    `json:"amount"`
		AmountText *string    `json:"amountText"`
		Category   *string    `json:"category"`
		Date       string     `json:"date"`
		Notes      *string    `json:"notes"`
		Currency   *string    `json:"currency"`
		Type       RecordType `json:"type"`
		CreatedAt  int64      `json:"created_at"` // epoch milliseconds
	}

	// Draft is a validated record payload that has not been persisted yet.
	// It carries every Record field except ID and CreatedAt, which the
	// store assigns on creation.
	Draft struct {
		Amount     float64
		AmountText *string
		Category   *string
		Date       string
		Notes      *string
		Currency   *string
		Type       RecordType
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid record type")
)

// IsValid reports whether t is one of the two allowed record types.
func (t RecordType) IsValid() bool {
	return t == TypeExpense || t == TypeIncome
}

func (t RecordType) String() string {
	return string(t)
}

// ToRecord lifts a draft into a full record with store-assigned identity.
func (d Draft) ToRecord(id, createdAt int64) Record {
	return Record{
		ID:         id,
		Amount:     d.Amount,
		AmountText: d.AmountText,
		Category:   d.Category,
		Date:       d.Date,
		Notes:      d.Notes,
		Currency:   d.Currency,
		Type:       d.Type,
		CreatedAt:  createdAt,
	}
}
