package stats

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type ExecutedPayment struct {
	PaymentID      string
	ConversationID string
	Amount         decimal.Decimal
	Currency       string
	ExecutedAt     time.Time
}

// Recorder keeps an in-memory record of executed payments. It is a
// reporting convenience only; nothing in the payment flow reads it back.
type Recorder struct {
	mu       sync.RWMutex
	payments []ExecutedPayment
}

func NewRecorder() *Recorder {
	return &Recorder{payments: make([]ExecutedPayment, 0)}
}

func (r *Recorder) Record(p ExecutedPayment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, p)
}

type Summary struct {
	TotalPayments int             `json:"totalPayments"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Currency      string          `json:"currency,omitempty"`
}

func (r *Recorder) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	currency := ""
	for _, p := range r.payments {
		total = total.Add(p.Amount)
		currency = p.Currency
	}

	return Summary{
		TotalPayments: len(r.payments),
		TotalAmount:   total,
		Currency:      currency,
	}
}
