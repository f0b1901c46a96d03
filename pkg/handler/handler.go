// Package handler drives the two-phase payment lifecycle: create a payment
// and hand the user an approval link, then execute the payment and confirm
// it in the originating conversation once the provider's callback fires.
// The conversation identity crosses the approval gap inside the return URL;
// nothing is kept in process between the two phases.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bnookala/paymentbot/pkg/correlate"
	"github.com/bnookala/paymentbot/pkg/models"
	"github.com/bnookala/paymentbot/pkg/payment"
	"github.com/bnookala/paymentbot/pkg/paypal"
	"github.com/bnookala/paymentbot/pkg/stats"
)

var (
	// ErrNoApprovalLink means the provider accepted the create call but
	// returned no approval_url link, leaving the user nothing to visit.
	ErrNoApprovalLink = errors.New("create response has no approval_url link")

	// ErrEmptyPayerID means the approval callback arrived without a payer,
	// so the payment cannot be executed.
	ErrEmptyPayerID = errors.New("approval callback has no PayerID")
)

const (
	// Callback query parameters supplied by the provider, alongside the
	// correlation parameters this service put on the return URL itself.
	ParamPaymentID = "paymentId"
	ParamPayerID   = "PayerID"

	approvalPath = "/approvalComplete"
	cancelPath   = "/cancel"
)

type Provider interface {
	CreatePayment(ctx context.Context, req models.CreateRequest) (*paypal.Payment, error)
	ExecutePayment(ctx context.Context, paymentID string, req models.ExecuteRequest) (*paypal.Payment, error)
}

type Sender interface {
	Send(ctx context.Context, addr models.ConversationAddress, text string) error
}

type PaymentHandler struct {
	provider Provider
	sender   Sender
	recorder *stats.Recorder

	callbackHost string
	callbackPort int
	intent       models.PaymentIntent
	log          *log.Logger
}

func NewPaymentHandler(provider Provider, sender Sender, recorder *stats.Recorder,
	callbackHost string, callbackPort int, intent models.PaymentIntent, logger *log.Logger) *PaymentHandler {
	return &PaymentHandler{
		provider:     provider,
		sender:       sender,
		recorder:     recorder,
		callbackHost: callbackHost,
		callbackPort: callbackPort,
		intent:       intent,
		log:          logger,
	}
}

// CreateAndSendPayment creates a payment with the provider and sends its
// approval link into the conversation. On failure nothing is sent; the
// error is the caller's to surface.
func (h *PaymentHandler) CreateAndSendPayment(ctx context.Context, intent models.PaymentIntent, addr models.ConversationAddress) error {
	addressID := uuid.NewString()
	returnURL := correlate.BuildReturnURL(h.callbackHost, h.callbackPort, approvalPath, addr, addressID)
	cancelURL := fmt.Sprintf("http://%s:%d%s", h.callbackHost, h.callbackPort, cancelPath)

	created, err := h.provider.CreatePayment(ctx, payment.BuildCreateRequest(intent, returnURL, cancelURL))
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	approvalURL, ok := created.ApprovalURL()
	if !ok {
		return fmt.Errorf("payment %s: %w", created.ID, ErrNoApprovalLink)
	}

	h.log.Printf("Created payment %s for conversation %s", created.ID, addr.ConversationID)

	text := fmt.Sprintf("Please approve your payment of %s %s here: %s",
		intent.Currency, payment.Total(intent), approvalURL)
	if err := h.sender.Send(ctx, addr, text); err != nil {
		return fmt.Errorf("send approval link: %w", err)
	}
	return nil
}

// CompletePayment resumes a payment after the provider's approval
// redirect. The decoded correlation token is the only basis for knowing
// which conversation to notify; nothing else about the inbound request is
// consulted for identity. Decode and provider failures are terminal and
// never retried: the approval link is single-use and the provider's answer
// is final.
func (h *PaymentHandler) CompletePayment(ctx context.Context, params map[string]string) (*paypal.Payment, error) {
	addr, addressID, err := correlate.Decode(params)
	if err != nil {
		return nil, err
	}

	paymentID := params[ParamPaymentID]
	if paymentID == "" {
		return nil, fmt.Errorf("approval callback has no %s", ParamPaymentID)
	}
	payerID := params[ParamPayerID]
	if payerID == "" {
		return nil, ErrEmptyPayerID
	}

	executed, err := h.provider.ExecutePayment(ctx, paymentID, payment.BuildExecuteRequest(payerID, h.intent))
	if err != nil {
		return nil, fmt.Errorf("execute payment %s: %w", paymentID, err)
	}

	h.log.Printf("Executed payment %s (address %s) for conversation %s", executed.ID, addressID, addr.ConversationID)

	h.recorder.Record(stats.ExecutedPayment{
		PaymentID:      executed.ID,
		ConversationID: addr.ConversationID,
		Amount:         h.intent.Total(),
		Currency:       h.intent.Currency,
		ExecutedAt:     time.Now(),
	})

	text := fmt.Sprintf("Thanks! Your payment of %s %s for %q went through.",
		h.intent.Currency, payment.Total(h.intent), h.intent.Description)
	if err := h.sender.Send(ctx, addr, text); err != nil {
		return executed, fmt.Errorf("send confirmation: %w", err)
	}
	return executed, nil
}
