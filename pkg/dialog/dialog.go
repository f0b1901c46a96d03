// Package dialog is the two-step fine-payment conversation. The first
// message in a conversation announces the outstanding fine and prompts for
// a choice; the next message resolves it. Only "Pay fine" has side
// effects.
package dialog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bnookala/paymentbot/pkg/connector"
	"github.com/bnookala/paymentbot/pkg/models"
	"github.com/bnookala/paymentbot/pkg/payment"
)

const (
	ChoicePay    = "Pay fine"
	ChoiceCancel = "Cancel"
)

type PaymentStarter interface {
	CreateAndSendPayment(ctx context.Context, intent models.PaymentIntent, addr models.ConversationAddress) error
}

type Sender interface {
	Send(ctx context.Context, addr models.ConversationAddress, text string) error
}

type Flow struct {
	payments PaymentStarter
	sender   Sender
	intent   models.PaymentIntent
	log      *log.Logger

	// Which conversations have been prompted and are awaiting a choice.
	// Dialog bookkeeping only; payment correlation never touches this.
	mu       sync.Mutex
	prompted map[string]bool
}

func NewFlow(payments PaymentStarter, sender Sender, intent models.PaymentIntent, logger *log.Logger) *Flow {
	return &Flow{
		payments: payments,
		sender:   sender,
		intent:   intent,
		log:      logger,
		prompted: make(map[string]bool),
	}
}

// HandleActivity advances the conversation by one step.
func (f *Flow) HandleActivity(ctx context.Context, a connector.Activity) error {
	if a.Type != connector.ActivityTypeMessage {
		return nil
	}

	addr := connector.AddressOf(a)
	if f.beginIfNew(addr.ConversationID) {
		prompt := fmt.Sprintf("You have an outstanding fine: %s (%s %s). Reply %q to pay it, or %q.",
			f.intent.Description, f.intent.Currency, payment.Total(f.intent), ChoicePay, ChoiceCancel)
		return f.sender.Send(ctx, addr, prompt)
	}

	if !strings.EqualFold(strings.TrimSpace(a.Text), ChoicePay) {
		// Cancel and anything else end the flow without side effects.
		return nil
	}

	if err := f.payments.CreateAndSendPayment(ctx, f.intent, addr); err != nil {
		f.log.Printf("Failed to start payment for conversation %s: %v", addr.ConversationID, err)
		if sendErr := f.sender.Send(ctx, addr, "Sorry, your payment could not be started. Please try again later."); sendErr != nil {
			f.log.Printf("Failed to report payment failure to conversation %s: %v", addr.ConversationID, sendErr)
		}
		return err
	}
	return nil
}

// beginIfNew reports whether this is the conversation's first step and
// flips its state either way.
func (f *Flow) beginIfNew(conversationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prompted[conversationID] {
		delete(f.prompted, conversationID)
		return false
	}
	f.prompted[conversationID] = true
	return true
}
