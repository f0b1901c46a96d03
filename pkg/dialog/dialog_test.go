package dialog

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/bnookala/paymentbot/pkg/connector"
	"github.com/bnookala/paymentbot/pkg/models"
)

type mockStarter struct {
	err   error
	calls []models.ConversationAddress
}

func (m *mockStarter) CreateAndSendPayment(ctx context.Context, intent models.PaymentIntent, addr models.ConversationAddress) error {
	m.calls = append(m.calls, addr)
	return m.err
}

type mockSender struct {
	texts []string
	addrs []models.ConversationAddress
}

func (m *mockSender) Send(ctx context.Context, addr models.ConversationAddress, text string) error {
	m.addrs = append(m.addrs, addr)
	m.texts = append(m.texts, text)
	return nil
}

func fineIntent() models.PaymentIntent {
	return models.PaymentIntent{
		AmountMinorUnits: 100,
		Currency:         "USD",
		Description:      "Parking fine",
		Items: []models.LineItem{{
			Name:            "ParkingFine",
			PriceMinorUnits: 100,
			Quantity:        1,
		}},
	}
}

func messageActivity(text string) connector.Activity {
	return connector.Activity{
		Type:         connector.ActivityTypeMessage,
		Text:         text,
		ChannelID:    "test",
		ServiceURL:   "http://svc",
		From:         connector.ChannelAccount{ID: "u1"},
		Conversation: connector.ConversationAccount{ID: "c1"},
	}
}

func newFlow(starter *mockStarter, sender *mockSender) *Flow {
	return NewFlow(starter, sender, fineIntent(), log.New(io.Discard, "", 0))
}

func TestFirstMessagePrompts(t *testing.T) {
	starter := &mockStarter{}
	sender := &mockSender{}
	flow := newFlow(starter, sender)

	if err := flow.HandleActivity(context.Background(), messageActivity("hi")); err != nil {
		t.Fatalf("HandleActivity failed: %v", err)
	}

	if len(sender.texts) != 1 {
		t.Fatalf("sent messages: got %d, want 1", len(sender.texts))
	}
	prompt := sender.texts[0]
	if !strings.Contains(prompt, ChoicePay) || !strings.Contains(prompt, ChoiceCancel) {
		t.Errorf("prompt %q must offer both choices", prompt)
	}
	if len(starter.calls) != 0 {
		t.Errorf("no payment may be started by the prompt step")
	}
}

func TestPayChoiceStartsPayment(t *testing.T) {
	starter := &mockStarter{}
	sender := &mockSender{}
	flow := newFlow(starter, sender)

	ctx := context.Background()
	if err := flow.HandleActivity(ctx, messageActivity("hi")); err != nil {
		t.Fatalf("prompt step failed: %v", err)
	}
	if err := flow.HandleActivity(ctx, messageActivity("Pay fine")); err != nil {
		t.Fatalf("pay step failed: %v", err)
	}

	if len(starter.calls) != 1 {
		t.Fatalf("payment starts: got %d, want 1", len(starter.calls))
	}
	want := connector.AddressOf(messageActivity("Pay fine"))
	if starter.calls[0] != want {
		t.Errorf("payment address: got %+v, want %+v", starter.calls[0], want)
	}
}

func TestCancelEndsWithoutSideEffects(t *testing.T) {
	starter := &mockStarter{}
	sender := &mockSender{}
	flow := newFlow(starter, sender)

	ctx := context.Background()
	if err := flow.HandleActivity(ctx, messageActivity("hi")); err != nil {
		t.Fatalf("prompt step failed: %v", err)
	}
	if err := flow.HandleActivity(ctx, messageActivity("Cancel")); err != nil {
		t.Fatalf("cancel step failed: %v", err)
	}

	if len(starter.calls) != 0 {
		t.Errorf("cancel must not start a payment")
	}
	if len(sender.texts) != 1 {
		t.Errorf("cancel must not send anything, got %d messages", len(sender.texts))
	}
}

func TestUnrecognizedChoiceEndsFlow(t *testing.T) {
	starter := &mockStarter{}
	sender := &mockSender{}
	flow := newFlow(starter, sender)

	ctx := context.Background()
	_ = flow.HandleActivity(ctx, messageActivity("hi"))
	if err := flow.HandleActivity(ctx, messageActivity("what?")); err != nil {
		t.Fatalf("unrecognized step failed: %v", err)
	}

	if len(starter.calls) != 0 || len(sender.texts) != 1 {
		t.Errorf("anything but %q must end the flow silently", ChoicePay)
	}
}

func TestNonMessageActivityIgnored(t *testing.T) {
	starter := &mockStarter{}
	sender := &mockSender{}
	flow := newFlow(starter, sender)

	activity := messageActivity("")
	activity.Type = "conversationUpdate"
	if err := flow.HandleActivity(context.Background(), activity); err != nil {
		t.Fatalf("HandleActivity failed: %v", err)
	}
	if len(sender.texts) != 0 {
		t.Errorf("non-message activities must be ignored")
	}
}

func TestCreateFailureReportedToUser(t *testing.T) {
	wantErr := errors.New("provider down")
	starter := &mockStarter{err: wantErr}
	sender := &mockSender{}
	flow := newFlow(starter, sender)

	ctx := context.Background()
	_ = flow.HandleActivity(ctx, messageActivity("hi"))
	err := flow.HandleActivity(ctx, messageActivity("pay fine"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("got err %v, want %v", err, wantErr)
	}

	// Prompt plus the failure notice, so the conversation is not left
	// hanging.
	if len(sender.texts) != 2 {
		t.Fatalf("sent messages: got %d, want 2", len(sender.texts))
	}
	if !strings.Contains(sender.texts[1], "could not be started") {
		t.Errorf("failure notice: got %q", sender.texts[1])
	}
}
