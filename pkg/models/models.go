package models

import (
	"github.com/shopspring/decimal"
)

// ConversationAddress identifies exactly one user within exactly one
// conversation on one channel instance. It is created by the messaging
// channel when a session starts and is read-only to this service.
type ConversationAddress struct {
	ChannelID      string `json:"channelId"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	ServiceURL     string `json:"serviceUrl"`
}

type LineItem struct {
	Name            string
	SKU             string
	PriceMinorUnits int64
	Quantity        int
}

// PaymentIntent describes what is being charged. The service carries a
// single hardcoded fine, but the shape allows the amount to vary.
type PaymentIntent struct {
	AmountMinorUnits int64
	Currency         string
	Description      string
	Items            []LineItem
}

// Total is the sum of item price times quantity, in major units.
func (i PaymentIntent) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range i.Items {
		price := decimal.New(item.PriceMinorUnits, -2)
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}
