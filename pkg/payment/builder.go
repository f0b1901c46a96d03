// Package payment builds the wire payloads for the provider's two-phase
// protocol. Construction is pure: same inputs, same payload, no clock and
// no randomness.
package payment

import (
	"github.com/shopspring/decimal"

	"github.com/bnookala/paymentbot/pkg/models"
)

const (
	intentSale   = "sale"
	methodPayPal = "paypal"
)

// BuildCreateRequest assembles the create-payment payload. returnURL and
// cancelURL must be absolute URLs; the total is the item sum rendered with
// exactly two decimal places.
func BuildCreateRequest(intent models.PaymentIntent, returnURL, cancelURL string) models.CreateRequest {
	items := make([]models.Item, 0, len(intent.Items))
	for _, item := range intent.Items {
		items = append(items, models.Item{
			Name:     item.Name,
			SKU:      item.SKU,
			Price:    decimal.New(item.PriceMinorUnits, -2).StringFixed(2),
			Currency: intent.Currency,
			Quantity: item.Quantity,
		})
	}

	return models.CreateRequest{
		Intent: intentSale,
		Payer:  models.Payer{PaymentMethod: methodPayPal},
		RedirectURLs: models.RedirectURLs{
			ReturnURL: returnURL,
			CancelURL: cancelURL,
		},
		Transactions: []models.Transaction{{
			ItemList:    &models.ItemList{Items: items},
			Amount:      models.Amount{Currency: intent.Currency, Total: Total(intent)},
			Description: intent.Description,
		}},
	}
}

// BuildExecuteRequest assembles the execute-payment payload. It constructs
// a structurally valid request even for an empty payerID; rejecting an
// empty payer is the orchestrator's explicit check, not a builder concern.
func BuildExecuteRequest(payerID string, intent models.PaymentIntent) models.ExecuteRequest {
	return models.ExecuteRequest{
		PayerID: payerID,
		Transactions: []models.Transaction{{
			Amount: models.Amount{Currency: intent.Currency, Total: Total(intent)},
		}},
	}
}

// Total renders the intent's item sum as a fixed two-decimal string, the
// format the provider expects for minor-unit-100 currencies.
func Total(intent models.PaymentIntent) string {
	return intent.Total().StringFixed(2)
}
