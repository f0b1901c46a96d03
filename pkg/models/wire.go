package models

// Wire payloads for the provider's two-phase payment protocol. Amounts
// travel as fixed-point decimal strings, never floats.

type CreateRequest struct {
	Intent       string        `json:"intent"`
	Payer        Payer         `json:"payer"`
	RedirectURLs RedirectURLs  `json:"redirect_urls"`
	Transactions []Transaction `json:"transactions"`
}

type Payer struct {
	PaymentMethod string `json:"payment_method"`
}

type RedirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type Transaction struct {
	ItemList    *ItemList `json:"item_list,omitempty"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description,omitempty"`
}

type ItemList struct {
	Items []Item `json:"items"`
}

type Item struct {
	Name     string `json:"name"`
	SKU      string `json:"sku,omitempty"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type Amount struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

type ExecuteRequest struct {
	PayerID      string        `json:"payer_id"`
	Transactions []Transaction `json:"transactions"`
}
