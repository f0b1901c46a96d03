// Package paypal is a thin client over the provider's REST payment API:
// OAuth2 client-credentials tokens plus the create and execute calls. The
// provider owns all payment state; this client never caches anything but
// the access token.
package paypal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/bnookala/paymentbot/pkg/models"
)

const (
	sandboxBase = "https://api.sandbox.paypal.com"
	liveBase    = "https://api.paypal.com"

	relApprovalURL = "approval_url"
)

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// Payment is the provider's view of a payment, as returned by both the
// create and execute calls.
type Payment struct {
	ID           string               `json:"id"`
	Intent       string               `json:"intent"`
	State        string               `json:"state"`
	Transactions []models.Transaction `json:"transactions"`
	Links        []Link               `json:"links"`
}

// ApprovalURL returns the link the user must visit to authorize the
// payment. A create response without one is unusable.
func (p *Payment) ApprovalURL() (string, bool) {
	for _, link := range p.Links {
		if link.Rel == relApprovalURL {
			return link.Href, true
		}
	}
	return "", false
}

// APIError is a non-2xx answer from the provider. Provider answers are
// terminal; callers do not retry.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type Client struct {
	base       string
	clientID   string
	secret     string
	httpClient *http.Client
	log        *log.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(mode, clientID, secret string, logger *log.Logger) *Client {
	base := sandboxBase
	if mode == "live" {
		base = liveBase
	}

	return &Client{
		base:     base,
		clientID: clientID,
		secret:   secret,
		log:      logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

func (c *Client) CreatePayment(ctx context.Context, req models.CreateRequest) (*Payment, error) {
	return c.post(ctx, "create", "/v1/payments/payment", req)
}

func (c *Client) ExecutePayment(ctx context.Context, paymentID string, req models.ExecuteRequest) (*Payment, error) {
	path := "/v1/payments/payment/" + url.PathEscape(paymentID) + "/execute"
	return c.post(ctx, "execute", path, req)
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (*Payment, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var p Payment
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", op, err)
	}
	return &p, nil
}

// accessToken returns a cached token or fetches a fresh one. Tokens are
// refreshed a minute before the provider expires them.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/oauth2/token", form)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{Op: "token", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return "", err
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	c.log.Printf("Obtained provider access token, valid for %ds", tok.ExpiresIn)
	return c.token, nil
}
