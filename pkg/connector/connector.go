// Package connector is the boundary to the messaging channel: the inbound
// activity shape posted to /api/messages, and the outbound send call that
// delivers a message back into a conversation via the channel's service
// URL.
package connector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/bnookala/paymentbot/pkg/models"
)

const ActivityTypeMessage = "message"

type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ConversationAccount struct {
	ID string `json:"id"`
}

// Activity is the channel's wire format for a single message event.
type Activity struct {
	Type         string              `json:"type"`
	Text         string              `json:"text,omitempty"`
	ChannelID    string              `json:"channelId"`
	ServiceURL   string              `json:"serviceUrl"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient,omitempty"`
	Conversation ConversationAccount `json:"conversation"`
}

// AddressOf derives the conversation address an inbound activity was sent
// from. The address is owned by the channel and read-only here.
func AddressOf(a Activity) models.ConversationAddress {
	return models.ConversationAddress{
		ChannelID:      a.ChannelID,
		UserID:         a.From.ID,
		ConversationID: a.Conversation.ID,
		ServiceURL:     a.ServiceURL,
	}
}

// Client sends messages into conversations through the channel's REST
// surface.
type Client struct {
	appID       string
	appPassword string
	httpClient  *fasthttp.Client
	log         *log.Logger
}

func NewClient(appID, appPassword string, logger *log.Logger) *Client {
	return &Client{
		appID:       appID,
		appPassword: appPassword,
		log:         logger,
		httpClient: &fasthttp.Client{
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 30 * time.Second,
			ReadTimeout:         2 * time.Second,
			WriteTimeout:        2 * time.Second,
		},
	}
}

// Send posts a message activity to the conversation identified by addr.
func (c *Client) Send(ctx context.Context, addr models.ConversationAddress, text string) error {
	activity := Activity{
		Type:         ActivityTypeMessage,
		Text:         text,
		ChannelID:    addr.ChannelID,
		ServiceURL:   addr.ServiceURL,
		From:         ChannelAccount{ID: c.appID},
		Recipient:    ChannelAccount{ID: addr.UserID},
		Conversation: ConversationAccount{ID: addr.ConversationID},
	}

	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	uri := strings.TrimRight(addr.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(addr.ConversationID) + "/activities"

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(http.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetRequestURI(uri)
	req.SetBody(payload)

	if err := c.httpClient.DoTimeout(req, resp, 2*time.Second); err != nil {
		return fmt.Errorf("failed to send activity to %s: %w", uri, err)
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("channel returned status %d for conversation %s", statusCode, addr.ConversationID)
	}

	c.log.Printf("Sent message to conversation %s on channel %s", addr.ConversationID, addr.ChannelID)
	return nil
}
