// Package correlate round-trips a conversation's identity through the
// payment provider's approval redirect. The callback that fires after the
// user approves a payment is a bare GET with no session, so the return URL
// itself is the only place the originating conversation can be stored.
package correlate

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/bnookala/paymentbot/pkg/models"
)

// Query parameter names carried on the approval return URL.
const (
	ParamAddressID      = "addressId"
	ParamConversationID = "conversationId"
	ParamUserID         = "userId"
	ParamChannelID      = "channelId"
	ParamServiceURL     = "botServiceUrl"
)

var (
	ErrMissingField      = errors.New("missing correlation field")
	ErrMalformedEncoding = errors.New("malformed correlation encoding")
)

// DecodeError reports which callback parameter made the correlation token
// unusable. Matches ErrMissingField or ErrMalformedEncoding via errors.Is.
type DecodeError struct {
	Field string
	err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("correlation parameter %q: %v", e.Field, e.err)
}

func (e *DecodeError) Unwrap() error { return e.err }

// Encode flattens an address into the query fragment of a return URL. The
// service URL contains a scheme and may contain its own query string, so it
// gets an extra escape pass here; the outer url.Values encoding adds the
// second layer, and the value survives the outer URL as one opaque
// parameter.
func Encode(addr models.ConversationAddress, addressID string) url.Values {
	values := url.Values{}
	values.Set(ParamAddressID, addressID)
	values.Set(ParamConversationID, addr.ConversationID)
	values.Set(ParamUserID, addr.UserID)
	values.Set(ParamChannelID, addr.ChannelID)
	values.Set(ParamServiceURL, url.QueryEscape(addr.ServiceURL))
	return values
}

// BuildReturnURL composes the full callback URL the user's browser is
// redirected back to after approving the payment.
func BuildReturnURL(host string, port int, path string, addr models.ConversationAddress, addressID string) string {
	return fmt.Sprintf("http://%s:%d%s?%s", host, port, path, Encode(addr, addressID).Encode())
}

// Decode reverses Encode over callback query parameters that have already
// been through one decoding pass by the HTTP layer. It returns either a
// fully populated address or a DecodeError, never a partial address. An
// absent or empty identity field counts as missing.
func Decode(params map[string]string) (models.ConversationAddress, string, error) {
	for _, field := range []string{ParamConversationID, ParamUserID, ParamChannelID, ParamServiceURL} {
		if params[field] == "" {
			return models.ConversationAddress{}, "", &DecodeError{Field: field, err: ErrMissingField}
		}
	}

	serviceURL, err := url.QueryUnescape(params[ParamServiceURL])
	if err != nil {
		return models.ConversationAddress{}, "", &DecodeError{Field: ParamServiceURL, err: ErrMalformedEncoding}
	}

	addr := models.ConversationAddress{
		ChannelID:      params[ParamChannelID],
		UserID:         params[ParamUserID],
		ConversationID: params[ParamConversationID],
		ServiceURL:     serviceURL,
	}
	return addr, params[ParamAddressID], nil
}
