package notification_handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NotificationTypePayment is the only notification type that triggers reconciliation.
const NotificationTypePayment = "payment"

var ErrInvalidBody = errors.New("invalid notification body")

// Notification is an inbound Mercado Pago webhook notification.
type Notification struct {
	Type     string `json:"type"`
	Action   string `json:"action,omitempty"`
	LiveMode bool   `json:"live_mode"`
	// DataID is the processor payment id for payment notifications.
	DataID string `json:"data_id"`
}

func (n *Notification) IsPayment() bool {
	return n.Type == NotificationTypePayment
}

type notificationBody struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Action   string `json:"action"`
	LiveMode bool   `json:"live_mode"`
	Data     struct {
		ID flexibleID `json:"id"`
	} `json:"data"`
}

// flexibleID accepts both "123" and 123.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("data.id must be a string or a number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// ParseNotification reads the JSON body, falling back to the legacy query parameters
// (type/topic, data.id/id) Mercado Pago also sends.
func ParseNotification(body []byte, query url.Values) (*Notification, error) {
	var b notificationBody
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
		}
	}
	n := &Notification{
		Type:     firstNonEmpty(b.Type, b.Topic, query.Get("type"), query.Get("topic")),
		Action:   b.Action,
		LiveMode: b.LiveMode,
		DataID:   firstNonEmpty(string(b.Data.ID), query.Get("data.id"), query.Get("id")),
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
