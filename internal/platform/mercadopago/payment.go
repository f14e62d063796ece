package mercadopago

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Payment statuses reported by the payments API.
const (
	StatusApproved    = "approved"
	StatusPending     = "pending"
	StatusInProcess   = "in_process"
	StatusInMediation = "in_mediation"
	StatusRejected    = "rejected"
	StatusCancelled   = "cancelled"
	StatusRefunded    = "refunded"
	StatusChargedBack = "charged_back"
)

// Payment is the subset of GET /v1/payments/{id} this service reads.
type Payment struct {
	ID                json.Number `json:"id,omitempty"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference,omitempty"`
	TransactionAmount float64     `json:"transaction_amount,omitempty"`
	CurrencyID        string      `json:"currency_id,omitempty"`
	PaymentMethodID   string      `json:"payment_method_id,omitempty"`
	PaymentTypeID     string      `json:"payment_type_id,omitempty"`
	LiveMode          bool        `json:"live_mode,omitempty"`
	DateApproved      *time.Time  `json:"date_approved,omitempty"`
	DateLastUpdated   *time.Time  `json:"date_last_updated,omitempty"`
	// Message carries the error text of non-2xx bodies.
	Message string `json:"message,omitempty"`
}

var errMissingStatus = errors.New("payment has no status")

func (p *Payment) validate() error {
	if strings.TrimSpace(p.Status) == "" {
		return errMissingStatus
	}
	return nil
}

// FetchResult is the outcome of a status lookup. OK results carry a validated Payment;
// failures carry the last HTTP status and whatever body the processor returned.
type FetchResult struct {
	OK       bool
	Status   int
	Payment  *Payment
	Raw      json.RawMessage
	Attempts int
}

// NotFoundAfterRetries is the failure returned when every attempt answered 404.
func NotFoundAfterRetries(attempts int) *FetchResult {
	return &FetchResult{
		Status:   404,
		Payment:  &Payment{Message: "Payment not found after retries"},
		Raw:      json.RawMessage(`{"message":"Payment not found after retries"}`),
		Attempts: attempts,
	}
}

func (r *FetchResult) String() string {
	if r.OK {
		return fmt.Sprintf("ok status=%s", r.Payment.Status)
	}
	msg := ""
	if r.Payment != nil {
		msg = r.Payment.Message
	}
	return fmt.Sprintf("failed http=%d message=%q", r.Status, msg)
}

func decodePayment(body []byte) *Payment {
	var p Payment
	if len(body) == 0 {
		return &p
	}
	if err := json.Unmarshal(body, &p); err != nil {
		p.Message = string(body)
	}
	return &p
}

func rawJSON(body []byte) json.RawMessage {
	if !json.Valid(body) {
		return nil
	}
	return json.RawMessage(body)
}
