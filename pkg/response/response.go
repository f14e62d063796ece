package response

// APIResponseCode is the business code carried by admin API envelopes.
type APIResponseCode int

const (
	APIResponseCodeOK         APIResponseCode = 0
	APIResponseCodeBadRequest APIResponseCode = 40000
	APIResponseCodeNotFound   APIResponseCode = 40400
	APIResponseCodeError      APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:         "ok",
	APIResponseCodeBadRequest: "bad request",
	APIResponseCodeNotFound:   "not found",
	APIResponseCodeError:      "unexpected error",
}

// APIResponse is the generic response envelope used by admin APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// WebhookAck is the body returned to the payment processor. The HTTP status is
// always 200, the outcome lives in the body.
type WebhookAck struct {
	Success bool   `json:"success,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AckProcessed acknowledges a notification that updated orderID.
func AckProcessed(orderID string) WebhookAck {
	return WebhookAck{Success: true, OrderID: orderID}
}

// AckIgnored acknowledges a notification that required no work.
func AckIgnored(msg string) WebhookAck {
	return WebhookAck{Success: true, Message: msg}
}

// AckError reports a failure to the processor without asking for a retry.
func AckError(msg string) WebhookAck {
	return WebhookAck{Error: msg}
}
