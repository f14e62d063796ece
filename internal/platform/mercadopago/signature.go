package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderSignature = "X-Signature"
	HeaderRequestID = "X-Request-Id"

	// SignatureMaxAge bounds how old a signed notification may be.
	SignatureMaxAge = 300 * time.Second
)

// SignatureError is returned by VerifyNotification. Code is stable and safe to
// return to the caller.
type SignatureError struct {
	Code   string
	Detail string
}

func (e *SignatureError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

const (
	CodeMissingSignatureHeaders = "MISSING_SIGNATURE_HEADERS"
	CodeInvalidSignatureFormat  = "INVALID_SIGNATURE_FORMAT"
	CodeWebhookExpired          = "WEBHOOK_EXPIRED"
	CodeSignatureMismatch       = "SIGNATURE_MISMATCH"
)

// NotificationManifest is the string Mercado Pago signs for a notification.
func NotificationManifest(dataID, requestID, ts string) string {
	return fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
}

// SignNotification computes the v1 value for a manifest. Used by tests and local tooling.
func SignNotification(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(NotificationManifest(dataID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyNotification validates the x-signature header ("ts=<unix>,v1=<hex>") of an
// inbound notification for dataID.
func VerifyNotification(secret, signatureHeader, requestID, dataID string, now time.Time) error {
	if signatureHeader == "" || requestID == "" {
		return &SignatureError{Code: CodeMissingSignatureHeaders}
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return &SignatureError{Code: CodeInvalidSignatureFormat, Detail: "ts and v1 are required"}
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return &SignatureError{Code: CodeInvalidSignatureFormat, Detail: "ts is not a unix timestamp"}
	}
	if age := now.Sub(time.Unix(sec, 0)); age > SignatureMaxAge {
		return &SignatureError{Code: CodeWebhookExpired, Detail: fmt.Sprintf("age %s", age.Truncate(time.Second))}
	}

	expected := SignNotification(secret, dataID, requestID, ts)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return &SignatureError{Code: CodeSignatureMismatch}
	}
	return nil
}
