package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignatureHeader is the HTTP header carrying timestamp and signature so
// receivers can enforce freshness and reject replays.
const SignatureHeader = "X-Fuelpass-Signature"

// Sign computes the hex HMAC-SHA256 of "{unixTimestamp}.{body}" under the
// merchant's webhook secret.
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HeaderValue renders the signature header: "t=<unix>,v1=<hex>".
func HeaderValue(secret string, timestamp int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, Sign(secret, timestamp, body))
}

// VerifySignature checks a received header value against the body, for
// merchants testing their endpoints against the sandbox.
func VerifySignature(secret, headerValue string, body []byte) bool {
	var timestamp int64
	var sig string
	if _, err := fmt.Sscanf(headerValue, "t=%d,v1=%s", &timestamp, &sig); err != nil {
		return false
	}
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(sig))
}
