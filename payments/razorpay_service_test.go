package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureWithSecret(t *testing.T) {
	secret := "test_secret"
	orderID := "order_abc123"
	paymentID := "pay_xyz789"
	signature := sign(orderID, paymentID, secret)

	if !VerifySignatureWithSecret(orderID, paymentID, signature, secret) {
		t.Error("valid signature should verify")
	}
	if VerifySignatureWithSecret(orderID, paymentID, signature, "other_secret") {
		t.Error("signature from a different secret must not verify")
	}
	if VerifySignatureWithSecret("order_tampered", paymentID, signature, secret) {
		t.Error("tampered order id must not verify")
	}
	if VerifySignatureWithSecret(orderID, "pay_tampered", signature, secret) {
		t.Error("tampered payment id must not verify")
	}
}

func TestVerifySignatureRejectsEmptyInputs(t *testing.T) {
	if VerifySignatureWithSecret("order", "pay", "", "secret") {
		t.Error("empty signature must not verify")
	}
	if VerifySignatureWithSecret("order", "pay", sign("order", "pay", ""), "") {
		t.Error("empty secret must not verify")
	}
}
