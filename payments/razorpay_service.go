package payments

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/wanderpal/tour_guide/configs"
)

// ErrPaymentSignature means the gateway callback signature did not verify.
// Payment must not be treated as authoritative and no booking may be created.
var ErrPaymentSignature = errors.New("payment signature verification failed")

const razorpayBaseURL = "https://api.razorpay.com/v1"

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder registers an order with the gateway before the frontend opens
// the checkout. Amount is in major units; the gateway wants minor units.
func CreateOrder(amount float64, currency, receipt string) (*RazorpayOrder, error) {
	keyID := config.Config("RAZORPAY_KEY_ID")
	keySecret := config.Config("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay credentials are not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"amount":   int64(amount * 100),
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", razorpayBaseURL+"/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(keyID, keySecret)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay order creation failed: %s", string(respBytes))
	}

	var order RazorpayOrder
	if err := json.Unmarshal(respBytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPaymentSignature checks the callback signature:
// hex(HMAC_SHA256(secret, orderId + "|" + paymentId)).
func VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	secret := config.Config("RAZORPAY_KEY_SECRET")
	return VerifySignatureWithSecret(orderID, paymentID, signature, secret)
}

// VerifySignatureWithSecret is the secret-parameterized form used directly in
// tests.
func VerifySignatureWithSecret(orderID, paymentID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
