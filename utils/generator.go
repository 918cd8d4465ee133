package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCompletionPin returns a 6-digit PIN, zero-padded. The PIN is a shared
// secret between the platform and the tourist, so it comes from crypto/rand.
func GenerateCompletionPin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
