package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	ReferralCodeLength   = 8
	ReferralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	referralCodeAttempts = 5
)

// GenerateReferralCode returns 8 random characters of A-Z0-9
func GenerateReferralCode() (string, error) {
	max := big.NewInt(int64(len(ReferralCodeAlphabet)))
	code := make([]byte, ReferralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		code[i] = ReferralCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
