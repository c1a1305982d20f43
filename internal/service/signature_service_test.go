package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignFormat(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)

	signature := svc.Sign("my-secret", payload)

	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, signature)
}

func TestHMACSignatureService_SignMatchesRecomputation(t *testing.T) {
	svc := NewHMACSignatureService()
	secret := "whsec_0123456789abcdef"
	payload := []byte(`{"amount":100}`)

	signature := svc.Sign(secret, payload)

	// A receiver recomputing HMAC-SHA256 over the exact body bytes must get
	// the same digest.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, expected, signature)
}

func TestHMACSignatureService_Verify(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := []byte("payload bytes")

	signature := svc.Sign("correct-key", payload)

	assert.True(t, svc.Verify("correct-key", payload, signature))
	assert.False(t, svc.Verify("wrong-key", payload, signature))
	assert.False(t, svc.Verify("correct-key", []byte("tampered"), signature))
	assert.False(t, svc.Verify("correct-key", payload, "sha256=deadbeef"))
}

func TestHMACSignatureService_Deterministic(t *testing.T) {
	svc := NewHMACSignatureService()

	sig1 := svc.Sign("key", []byte("data"))
	sig2 := svc.Sign("key", []byte("data"))

	assert.Equal(t, sig1, sig2)
}
