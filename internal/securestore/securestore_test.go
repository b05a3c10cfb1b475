package securestore

import (
	"bytes"
	"testing"
	"time"

	"scholartrack/internal/models"
)

func testCipher(t *testing.T) *RemarkCipher {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	cipher, err := NewWithStaticKey(key)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	return cipher
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipher := testCipher(t)

	ciphertext, nonce, err := cipher.Encrypt(7, models.RemarkVerifierComment, "transcript matches enrollment records")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	plaintext, err := cipher.Decrypt(7, models.RemarkVerifierComment, ciphertext, nonce)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if plaintext != "transcript matches enrollment records" {
		t.Errorf("unexpected plaintext: %s", plaintext)
	}
}

func TestDecryptRejectsWrongApplication(t *testing.T) {
	cipher := testCipher(t)

	ciphertext, nonce, err := cipher.Encrypt(7, models.RemarkAdminRemark, "override granted")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// The AAD binds the ciphertext to application 7; application 8 must not
	// be able to open it.
	if _, err := cipher.Decrypt(8, models.RemarkAdminRemark, ciphertext, nonce); err == nil {
		t.Error("expected decryption to fail for a different application")
	}
}

func TestNewWithStaticKeyRejectsShortKey(t *testing.T) {
	if _, err := NewWithStaticKey([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func buildTrail(t *testing.T, cipher *RemarkCipher, appID uint, texts []string) []models.ApplicationRemark {
	t.Helper()
	var remarks []models.ApplicationRemark
	prev := ""
	for i, text := range texts {
		ciphertext, nonce, err := cipher.Encrypt(appID, models.RemarkVerifierComment, text)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		createdAt := time.Date(2026, 1, 1, 12, i, 0, 0, time.UTC)
		remark := models.ApplicationRemark{
			ID:            uint(i + 1),
			ApplicationID: appID,
			AuthorID:      3,
			Kind:          models.RemarkVerifierComment,
			Ciphertext:    ciphertext,
			Nonce:         nonce,
			KeyVersion:    cipher.KeyVersion(),
			PrevChainHash: prev,
			ChainHash:     ChainHash(prev, appID, 3, models.RemarkVerifierComment, ciphertext, createdAt),
			CreatedAt:     createdAt,
		}
		prev = remark.ChainHash
		remarks = append(remarks, remark)
	}
	return remarks
}

func TestValidateChain(t *testing.T) {
	cipher := testCipher(t)
	trail := buildTrail(t, cipher, 5, []string{"first", "second", "third"})

	if err := ValidateChain(trail); err != nil {
		t.Errorf("valid chain rejected: %v", err)
	}
}

func TestValidateChainDetectsTampering(t *testing.T) {
	cipher := testCipher(t)
	trail := buildTrail(t, cipher, 5, []string{"first", "second"})

	// Replace the first entry's ciphertext.
	tampered, _, err := cipher.Encrypt(5, models.RemarkVerifierComment, "altered")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	trail[0].Ciphertext = tampered

	if err := ValidateChain(trail); err == nil {
		t.Error("expected tampered chain to be rejected")
	}
}

func TestValidateChainEmptyTrail(t *testing.T) {
	if err := ValidateChain(nil); err != nil {
		t.Errorf("empty trail should validate: %v", err)
	}
}
