// Package securestore encrypts application remark text at rest and links the
// entries of each application's remark trail into a hash chain, so the trail
// is tamper-evident as well as append-only.
package securestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"scholartrack/internal/models"
	"scholartrack/internal/vault"
)

const dekSecretPath = "scholartrack/remark-dek"

// RemarkCipher encrypts and decrypts remark text with a data encryption key
// held in memory. The key is wrapped by a Vault transit key; without Vault
// (development, tests) a static 32-byte key is used instead.
type RemarkCipher struct {
	key        []byte
	keyVersion int
}

// NewWithVault obtains the data encryption key through Vault: the wrapped
// key lives in the KV engine and is unwrapped by transit on startup. On
// first run a fresh key is generated and its wrapped form stored.
func NewWithVault(client *vault.Client, keyName string) (*RemarkCipher, error) {
	if err := client.EnsureKey(keyName); err != nil {
		return nil, err
	}

	secret, err := client.GetSecret(dekSecretPath)
	if err != nil {
		return nil, err
	}

	if secret != nil {
		wrapped, ok := secret["wrapped_dek"].(string)
		if !ok {
			return nil, fmt.Errorf("stored remark DEK has invalid format")
		}
		key, err := client.UnwrapDataKey(keyName, wrapped)
		if err != nil {
			return nil, err
		}
		return &RemarkCipher{key: key, keyVersion: 1}, nil
	}

	key, wrapped, err := client.GenerateDataKey(keyName)
	if err != nil {
		return nil, err
	}
	err = client.StoreSecret(dekSecretPath, map[string]interface{}{
		"wrapped_dek": wrapped,
	})
	if err != nil {
		return nil, err
	}
	return &RemarkCipher{key: key, keyVersion: 1}, nil
}

// NewWithStaticKey builds a cipher around a caller-provided 32-byte key
func NewWithStaticKey(key []byte) (*RemarkCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("static remark key must be 32 bytes, got %d", len(key))
	}
	return &RemarkCipher{key: key, keyVersion: 1}, nil
}

// KeyVersion returns the version of the active data encryption key
func (c *RemarkCipher) KeyVersion() int {
	return c.keyVersion
}

// Encrypt seals remark text. The application id and remark kind are bound
// into the ciphertext as additional authenticated data, so a remark cannot
// be replayed onto another application.
func (c *RemarkCipher) Encrypt(applicationID uint, kind, plaintext string) (ciphertext, nonce []byte, err error) {
	return vault.EncryptLocal([]byte(plaintext), c.key, aad(applicationID, kind))
}

// Decrypt opens a sealed remark
func (c *RemarkCipher) Decrypt(applicationID uint, kind string, ciphertext, nonce []byte) (string, error) {
	plaintext, err := vault.DecryptLocal(ciphertext, c.key, nonce, aad(applicationID, kind))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func aad(applicationID uint, kind string) []byte {
	return []byte(fmt.Sprintf("application:%d:kind:%s", applicationID, kind))
}

// ChainHash computes the hash linking a remark to its predecessor. The
// first entry of a trail uses an empty previous hash.
func ChainHash(prevHash string, applicationID, authorID uint, kind string, ciphertext []byte, createdAt time.Time) string {
	input := fmt.Sprintf("%s:%d:%d:%s:%s:%d",
		prevHash,
		applicationID,
		authorID,
		kind,
		hex.EncodeToString(ciphertext),
		createdAt.UTC().Unix(),
	)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// ValidateChain recomputes the hash chain of a trail and reports the first
// broken link, if any. Remarks must be in insertion order.
func ValidateChain(remarks []models.ApplicationRemark) error {
	prev := ""
	for i, remark := range remarks {
		if remark.PrevChainHash != prev {
			return fmt.Errorf("remark %d of application %d: broken chain link at position %d", remark.ID, remark.ApplicationID, i)
		}
		expected := ChainHash(prev, remark.ApplicationID, remark.AuthorID, remark.Kind, remark.Ciphertext, remark.CreatedAt)
		if remark.ChainHash != expected {
			return fmt.Errorf("remark %d of application %d: chain hash mismatch at position %d", remark.ID, remark.ApplicationID, i)
		}
		prev = remark.ChainHash
	}
	return nil
}
