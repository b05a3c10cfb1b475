package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"
)

const opTimeout = 10 * time.Second

// Client wraps the HashiCorp Vault API for the transit and KV engines
type Client struct {
	client       *api.Client
	transitMount string
}

// Config holds Vault configuration
type Config struct {
	Address      string
	Token        string
	TransitMount string
}

// NewClient creates a new Vault client and ensures the transit engine is
// mounted.
func NewClient(cfg *Config) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	c := &Client{client: client, transitMount: cfg.TransitMount}
	if err := c.mountTransit(); err != nil {
		return nil, fmt.Errorf("failed to initialize transit engine: %w", err)
	}
	return c, nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// write issues a logical write and returns the response data.
func (c *Client) write(path string, body map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := opContext()
	defer cancel()

	secret, err := c.client.Logical().WriteWithContext(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}
	return secret.Data, nil
}

func (c *Client) mountTransit() error {
	ctx, cancel := opContext()
	defer cancel()

	mounts, err := c.client.Sys().ListMountsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mounts: %w", err)
	}
	if _, mounted := mounts[c.transitMount+"/"]; mounted {
		return nil
	}

	input := &api.MountInput{
		Type:        "transit",
		Description: "Transit encryption for scholarship application remarks",
	}
	if err := c.client.Sys().MountWithContext(ctx, c.transitMount, input); err != nil {
		return fmt.Errorf("failed to mount transit engine: %w", err)
	}
	return nil
}

// EnsureKey creates the named transit key if it does not exist
func (c *Client) EnsureKey(keyName string) error {
	_, err := c.write(c.transitMount+"/keys/"+keyName, map[string]interface{}{
		"type":       "aes256-gcm96",
		"exportable": false,
	})
	if err != nil {
		return fmt.Errorf("failed to create key %s: %w", keyName, err)
	}
	return nil
}

// GenerateDataKey asks transit for a fresh data encryption key, returning
// the plaintext key and its wrapped form.
func (c *Client) GenerateDataKey(keyName string) (plaintext []byte, wrapped string, err error) {
	data, err := c.write(c.transitMount+"/datakey/plaintext/"+keyName, map[string]interface{}{
		"bits": 256,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate data key: %w", err)
	}

	plaintextB64, ok := data["plaintext"].(string)
	if !ok {
		return nil, "", fmt.Errorf("invalid plaintext in data key response")
	}
	plaintext, err = base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data key: %w", err)
	}

	wrapped, ok = data["ciphertext"].(string)
	if !ok {
		return nil, "", fmt.Errorf("invalid ciphertext in data key response")
	}
	return plaintext, wrapped, nil
}

// UnwrapDataKey decrypts a wrapped data encryption key through transit
func (c *Client) UnwrapDataKey(keyName, wrapped string) ([]byte, error) {
	data, err := c.write(c.transitMount+"/decrypt/"+keyName, map[string]interface{}{
		"ciphertext": wrapped,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key: %w", err)
	}

	plaintextB64, ok := data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid plaintext in unwrap response")
	}
	return base64.StdEncoding.DecodeString(plaintextB64)
}

// StoreSecret stores a secret in the KV engine
func (c *Client) StoreSecret(path string, data map[string]interface{}) error {
	_, err := c.write("secret/data/"+path, map[string]interface{}{"data": data})
	if err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

// GetSecret retrieves a secret from the KV engine, or nil when missing
func (c *Client) GetSecret(path string) (map[string]interface{}, error) {
	ctx, cancel := opContext()
	defer cancel()

	secret, err := c.client.Logical().ReadWithContext(ctx, "secret/data/"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret data format")
	}
	return data, nil
}

// Health fails when Vault is unreachable, uninitialized or sealed.
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

// EncryptLocal performs AES-256-GCM encryption with the given key
func EncryptLocal(plaintext, key, additionalData []byte) (ciphertext []byte, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce generation failed: %w", err)
	}
	return gcm.Seal(nil, nonce, plaintext, additionalData), nonce, nil
}

// DecryptLocal performs AES-256-GCM decryption with the given key
func DecryptLocal(ciphertext, key, nonce, additionalData []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}
	return gcm, nil
}
