// Package vault seals exchange API credentials with AES-GCM.
//
// Stored blobs are a small JSON envelope:
//
//	{"enc":"aes-gcm-v1","nonce":"<base64>","data":"<base64>"}
//
// The additional authenticated data binds a blob to its (client, exchange)
// so a ciphertext copied onto another row fails to open. A previous key may
// be configured while rotating; it is only ever used to open.
package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

const envelopeVersion = "aes-gcm-v1"

type envelope struct {
	Enc   string `json:"enc"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"`
}

// SecretMaterial is decrypted credential material. It lives in memory only.
type SecretMaterial struct {
	APIKey     string `json:"api_key" validate:"required"`
	APISecret  string `json:"api_secret" validate:"required"`
	Passphrase string `json:"passphrase,omitempty"`
}

// String redacts the material so it cannot leak through %v or loggers.
func (SecretMaterial) String() string {
	return "[REDACTED]"
}

// GoString redacts the material for %#v.
func (SecretMaterial) GoString() string {
	return "vault.SecretMaterial{[REDACTED]}"
}

// Validate checks the required fields are present.
func (m SecretMaterial) Validate() error {
	validate := validator.New()
	if err := validate.Struct(m); err != nil {
		return errors.New(errors.ErrCodeInvalidParameter, "api_key and api_secret are required")
	}

	return nil
}

type Vault struct {
	repo    repository.CredentialRepository
	primary cipher.AEAD
	// openers holds primary first, then the previous key if configured.
	openers []cipher.AEAD
	now     func() time.Time
}

// New builds a vault. An empty or unusable primary key is an error: the
// engine must not run without encryption.
func New(repo repository.CredentialRepository, primaryKey, prevKey string) (*Vault, error) {
	primaryBytes, err := ParseKey(primaryKey)
	if err != nil {
		return nil, err
	}

	primary, err := newGCM(primaryBytes)
	if err != nil {
		return nil, err
	}

	openers := []cipher.AEAD{primary}
	if strings.TrimSpace(prevKey) != "" && strings.TrimSpace(prevKey) != strings.TrimSpace(primaryKey) {
		prevBytes, err := ParseKey(prevKey)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid previous encryption key", err)
		}

		prev, err := newGCM(prevBytes)
		if err != nil {
			return nil, err
		}

		openers = append(openers, prev)
	}

	return &Vault{
		repo:    repo,
		primary: primary,
		openers: openers,
		now:     time.Now,
	}, nil
}

// ParseKey accepts a base64 key, falling back to the raw bytes, and
// normalizes it to an AES key size. Keys shorter than 16 bytes are rejected.
func ParseKey(k string) ([]byte, error) {
	k = strings.TrimSpace(k)
	if k == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "encryption key is not configured")
	}

	keyBytes, err := base64.StdEncoding.DecodeString(k)
	if err != nil {
		keyBytes = []byte(k)
	}

	switch n := len(keyBytes); {
	case n == 16, n == 24, n == 32:
		return keyBytes, nil
	case n < 16:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "encryption key too short: %d bytes, need at least 16", n)
	case n < 24:
		return keyBytes[:16], nil
	case n < 32:
		return keyBytes[:24], nil
	default:
		return keyBytes[:32], nil
	}
}

func newGCM(keyBytes []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to init cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to init gcm", err)
	}

	return gcm, nil
}

func additionalData(clientID, exchange string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(clientID)) + "|" + strings.ToLower(strings.TrimSpace(exchange)))
}

// Seal encrypts material for (clientID, exchange) under the primary key.
func (v *Vault) Seal(clientID, exchange string, material SecretMaterial) ([]byte, error) {
	if err := material.Validate(); err != nil {
		return nil, err
	}

	plain, err := json.Marshal(material)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to encode credential", err)
	}

	return v.seal(clientID, exchange, plain)
}

func (v *Vault) seal(clientID, exchange string, plain []byte) ([]byte, error) {
	nonce := make([]byte, v.primary.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to generate nonce", err)
	}

	ct := v.primary.Seal(nil, nonce, plain, additionalData(clientID, exchange))

	out, err := json.Marshal(envelope{
		Enc:   envelopeVersion,
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(ct),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to encode envelope", err)
	}

	return out, nil
}

// Open decrypts a blob produced by Seal. Any failure under every configured
// key is reported as ErrCodeCredentialCorrupt.
func (v *Vault) Open(clientID, exchange string, blob []byte) (SecretMaterial, error) {
	plain, err := v.open(clientID, exchange, blob)
	if err != nil {
		return SecretMaterial{}, err
	}

	var material SecretMaterial
	if err := json.Unmarshal(plain, &material); err != nil {
		return SecretMaterial{}, errors.New(errors.ErrCodeCredentialCorrupt, "credential payload is not valid json")
	}

	if err := material.Validate(); err != nil {
		return SecretMaterial{}, errors.New(errors.ErrCodeCredentialCorrupt, "credential payload is incomplete")
	}

	return material, nil
}

func (v *Vault) open(clientID, exchange string, blob []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, errors.New(errors.ErrCodeCredentialCorrupt, "credential envelope is malformed")
	}

	if env.Enc != envelopeVersion || env.Nonce == "" || env.Data == "" {
		return nil, errors.Newf(errors.ErrCodeCredentialCorrupt, "unsupported credential envelope %q", env.Enc)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, errors.New(errors.ErrCodeCredentialCorrupt, "credential nonce is not base64")
	}

	ct, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, errors.New(errors.ErrCodeCredentialCorrupt, "credential data is not base64")
	}

	aad := additionalData(clientID, exchange)
	for _, gcm := range v.openers {
		if len(nonce) != gcm.NonceSize() {
			continue
		}

		plain, err := gcm.Open(nil, nonce, ct, aad)
		if err == nil {
			return plain, nil
		}
	}

	return nil, errors.New(errors.ErrCodeCredentialCorrupt, "credential cannot be decrypted with the configured keys")
}

// Store seals material and persists it, replacing any previous credential
// for the same (client, exchange). The ciphertext envelope is returned.
func (v *Vault) Store(ctx context.Context, clientID, exchange string, material SecretMaterial) ([]byte, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(exchange) == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "client id and exchange are required")
	}

	blob, err := v.Seal(clientID, exchange, material)
	if err != nil {
		return nil, err
	}

	item := &models.ExchangeCredential{
		ClientID:   clientID,
		Exchange:   exchange,
		Ciphertext: blob,
	}
	if err := v.repo.UpsertCredential(ctx, item); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to persist credential", err)
	}

	return blob, nil
}

// Retrieve loads and decrypts the credential for (clientID, exchange).
func (v *Vault) Retrieve(ctx context.Context, clientID, exchange string) (SecretMaterial, error) {
	item, err := v.repo.GetCredential(ctx, clientID, exchange)
	if err != nil {
		return SecretMaterial{}, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load credential", err)
	}

	if item == nil {
		return SecretMaterial{}, errors.Newf(errors.ErrCodeCredentialNotFound,
			"no credential for client %s on %s", clientID, exchange)
	}

	return v.Open(clientID, exchange, item.Ciphertext)
}

// Rotate re-encrypts a stored credential under the primary key.
func (v *Vault) Rotate(ctx context.Context, clientID, exchange string) error {
	item, err := v.repo.GetCredential(ctx, clientID, exchange)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to load credential", err)
	}

	if item == nil {
		return errors.Newf(errors.ErrCodeCredentialNotFound, "no credential for client %s on %s", clientID, exchange)
	}

	plain, err := v.open(clientID, exchange, item.Ciphertext)
	if err != nil {
		return err
	}

	blob, err := v.seal(clientID, exchange, plain)
	if err != nil {
		return err
	}

	rotatedAt := v.now().UTC()
	item.Ciphertext = blob
	item.RotatedAt = &rotatedAt

	if err := v.repo.UpsertCredential(ctx, item); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to persist rotated credential", err)
	}

	return nil
}
