package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/moodlist/internal/shared"
	"golang.org/x/crypto/hkdf"
)

// gcmNonceSize is the standard 96-bit GCM nonce length.
const gcmNonceSize = 12

// segmentDelimiter joins the three token segments; "." is outside the base64url alphabet.
const segmentDelimiter = "."

// hkdfInfo binds derived keys to their purpose.
const hkdfInfo = "moodlist spotify session"

// Codec seals and unseals [Session] values with AES-256-GCM.
//
// The key is derived once from the configured secret; the codec is stateless
// afterwards and safe for concurrent use.
type Codec struct {
	key []byte
}

// NewCodec derives a 32-byte key from secret using the named derivation
// ("sha256" or "hkdf"; empty selects sha256) and returns a ready codec.
func NewCodec(secret, derivation string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret not set", shared.ErrMissingConfig)
	}

	switch derivation {
	case "", "sha256":
		sum := sha256.Sum256([]byte(secret))
		return &Codec{key: sum[:]}, nil
	case "hkdf":
		r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
		key := make([]byte, 32)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("failed to derive session key: %w", err)
		}
		return &Codec{key: key}, nil
	default:
		return nil, fmt.Errorf("%w: unknown key derivation %q", shared.ErrInvalidConfig, derivation)
	}
}

// Seal encrypts the session into an opaque token of three base64url segments:
// nonce, ciphertext, and authentication tag.
//
// A fresh nonce is generated on every call.
func (c *Codec) Seal(session Session) (string, error) {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to initialize GCM: %w", err)
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	enc := base64.RawURLEncoding
	return strings.Join([]string{
		enc.EncodeToString(nonce),
		enc.EncodeToString(ciphertext),
		enc.EncodeToString(tag),
	}, segmentDelimiter), nil
}

// Unseal decrypts a token produced by [Seal].
//
// Every failure path collapses to ok=false: wrong segment count, undecodable
// segments, tag verification failure, malformed JSON, and missing or
// wrong-typed fields all yield no session, never a partial one.
func (c *Codec) Unseal(token string) (Session, bool) {
	var none Session

	parts := strings.Split(token, segmentDelimiter)
	if len(parts) != 3 {
		return none, false
	}

	enc := base64.RawURLEncoding
	nonce, err := enc.DecodeString(parts[0])
	if err != nil || len(nonce) != gcmNonceSize {
		return none, false
	}
	ciphertext, err := enc.DecodeString(parts[1])
	if err != nil {
		return none, false
	}
	tag, err := enc.DecodeString(parts[2])
	if err != nil {
		return none, false
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return none, false
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil || len(tag) != gcm.Overhead() {
		return none, false
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return none, false
	}

	var decoded struct {
		AccessToken *string `json:"accessToken"`
		ExpiresAtMs *int64  `json:"expiresAtMs"`
	}
	if err := json.Unmarshal(plaintext, &decoded); err != nil {
		return none, false
	}
	if decoded.AccessToken == nil || *decoded.AccessToken == "" || decoded.ExpiresAtMs == nil {
		return none, false
	}

	return Session{AccessToken: *decoded.AccessToken, ExpiresAtMs: *decoded.ExpiresAtMs}, true
}
