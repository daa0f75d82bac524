package session

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("test_secret", "sha256")
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return codec
}

func TestCodec(t *testing.T) {
	t.Run("NewCodec", func(t *testing.T) {
		t.Run("Missing Secret", func(t *testing.T) {
			if _, err := NewCodec("", "sha256"); err == nil {
				t.Error("expected error for empty secret")
			}
		})

		t.Run("Unknown Derivation", func(t *testing.T) {
			if _, err := NewCodec("secret", "pbkdf2"); err == nil {
				t.Error("expected error for unknown derivation")
			}
		})

		t.Run("HKDF", func(t *testing.T) {
			codec, err := NewCodec("secret", "hkdf")
			if err != nil {
				t.Fatalf("expected hkdf codec, got %v", err)
			}

			session := Session{AccessToken: "tok", ExpiresAtMs: 42}
			token, err := codec.Seal(session)
			if err != nil {
				t.Fatalf("seal failed: %v", err)
			}
			got, ok := codec.Unseal(token)
			if !ok || got != session {
				t.Errorf("hkdf round trip failed: %+v ok=%v", got, ok)
			}
		})
	})

	t.Run("RoundTrip", func(t *testing.T) {
		codec := newTestCodec(t)
		session := Session{AccessToken: "BQDabc123", ExpiresAtMs: time.Now().Add(time.Hour).UnixMilli()}

		token, err := codec.Seal(session)
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}

		if parts := strings.Split(token, "."); len(parts) != 3 {
			t.Fatalf("expected 3 token segments, got %d", len(parts))
		}

		got, ok := codec.Unseal(token)
		if !ok {
			t.Fatal("unseal should succeed")
		}
		if got != session {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, session)
		}
	})

	t.Run("Fresh Nonce Per Seal", func(t *testing.T) {
		codec := newTestCodec(t)
		session := Session{AccessToken: "tok", ExpiresAtMs: 1}

		a, err := codec.Seal(session)
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}
		b, err := codec.Seal(session)
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}
		if a == b {
			t.Error("sealing the same session twice should produce distinct tokens")
		}
	})

	t.Run("Tamper Sensitivity", func(t *testing.T) {
		codec := newTestCodec(t)
		session := Session{AccessToken: "BQDabc123", ExpiresAtMs: 1234567890}

		token, err := codec.Seal(session)
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}

		parts := strings.Split(token, ".")
		names := []string{"nonce", "ciphertext", "tag"}

		for i, name := range names {
			t.Run(name, func(t *testing.T) {
				raw, err := base64.RawURLEncoding.DecodeString(parts[i])
				if err != nil {
					t.Fatalf("failed to decode segment: %v", err)
				}

				// flip every bit position of the first byte
				for bit := 0; bit < 8; bit++ {
					mutated := make([]byte, len(raw))
					copy(mutated, raw)
					mutated[0] ^= 1 << bit

					tampered := make([]string, 3)
					copy(tampered, parts)
					tampered[i] = base64.RawURLEncoding.EncodeToString(mutated)

					if _, ok := codec.Unseal(strings.Join(tampered, ".")); ok {
						t.Errorf("bit %d flip in %s segment should fail closed", bit, name)
					}
				}
			})
		}
	})

	t.Run("Unseal Fails Closed", func(t *testing.T) {
		codec := newTestCodec(t)

		cases := []struct {
			name  string
			token string
		}{
			{"empty", ""},
			{"one segment", "abc"},
			{"two segments", "abc.def"},
			{"four segments", "a.b.c.d"},
			{"invalid base64", "!!!.???.***"},
			{"garbage segments", "YWJj.ZGVm.Z2hp"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, ok := codec.Unseal(tc.token); ok {
					t.Errorf("expected unseal to fail for %q", tc.token)
				}
			})
		}
	})

	t.Run("Wrong Key", func(t *testing.T) {
		codec := newTestCodec(t)
		other, err := NewCodec("different_secret", "sha256")
		if err != nil {
			t.Fatalf("failed to create codec: %v", err)
		}

		token, err := codec.Seal(Session{AccessToken: "tok", ExpiresAtMs: 1})
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}

		if _, ok := other.Unseal(token); ok {
			t.Error("unseal under a different key should fail")
		}
	})

	t.Run("Missing Fields", func(t *testing.T) {
		// Tokens sealed from incomplete sessions must not unseal into partial ones.
		codec := newTestCodec(t)

		token, err := codec.Seal(Session{ExpiresAtMs: 99})
		if err != nil {
			t.Fatalf("seal failed: %v", err)
		}

		if _, ok := codec.Unseal(token); ok {
			t.Error("session without access token should unseal to none")
		}
	})
}
