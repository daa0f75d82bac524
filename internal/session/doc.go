// Package session implements the sealed cookie session layer for Spotify credentials.
//
// # Sealed Tokens
//
// [Codec.Seal] encrypts a JSON-serialized [Session] under AES-256-GCM with a
// fresh nonce per call. The token is three base64url segments joined by "." :
// nonce, ciphertext, and authentication tag. [Codec.Unseal] verifies the tag
// before trusting any field and fails closed on every structural or
// cryptographic error.
//
// The server holds no session store. The sealed token is the only session
// representation, carried in a single HttpOnly cookie via [Cookies]. Forgery
// and disclosure both matter because the payload is a bearer credential, so
// authenticated encryption is required rather than signing alone.
//
// # Key Derivation
//
// The 32-byte key comes from the configured secret, either as a plain SHA-256
// digest (the default, matching existing deployments) or through HKDF when
// session.key_derivation = "hkdf". Rotating the secret invalidates all
// outstanding sessions, which is accepted degradation.
//
// # OAuth Correlation
//
// [Transaction] holds the random state token and returnTo path for an
// in-flight authorization. The callback handler must reject unless
// [Transaction.Matches] accepts the returned state.
package session
