package session

import (
	"crypto/subtle"
	"strings"

	"github.com/desertthunder/moodlist/internal/shared"
)

// stateEntropyBytes sizes the random OAuth state value.
const stateEntropyBytes = 32

// Transaction correlates an in-flight OAuth authorization with its callback.
//
// State is an opaque random token; ReturnTo is the relative path to resume
// after the callback completes.
type Transaction struct {
	State    string
	ReturnTo string
}

// NewTransaction starts an OAuth transaction returning to the given path.
//
// Absolute or malformed return paths are replaced with the dashboard default.
func NewTransaction(returnTo string) Transaction {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = "/dashboard"
	}
	return Transaction{
		State:    shared.RandomToken(stateEntropyBytes),
		ReturnTo: returnTo,
	}
}

// Matches reports whether the state returned by the authorization server
// equals the stored state. Comparison is constant time.
func (t Transaction) Matches(state string) bool {
	if t.State == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t.State), []byte(state)) == 1
}
