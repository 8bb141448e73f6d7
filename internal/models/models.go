// package models defines the data model for the player core
package models

import "time"

// TokenRecord holds the Spotify OAuth token state persisted between sessions.
//
// Owned exclusively by the token store; created on a successful code exchange
// and destroyed on logout, an unauthorized response, or an exchange failure.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	Expiry       time.Time `json:"expiry"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// Valid reports whether the record carries an unexpired access token at the given instant.
func (t *TokenRecord) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.Expiry)
}

// Device identifies a playback endpoint registered with Spotify.
//
// The embedded player reports its identity when the vendor SDK signals ready;
// the identity is never persisted and is reconstructed every session.
type Device struct {
	ID    string
	Ready bool
}
