// package auth implements the PKCE authorization-code flow against the
// Spotify accounts service and owns the token lifecycle.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// verifierCharset is the RFC 7636 unreserved character set.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// DefaultVerifierLength is used when no explicit length is requested.
const DefaultVerifierLength = 64

// GenerateVerifier produces a cryptographically random code verifier of the
// given length, drawn uniformly from the RFC 7636 unreserved set.
//
// Lengths outside the 43-128 range allowed by the RFC fall back to the default.
func GenerateVerifier(length int) string {
	if length < 43 || length > 128 {
		length = DefaultVerifierLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, 32)

	// Rejection sampling keeps the draw uniform over the 66-character set.
	max := byte(len(verifierCharset) * (256 / len(verifierCharset)))
	for len(out) < length {
		rand.Read(buf)
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, verifierCharset[int(b)%len(verifierCharset)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}

// ChallengeFromVerifier computes the S256 code challenge: the SHA-256 digest
// of the verifier, base64url-encoded without padding.
func ChallengeFromVerifier(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
