package auth

import (
	"strings"
	"testing"
)

func TestGenerateVerifier(t *testing.T) {
	t.Run("respects requested length", func(t *testing.T) {
		for _, length := range []int{43, 64, 128} {
			if got := len(GenerateVerifier(length)); got != length {
				t.Errorf("expected verifier of length %d, got %d", length, got)
			}
		}
	})

	t.Run("falls back to default for out-of-range lengths", func(t *testing.T) {
		for _, length := range []int{0, 42, 129, -5} {
			if got := len(GenerateVerifier(length)); got != DefaultVerifierLength {
				t.Errorf("length %d: expected fallback to %d, got %d", length, DefaultVerifierLength, got)
			}
		}
	})

	t.Run("uses only unreserved characters", func(t *testing.T) {
		verifier := GenerateVerifier(128)
		for _, c := range verifier {
			if !strings.ContainsRune(verifierCharset, c) {
				t.Fatalf("verifier contains %q, outside the unreserved set", c)
			}
		}
	})

	t.Run("produces distinct values", func(t *testing.T) {
		if GenerateVerifier(64) == GenerateVerifier(64) {
			t.Error("two verifiers were identical")
		}
	})
}

func TestChallengeFromVerifier(t *testing.T) {
	t.Run("matches the RFC 7636 appendix B vector", func(t *testing.T) {
		verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
		want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

		if got := ChallengeFromVerifier(verifier); got != want {
			t.Errorf("expected challenge %s, got %s", want, got)
		}
	})

	t.Run("has no base64 padding", func(t *testing.T) {
		if challenge := ChallengeFromVerifier(GenerateVerifier(64)); strings.Contains(challenge, "=") {
			t.Errorf("challenge %s contains padding", challenge)
		}
	})
}
