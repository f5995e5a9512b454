// Package signx provides the signing capability consumed by the bundle
// engine. The vault treats signing as opaque: produce a signature over bytes,
// verify a signature against a public key. The production implementation is
// Ed25519 with the private seed derived from a passphrase via Argon2id, so a
// user's identity key is reproducible from their passphrase and salt.
package signx

import (
	"crypto/ed25519"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// Signer produces signatures over serialized bundles.
type Signer interface {
	// Sign returns a signature over data.
	Sign(data []byte) ([]byte, error)

	// PublicKey returns the verification key matching Sign.
	PublicKey() ed25519.PublicKey
}

// Ed25519Signer signs with a held Ed25519 private key.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer wraps an existing private key.
func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{priv: priv}
}

// NewSignerFromPassphrase derives an Ed25519 key pair from a passphrase and
// salt using Argon2id and returns a signer over it. The same passphrase and
// salt always yield the same key.
func NewSignerFromPassphrase(passphrase, salt []byte) *Ed25519Signer {
	seed := argon2.IDKey(passphrase, salt, 1, 64*1024, 4, ed25519.SeedSize)
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}
}

func (s *Ed25519Signer) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

// Verify reports whether sig is a valid signature over data by the holder of
// pub. Malformed keys or signatures verify as false, never panic.
func Verify(data, sig, pub []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), data, sig)
}

// EncodeKey renders a key or signature for the bundle wire format.
func EncodeKey(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeKey parses a key or signature from the bundle wire format.
func DecodeKey(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
