// Package crypto is a thin wrapper around Ed25519 signing and double-SHA256
// digests — the two primitives the ledger core needs and nothing more. Every
// example in the retrieval pack that implements chain-level signing reaches
// for the standard library's crypto/ed25519 and crypto/sha256 rather than a
// third-party curve package, so this package follows suit.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"

	"github.com/pkg/errors"
)

// PublicKeySize and SignatureSize match Ed25519's fixed widths.
const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	DigestSize     = sha256.Size
)

// PublicKey is an opaque, fixed-size Ed25519 public key.
type PublicKey [PublicKeySize]byte

// Signature is an opaque, fixed-size detached Ed25519 signature.
type Signature [SignatureSize]byte

// Digest is a 32-byte double-SHA256 hash.
type Digest [DigestSize]byte

// SigPair binds a signature to the public key that produced it.
type SigPair struct {
	PubKey    PublicKey
	Signature Signature
}

// PrivateKey is an Ed25519 private key, kept only in memory by this package
// — durable storage and WIF-style encoding are a wallet-CLI concern and out
// of scope (spec.md §1).
type PrivateKey ed25519.PrivateKey

// GenerateKeypair produces a fresh Ed25519 keypair.
func GenerateKeypair() (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, nil, errors.Wrap(err, "crypto: generate keypair")
	}
	var pk PublicKey
	copy(pk[:], pub)
	return pk, PrivateKey(priv), nil
}

// Sign produces a detached signature over msg.
func Sign(priv PrivateKey, msg []byte) Signature {
	sig := ed25519.Sign(ed25519.PrivateKey(priv), msg)
	var s Signature
	copy(s[:], sig)
	return s
}

// SignPair signs msg and returns the resulting SigPair bound to pub.
func SignPair(pub PublicKey, priv PrivateKey, msg []byte) SigPair {
	return SigPair{PubKey: pub, Signature: Sign(priv, msg)}
}

// Verify reports whether sig is a valid Ed25519 signature over msg by pub.
// It is total: any input, valid or not, produces a boolean with no error.
func Verify(pub PublicKey, sig Signature, msg []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:])
}

// Verify reports whether sp is a valid signature over msg by sp's own
// public key.
func (sp SigPair) Verify(msg []byte) bool {
	return Verify(sp.PubKey, sp.Signature, msg)
}

// DoubleSHA256 computes SHA256(SHA256(data)), the digest used throughout
// the ledger for txids, block hashes and script hashes.
func DoubleSHA256(data []byte) Digest {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second
}

// String renders the digest as lowercase hex.
func (d Digest) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, len(d)*2)
	for i, b := range d {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}

// IsZero reports whether d is the all-zero digest (used for genesis's
// previous-hash and the empty-transaction-list merkle root).
func (d Digest) IsZero() bool {
	return d == Digest{}
}
