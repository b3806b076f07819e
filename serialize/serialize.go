// Package serialize implements the ledger's primitive wire codecs: fixed-
// width big-endian integers, length-prefixed byte strings, and the derived
// codecs for assets, public keys, signature pairs and digests used
// throughout the tx, block and wire packages.
//
// The read/write pair mirrors the ReadElement/WriteElement idiom the
// teacher's wire package builds directly on encoding/binary, adjusted to
// big-endian per this protocol's layout.
package serialize

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
)

// MaxByteSliceLen bounds any single length-prefixed byte string this codec
// will decode, guarding against a malicious length prefix forcing a huge
// allocation.
const MaxByteSliceLen = 32 * 1024 * 1024

// WriteUint8 writes a single byte.
func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadUint8 reads a single byte.
func ReadUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteUint16 writes v big-endian.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint16 reads a big-endian uint16.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint32 writes v big-endian.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a big-endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteUint64 writes v big-endian.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint64 reads a big-endian uint64.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteBytes writes a u32-length-prefixed byte slice.
func WriteBytes(w io.Writer, b []byte) error {
	if len(b) > math.MaxUint32 {
		return errors.New("serialize: byte slice too long to encode")
	}
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a u32-length-prefixed byte slice.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxByteSliceLen {
		return nil, errors.Errorf("serialize: length-prefixed byte slice too large: %d", n)
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteString writes a u32-length-prefixed UTF-8 string.
func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

// ReadString reads a u32-length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	b, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteAsset writes an Asset as its raw int64 unit count, big-endian.
func WriteAsset(w io.Writer, a asset.Asset) error {
	return WriteUint64(w, uint64(a.Raw()))
}

// ReadAsset reads an Asset from its raw int64 unit count.
func ReadAsset(r io.Reader) (asset.Asset, error) {
	v, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	return asset.New(int64(v)), nil
}

// WriteDigest writes a fixed 32-byte digest.
func WriteDigest(w io.Writer, d crypto.Digest) error {
	_, err := w.Write(d[:])
	return err
}

// ReadDigest reads a fixed 32-byte digest.
func ReadDigest(r io.Reader) (crypto.Digest, error) {
	var d crypto.Digest
	_, err := io.ReadFull(r, d[:])
	return d, err
}

// WritePublicKey writes a fixed 32-byte Ed25519 public key.
func WritePublicKey(w io.Writer, k crypto.PublicKey) error {
	_, err := w.Write(k[:])
	return err
}

// ReadPublicKey reads a fixed 32-byte Ed25519 public key.
func ReadPublicKey(r io.Reader) (crypto.PublicKey, error) {
	var k crypto.PublicKey
	_, err := io.ReadFull(r, k[:])
	return k, err
}

// WriteSignature writes a fixed 64-byte Ed25519 signature.
func WriteSignature(w io.Writer, s crypto.Signature) error {
	_, err := w.Write(s[:])
	return err
}

// ReadSignature reads a fixed 64-byte Ed25519 signature.
func ReadSignature(r io.Reader) (crypto.Signature, error) {
	var s crypto.Signature
	_, err := io.ReadFull(r, s[:])
	return s, err
}

// WriteSigPair writes a SigPair as PublicKey || Signature.
func WriteSigPair(w io.Writer, sp crypto.SigPair) error {
	if err := WritePublicKey(w, sp.PubKey); err != nil {
		return err
	}
	return WriteSignature(w, sp.Signature)
}

// ReadSigPair reads a SigPair as PublicKey || Signature.
func ReadSigPair(r io.Reader) (crypto.SigPair, error) {
	pub, err := ReadPublicKey(r)
	if err != nil {
		return crypto.SigPair{}, err
	}
	sig, err := ReadSignature(r)
	if err != nil {
		return crypto.SigPair{}, err
	}
	return crypto.SigPair{PubKey: pub, Signature: sig}, nil
}

// WriteScriptHash writes a fixed 32-byte script hash.
func WriteScriptHash(w io.Writer, h crypto.Digest) error {
	return WriteDigest(w, h)
}

// ReadScriptHash reads a fixed 32-byte script hash.
func ReadScriptHash(r io.Reader) (crypto.Digest, error) {
	return ReadDigest(r)
}
