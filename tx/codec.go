package tx

import (
	"io"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/serialize"
)

// byteWriter and byteReader name the io interfaces the codec needs; kept as
// aliases so variant payload methods stay readable.
type byteWriter = io.Writer
type byteReader = io.Reader

// ErrUnsupportedVersion is returned by Decode when a transaction's version
// field is not Version.
var ErrUnsupportedVersion = errors.New("tx: unsupported version")

// ErrUnknownType is returned by Decode when a transaction's type tag does
// not match any known variant.
var ErrUnknownType = errors.New("tx: unknown transaction type")

// Encode writes t's full canonical encoding, including its signatures.
func Encode(w io.Writer, t Tx) error {
	return encode(w, t, true)
}

// EncodeWithoutSigs writes t's canonical encoding up to (but not including)
// the signature count — the preimage signed by every SigPair and hashed
// into the txid.
func EncodeWithoutSigs(w io.Writer, t Tx) error {
	return encode(w, t, false)
}

func encode(w io.Writer, t Tx, includeSigs bool) error {
	if err := serialize.WriteUint16(w, Version); err != nil {
		return err
	}
	if err := serialize.WriteUint8(w, uint8(t.Type())); err != nil {
		return err
	}
	base := t.Base()
	if err := serialize.WriteUint32(w, base.Nonce); err != nil {
		return err
	}
	if err := serialize.WriteUint64(w, base.Expiry); err != nil {
		return err
	}
	if err := serialize.WriteAsset(w, base.Fee); err != nil {
		return err
	}
	if err := t.encodePayload(w); err != nil {
		return err
	}
	if !includeSigs {
		return nil
	}
	if len(base.Signatures) > 0xFF {
		return errors.New("tx: too many signatures to encode")
	}
	if err := serialize.WriteUint8(w, uint8(len(base.Signatures))); err != nil {
		return err
	}
	for _, sp := range base.Signatures {
		if err := serialize.WriteSigPair(w, sp); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a full canonical transaction, including its signatures.
func Decode(r io.Reader) (Tx, error) {
	version, err := serialize.ReadUint16(r)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, ErrUnsupportedVersion
	}
	rawType, err := serialize.ReadUint8(r)
	if err != nil {
		return nil, err
	}

	var t Tx
	switch Type(rawType) {
	case TypeOwner:
		t = &OwnerTx{}
	case TypeMint:
		t = &MintTx{}
	case TypeCreateAccount:
		t = &CreateAccountTx{}
	case TypeTransfer:
		t = &TransferTx{}
	case TypeReward:
		t = &RewardTx{}
	default:
		return nil, errors.Wrapf(ErrUnknownType, "tag %d", rawType)
	}

	base := t.Base()
	if base.Nonce, err = serialize.ReadUint32(r); err != nil {
		return nil, err
	}
	if base.Expiry, err = serialize.ReadUint64(r); err != nil {
		return nil, err
	}
	if base.Fee, err = serialize.ReadAsset(r); err != nil {
		return nil, err
	}
	if err := t.decodePayload(r); err != nil {
		return nil, err
	}

	sigCount, err := serialize.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	base.Signatures = make([]crypto.SigPair, 0, sigCount)
	for i := uint8(0); i < sigCount; i++ {
		sp, err := serialize.ReadSigPair(r)
		if err != nil {
			return nil, err
		}
		base.Signatures = append(base.Signatures, sp)
	}

	return t, nil
}
