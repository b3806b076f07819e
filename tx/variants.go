package tx

import (
	"io"

	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/serialize"
)

// writeScript and readScript do not enforce chainparams.MaxScriptByteSize:
// that bound is a validation rule (spec.md §4.2.2, TxTooLarge), checked by
// chainstate.VerifyTx, not a codec-level decode failure. The codec must be
// able to decode an oversized transaction so that verification can report
// the specific TxTooLarge error instead of the wire layer silently
// swallowing it as a decode failure.
func writeScript(w io.Writer, s script.Script) error {
	return serialize.WriteBytes(w, s)
}

func readScript(r io.Reader) (script.Script, error) {
	b, err := serialize.ReadBytes(r)
	if err != nil {
		return nil, err
	}
	return script.Script(b), nil
}

func (t *OwnerTx) encodePayload(w io.Writer) error {
	if err := serialize.WritePublicKey(w, t.Minter); err != nil {
		return err
	}
	if err := serialize.WriteScriptHash(w, t.Wallet); err != nil {
		return err
	}
	return writeScript(w, t.Script)
}

func (t *OwnerTx) decodePayload(r io.Reader) (err error) {
	if t.Minter, err = serialize.ReadPublicKey(r); err != nil {
		return err
	}
	if t.Wallet, err = serialize.ReadScriptHash(r); err != nil {
		return err
	}
	t.Script, err = readScript(r)
	return err
}

func (t *MintTx) encodePayload(w io.Writer) error {
	if err := serialize.WriteScriptHash(w, t.To); err != nil {
		return err
	}
	if err := serialize.WriteAsset(w, t.Amount); err != nil {
		return err
	}
	if err := serialize.WriteBytes(w, t.Attachment); err != nil {
		return err
	}
	if err := serialize.WriteString(w, t.AttachmentName); err != nil {
		return err
	}
	return writeScript(w, t.Script)
}

func (t *MintTx) decodePayload(r io.Reader) (err error) {
	if t.To, err = serialize.ReadScriptHash(r); err != nil {
		return err
	}
	if t.Amount, err = serialize.ReadAsset(r); err != nil {
		return err
	}
	if t.Attachment, err = serialize.ReadBytes(r); err != nil {
		return err
	}
	if t.AttachmentName, err = serialize.ReadString(r); err != nil {
		return err
	}
	t.Script, err = readScript(r)
	return err
}

func (t *CreateAccountTx) encodePayload(w io.Writer) error {
	if err := serialize.WriteUint64(w, uint64(t.Creator)); err != nil {
		return err
	}
	if err := serialize.WriteUint64(w, uint64(t.Account.Id)); err != nil {
		return err
	}
	if err := serialize.WriteAsset(w, t.Account.Balance); err != nil {
		return err
	}
	if err := writeScript(w, t.Account.Script); err != nil {
		return err
	}
	return serialize.WriteUint8(w, t.Account.Permissions)
}

func (t *CreateAccountTx) decodePayload(r io.Reader) error {
	creator, err := serialize.ReadUint64(r)
	if err != nil {
		return err
	}
	t.Creator = AccountId(creator)

	id, err := serialize.ReadUint64(r)
	if err != nil {
		return err
	}
	t.Account.Id = AccountId(id)

	if t.Account.Balance, err = serialize.ReadAsset(r); err != nil {
		return err
	}
	if t.Account.Script, err = readScript(r); err != nil {
		return err
	}
	t.Account.Permissions, err = serialize.ReadUint8(r)
	return err
}

func (t *TransferTx) encodePayload(w io.Writer) error {
	if err := serialize.WriteScriptHash(w, t.From); err != nil {
		return err
	}
	if err := writeScript(w, t.Script); err != nil {
		return err
	}
	if err := serialize.WriteUint8(w, t.CallFn); err != nil {
		return err
	}
	if err := serialize.WriteBytes(w, t.Args); err != nil {
		return err
	}
	if err := serialize.WriteAsset(w, t.Amount); err != nil {
		return err
	}
	if err := serialize.WriteBytes(w, t.Memo); err != nil {
		return err
	}
	return serialize.WriteScriptHash(w, t.To)
}

func (t *TransferTx) decodePayload(r io.Reader) (err error) {
	if t.From, err = serialize.ReadScriptHash(r); err != nil {
		return err
	}
	if t.Script, err = readScript(r); err != nil {
		return err
	}
	if t.CallFn, err = serialize.ReadUint8(r); err != nil {
		return err
	}
	if t.Args, err = serialize.ReadBytes(r); err != nil {
		return err
	}
	if t.Amount, err = serialize.ReadAsset(r); err != nil {
		return err
	}
	if t.Memo, err = serialize.ReadBytes(r); err != nil {
		return err
	}
	t.To, err = serialize.ReadScriptHash(r)
	return err
}

func (t *RewardTx) encodePayload(w io.Writer) error {
	if err := serialize.WriteScriptHash(w, t.To); err != nil {
		return err
	}
	return serialize.WriteAsset(w, t.Amount)
}

func (t *RewardTx) decodePayload(r io.Reader) (err error) {
	if t.To, err = serialize.ReadScriptHash(r); err != nil {
		return err
	}
	t.Amount, err = serialize.ReadAsset(r)
	return err
}
