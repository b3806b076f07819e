// Package tx implements the transaction variant taxonomy and its canonical
// codec: the versioned {Owner, Mint, CreateAccount, Transfer} sum type from
// spec.md §3, deterministic serialization, txid derivation, and
// multi-signature handling.
//
// Variant polymorphism follows spec.md §9: a tagged sum with an explicit
// version byte, sharing the common Tx fields via an embedded TxData and a
// Base() accessor rather than inheritance.
package tx

import (
	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/script"
)

// Version is the only wire version this codec understands.
const Version uint16 = 0x0000

// Type tags a transaction's variant.
type Type uint8

const (
	TypeOwner Type = iota
	TypeMint
	TypeCreateAccount
	TypeTransfer
	// TypeReward is internal-only: block production may synthesize a
	// RewardTx, but it is never accepted over the wire (see
	// wire.DecodeBroadcastReq).
	TypeReward
)

func (t Type) String() string {
	switch t {
	case TypeOwner:
		return "Owner"
	case TypeMint:
		return "Mint"
	case TypeCreateAccount:
		return "CreateAccount"
	case TypeTransfer:
		return "Transfer"
	case TypeReward:
		return "Reward"
	default:
		return "Unknown"
	}
}

// TxId is a double-SHA256 digest over a transaction's signature-less
// canonical encoding, prefixed with the network's chain ID.
type TxId crypto.Digest

func (id TxId) String() string { return crypto.Digest(id).String() }

// TxData holds the fields common to every transaction variant.
type TxData struct {
	Nonce      uint32
	Expiry     uint64 // milliseconds since the Unix epoch
	Fee        asset.Asset
	Signatures []crypto.SigPair
}

// Tx is implemented by every transaction variant. Base returns the shared
// envelope fields; Type identifies which variant payload follows it on the
// wire.
type Tx interface {
	Base() *TxData
	Type() Type

	encodePayload(w byteWriter) error
	decodePayload(r byteReader) error
}

// AccountId materializes an account independent of any script hash — see
// CreateAccountTx.
type AccountId uint64

// Account is the indexed record for a materialized account.
type Account struct {
	Id          AccountId
	Balance     asset.Asset
	Script      script.Script
	Permissions uint8
}

// OwnerTx rotates network ownership. Fee must be zero (enforced by
// chainstate, not the codec). Per the resolution of spec.md §9's open
// question ("permissioned ownership rotation"), Wallet is always encoded as
// a ScriptHash — the AccountId encoding from the original taxonomy is
// dropped at the type level, so there is nothing for the codec to reject.
type OwnerTx struct {
	TxData
	Minter crypto.PublicKey
	Wallet crypto.Digest // ScriptHash
	Script script.Script
}

// Base implements Tx.
func (t *OwnerTx) Base() *TxData { return &t.TxData }

// Type implements Tx.
func (t *OwnerTx) Type() Type { return TypeOwner }

// MintTx creates new tokens, increasing global token supply. Fee must be
// zero (enforced by chainstate).
type MintTx struct {
	TxData
	To             crypto.Digest // ScriptHash
	Amount         asset.Asset
	Attachment     []byte
	AttachmentName string
	Script         script.Script
}

// Base implements Tx.
func (t *MintTx) Base() *TxData { return &t.TxData }

// Type implements Tx.
func (t *MintTx) Type() Type { return TypeMint }

// CreateAccountTx materializes an account by ID.
type CreateAccountTx struct {
	TxData
	Creator AccountId
	Account Account
}

// Base implements Tx.
func (t *CreateAccountTx) Base() *TxData { return &t.TxData }

// Type implements Tx.
func (t *CreateAccountTx) Type() Type { return TypeCreateAccount }

// TransferTx moves value from a spending script's hash to a recipient.
// From == Hash(Script) is an invariant enforced by chainstate, not the
// codec (a malformed tx is still decodable; it simply fails verification).
type TransferTx struct {
	TxData
	From   crypto.Digest // ScriptHash
	Script script.Script
	CallFn uint8
	Args   []byte
	Amount asset.Asset
	Memo   []byte
	To     crypto.Digest // ScriptHash
}

// Base implements Tx.
func (t *TransferTx) Base() *TxData { return &t.TxData }

// Type implements Tx.
func (t *TransferTx) Type() Type { return TypeTransfer }

// RewardTx credits a script hash with recycled transaction fees. It is
// synthesized internally by block production (spec.md §9's resolved open
// question, see SPEC_FULL.md §5.2) and is never accepted as a client
// submission — chainstate.VerifyTx rejects it outside of block validation
// with TxProhibited.
type RewardTx struct {
	TxData
	To     crypto.Digest // ScriptHash
	Amount asset.Asset
}

// Base implements Tx.
func (t *RewardTx) Base() *TxData { return &t.TxData }

// Type implements Tx.
func (t *RewardTx) Type() Type { return TypeReward }
