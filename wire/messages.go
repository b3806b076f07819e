package wire

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/grael-network/graeld/asset"
	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/serialize"
	"github.com/grael-network/graeld/tx"
)

// ErrorMsg is MsgError's payload: a WireErr code plus a human-readable
// detail string, the response frame sent back in place of any request
// that chainstate rejects.
type ErrorMsg struct {
	Code   WireErr
	Detail string
}

// EncodeErrorMsg writes m as Code(u8) || Detail(length-prefixed).
func EncodeErrorMsg(w io.Writer, m ErrorMsg) error {
	if err := serialize.WriteUint8(w, uint8(m.Code)); err != nil {
		return err
	}
	return serialize.WriteString(w, m.Detail)
}

// DecodeErrorMsg reads an ErrorMsg.
func DecodeErrorMsg(r io.Reader) (ErrorMsg, error) {
	code, err := serialize.ReadUint8(r)
	if err != nil {
		return ErrorMsg{}, err
	}
	detail, err := serialize.ReadString(r)
	if err != nil {
		return ErrorMsg{}, err
	}
	return ErrorMsg{Code: WireErr(code), Detail: detail}, nil
}

// NewErrorFrame builds a MsgError Frame carrying err, mapped through
// FromErr.
func NewErrorFrame(err error) Frame {
	var buf bytes.Buffer
	_ = EncodeErrorMsg(&buf, ErrorMsg{Code: FromErr(err), Detail: err.Error()})
	return Frame{Type: MsgError, Payload: buf.Bytes()}
}

// GetPropertiesResp is MsgGetProperties's response payload, read straight
// off chainstate.Engine.GetProperties.
type GetPropertiesResp struct {
	Height      uint64
	HasOwner    bool
	Owner       *tx.OwnerTx // nil when HasOwner is false
	TokenSupply asset.Asset
	HasFee      bool
	NetworkFee  asset.Asset
}

// EncodeGetPropertiesResp writes resp's wire form.
func EncodeGetPropertiesResp(w io.Writer, resp GetPropertiesResp) error {
	if err := serialize.WriteUint64(w, resp.Height); err != nil {
		return err
	}
	if err := writeBool(w, resp.HasOwner); err != nil {
		return err
	}
	if resp.HasOwner {
		if err := tx.Encode(w, resp.Owner); err != nil {
			return err
		}
	}
	if err := serialize.WriteAsset(w, resp.TokenSupply); err != nil {
		return err
	}
	if err := writeBool(w, resp.HasFee); err != nil {
		return err
	}
	return serialize.WriteAsset(w, resp.NetworkFee)
}

// DecodeGetPropertiesResp reads a GetPropertiesResp.
func DecodeGetPropertiesResp(r io.Reader) (GetPropertiesResp, error) {
	var resp GetPropertiesResp
	var err error
	if resp.Height, err = serialize.ReadUint64(r); err != nil {
		return resp, err
	}
	if resp.HasOwner, err = readBool(r); err != nil {
		return resp, err
	}
	if resp.HasOwner {
		decoded, err := tx.Decode(r)
		if err != nil {
			return resp, err
		}
		owner, ok := decoded.(*tx.OwnerTx)
		if !ok {
			return resp, errors.New("wire: GetPropertiesResp owner did not decode to an OwnerTx")
		}
		resp.Owner = owner
	}
	if resp.TokenSupply, err = serialize.ReadAsset(r); err != nil {
		return resp, err
	}
	if resp.HasFee, err = readBool(r); err != nil {
		return resp, err
	}
	if resp.NetworkFee, err = serialize.ReadAsset(r); err != nil {
		return resp, err
	}
	return resp, nil
}

// GetBlockReq is MsgGetBlock's request payload.
type GetBlockReq struct {
	Height uint64
}

// EncodeGetBlockReq writes req's wire form.
func EncodeGetBlockReq(w io.Writer, req GetBlockReq) error {
	return serialize.WriteUint64(w, req.Height)
}

// DecodeGetBlockReq reads a GetBlockReq.
func DecodeGetBlockReq(r io.Reader) (GetBlockReq, error) {
	height, err := serialize.ReadUint64(r)
	return GetBlockReq{Height: height}, err
}

// GetAddressInfoReq is MsgGetAddressInfo's request payload.
type GetAddressInfoReq struct {
	ScriptHash crypto.Digest
}

// EncodeGetAddressInfoReq writes req's wire form.
func EncodeGetAddressInfoReq(w io.Writer, req GetAddressInfoReq) error {
	return serialize.WriteScriptHash(w, req.ScriptHash)
}

// DecodeGetAddressInfoReq reads a GetAddressInfoReq.
func DecodeGetAddressInfoReq(r io.Reader) (GetAddressInfoReq, error) {
	h, err := serialize.ReadScriptHash(r)
	return GetAddressInfoReq{ScriptHash: h}, err
}

// GetAddressInfoResp is MsgGetAddressInfo's response payload, per
// SPEC_FULL.md §5.7: the balance, current address fee and pending-tx
// count for a script hash, with an empty pending-tx list (the wire layer
// has no pool of its own).
type GetAddressInfoResp struct {
	Balance        asset.Asset
	AddressFee     asset.Asset
	PendingTxCount uint32
}

// EncodeGetAddressInfoResp writes resp's wire form.
func EncodeGetAddressInfoResp(w io.Writer, resp GetAddressInfoResp) error {
	if err := serialize.WriteAsset(w, resp.Balance); err != nil {
		return err
	}
	if err := serialize.WriteAsset(w, resp.AddressFee); err != nil {
		return err
	}
	return serialize.WriteUint32(w, resp.PendingTxCount)
}

// DecodeGetAddressInfoResp reads a GetAddressInfoResp.
func DecodeGetAddressInfoResp(r io.Reader) (GetAddressInfoResp, error) {
	var resp GetAddressInfoResp
	var err error
	if resp.Balance, err = serialize.ReadAsset(r); err != nil {
		return resp, err
	}
	if resp.AddressFee, err = serialize.ReadAsset(r); err != nil {
		return resp, err
	}
	if resp.PendingTxCount, err = serialize.ReadUint32(r); err != nil {
		return resp, err
	}
	return resp, nil
}

// BroadcastReq is MsgBroadcast's request payload: a single client-
// submitted transaction.
type BroadcastReq struct {
	Tx tx.Tx
}

// EncodeBroadcastReq writes req's wire form.
func EncodeBroadcastReq(w io.Writer, req BroadcastReq) error {
	return tx.Encode(w, req.Tx)
}

// ErrRewardNotBroadcastable is returned by DecodeBroadcastReq when the
// decoded transaction is a RewardTx: block production synthesizes these
// internally, but a client may never submit one (chainstate.VerifyTx
// would reject it the same way, TxProhibited — this check simply fails
// the same way closer to the wire so a malformed client never reaches
// chainstate at all).
var ErrRewardNotBroadcastable = errors.New("wire: reward transactions cannot be broadcast")

// DecodeBroadcastReq reads a BroadcastReq, rejecting a RewardTx payload.
func DecodeBroadcastReq(r io.Reader) (BroadcastReq, error) {
	decoded, err := tx.Decode(r)
	if err != nil {
		return BroadcastReq{}, err
	}
	if decoded.Type() == tx.TypeReward {
		return BroadcastReq{}, ErrRewardNotBroadcastable
	}
	return BroadcastReq{Tx: decoded}, nil
}

// BroadcastResp is MsgBroadcast's response payload: the accepted
// transaction's id.
type BroadcastResp struct {
	TxId tx.TxId
}

// EncodeBroadcastResp writes resp's wire form.
func EncodeBroadcastResp(w io.Writer, resp BroadcastResp) error {
	return serialize.WriteDigest(w, crypto.Digest(resp.TxId))
}

// DecodeBroadcastResp reads a BroadcastResp.
func DecodeBroadcastResp(r io.Reader) (BroadcastResp, error) {
	d, err := serialize.ReadDigest(r)
	return BroadcastResp{TxId: tx.TxId(d)}, err
}

func writeBool(w io.Writer, b bool) error {
	if b {
		return serialize.WriteUint8(w, 1)
	}
	return serialize.WriteUint8(w, 0)
}

func readBool(r io.Reader) (bool, error) {
	v, err := serialize.ReadUint8(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
