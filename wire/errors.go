package wire

import (
	"errors"

	"github.com/grael-network/graeld/chainstate"
)

// WireErr enumerates every error code a response Frame's MsgError payload
// can carry: two wire-local codes (an address the caller can't route a
// request against is not any TxErr/BlockErr's concern) plus every
// chainstate.TxErr and chainstate.BlockErr variant, mirrored one for one.
// Built the same iota-plus-lookup-table way as MsgType.
type WireErr uint8

const (
	WireUnknownError WireErr = iota
	WireInvalidHeight

	WireArithmetic
	WireInvalidFeeAmount
	WireInsufficientBalance
	WireTxTooLarge
	WireTooManySignatures
	WireScriptHashMismatch
	WireScriptRetFalse
	WireScriptEval
	WireTxProhibited
	WireTxReplayed

	WireInvalidBlockHeight
	WireInvalidMerkleRoot
	WireInvalidPrevHash
	WireInvalidBlockHash
	WireInvalidBlockSignature
)

var wireErrNames = map[WireErr]string{
	WireUnknownError:           "unknown error",
	WireInvalidHeight:          "invalid height",
	WireArithmetic:             "arithmetic overflow",
	WireInvalidFeeAmount:       "invalid fee amount",
	WireInsufficientBalance:    "insufficient balance",
	WireTxTooLarge:             "transaction too large",
	WireTooManySignatures:      "too many signatures",
	WireScriptHashMismatch:     "script hash mismatch",
	WireScriptRetFalse:         "script returned false",
	WireScriptEval:             "script evaluation error",
	WireTxProhibited:           "transaction prohibited",
	WireTxReplayed:             "transaction already seen",
	WireInvalidBlockHeight:     "invalid block height",
	WireInvalidMerkleRoot:      "invalid merkle root",
	WireInvalidPrevHash:        "invalid previous hash",
	WireInvalidBlockHash:       "invalid block hash signature",
	WireInvalidBlockSignature:  "signer is not the current owner",
}

func (e WireErr) String() string {
	if s, ok := wireErrNames[e]; ok {
		return s
	}
	return "unknown error"
}

// FromTxErr maps a chainstate.TxErr onto its mirrored WireErr code.
func FromTxErr(kind chainstate.TxErr) WireErr {
	switch kind {
	case chainstate.ErrArithmetic:
		return WireArithmetic
	case chainstate.ErrInvalidFeeAmount:
		return WireInvalidFeeAmount
	case chainstate.ErrInsufficientBalance:
		return WireInsufficientBalance
	case chainstate.ErrTxTooLarge:
		return WireTxTooLarge
	case chainstate.ErrTooManySignatures:
		return WireTooManySignatures
	case chainstate.ErrScriptHashMismatch:
		return WireScriptHashMismatch
	case chainstate.ErrScriptRetFalse:
		return WireScriptRetFalse
	case chainstate.ErrScriptEval:
		return WireScriptEval
	case chainstate.ErrTxProhibited:
		return WireTxProhibited
	case chainstate.ErrTxReplayed:
		return WireTxReplayed
	default:
		return WireUnknownError
	}
}

// FromBlockErr maps a chainstate.BlockErr onto its mirrored WireErr code.
// ErrTx is not mirrored directly — callers unwrap the BlockError's inner
// TxError and map that instead, since a wire client cares which
// transaction check failed, not that a block wraps one.
func FromBlockErr(kind chainstate.BlockErr) WireErr {
	switch kind {
	case chainstate.ErrInvalidBlockHeight:
		return WireInvalidBlockHeight
	case chainstate.ErrInvalidMerkleRoot:
		return WireInvalidMerkleRoot
	case chainstate.ErrInvalidPrevHash:
		return WireInvalidPrevHash
	case chainstate.ErrInvalidHash:
		return WireInvalidBlockHash
	case chainstate.ErrInvalidSignature:
		return WireInvalidBlockSignature
	default:
		return WireUnknownError
	}
}

// FromErr maps any error chainstate can return onto a WireErr, walking
// BlockError down to its wrapped TxError when present.
// ErrRewardNotBroadcastable maps to WireTxProhibited.
func FromErr(err error) WireErr {
	if err == nil {
		return WireUnknownError
	}
	var berr *chainstate.BlockError
	if errors.As(err, &berr) {
		if berr.Kind == chainstate.ErrTx {
			var terr *chainstate.TxError
			if errors.As(berr.Inner, &terr) {
				return FromTxErr(terr.Kind)
			}
			return WireUnknownError
		}
		return FromBlockErr(berr.Kind)
	}
	var terr *chainstate.TxError
	if errors.As(err, &terr) {
		return FromTxErr(terr.Kind)
	}
	if errors.Is(err, ErrRewardNotBroadcastable) {
		return WireTxProhibited
	}
	return WireUnknownError
}
