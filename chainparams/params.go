// Package chainparams holds the protocol-wide constants referenced by every
// other package: the chain identifier mixed into every txid, the fee curve
// inputs, and the size limits enforced during transaction validation.
package chainparams

import "github.com/grael-network/graeld/asset"

// ChainID is mixed into every txid preimage so that signatures collected on
// one network can never be replayed on another.
var ChainID = []byte("graelnet-v1")

const (
	// FeeResetWindow is the number of empty blocks (with respect to a given
	// script hash) after which that address's fee multiplier resets to its
	// floor.
	FeeResetWindow = 3

	// NetworkFeeAvgWindow is the number of blocks averaged over when
	// computing the network-wide fee component.
	NetworkFeeAvgWindow = 5

	// MaxTxSignatures bounds the number of SigPairs a transaction may carry.
	MaxTxSignatures = 8

	// MaxMemoByteSize bounds a TransferTx's memo field.
	MaxMemoByteSize = 512

	// MaxScriptByteSize bounds any Script carried by a transaction.
	MaxScriptByteSize = 2048

	// TxExpiryAdjustment is the grace period (in milliseconds) subtracted
	// from "now" before a tx-expiry entry is eligible for purge.
	TxExpiryAdjustment = 30
)

// GraelFeeMin, GraelFeeMult and GraelFeeNetMult parameterize the two
// exponential fee curves of §4.2.4: address fee and network fee.
var (
	GraelFeeMin     = asset.MustFromString("0.00010")
	GraelFeeMult    = asset.MustFromString("1.1")
	GraelFeeNetMult = asset.MustFromString("1.05")
)
