package chainstate

import (
	"github.com/grael-network/graeld/chainparams"
	"github.com/grael-network/graeld/script"
	"github.com/grael-network/graeld/tx"
)

// VerifyConfig carries the caller context VerifyTx needs beyond the
// pending transaction set: whether a RewardTx is permitted (only true
// during block validation) and the caller's wall-clock time. VerifyTx
// does not read NowMs; InsertBlock purges the tx-expiry index (§5.8)
// with its own clock reading. Replay rejection is a pure presence check
// against the index and does not depend on NowMs.
type VerifyConfig struct {
	SkipReward bool
	NowMs      uint64
}

// VerifyTx implements spec.md §4.2.2's universal and per-variant checks,
// in the stated order, failing fast on the first violation.
func (e *Engine) VerifyTx(p *tx.PrecomputedTx, pendingTxs []*tx.PrecomputedTx, cfg VerifyConfig) error {
	t := p.Tx()
	base := t.Base()

	if len(base.Signatures) > chainparams.MaxTxSignatures {
		return txErr(ErrTooManySignatures)
	}

	if seen, err := e.index.HasExpired(p.TxId()); err != nil {
		return err
	} else if seen {
		return txErr(ErrTxReplayed)
	}

	switch v := t.(type) {
	case *tx.OwnerTx:
		return e.verifyOwner(v, p.TxId())
	case *tx.MintTx:
		return e.verifyMint(v, p.TxId(), pendingTxs)
	case *tx.CreateAccountTx:
		return e.verifyCreateAccount(v)
	case *tx.TransferTx:
		return e.verifyTransfer(v, p.TxId(), pendingTxs)
	case *tx.RewardTx:
		return e.verifyReward(v, cfg)
	default:
		return txErr(ErrTxProhibited)
	}
}

func (e *Engine) verifyOwner(t *tx.OwnerTx, txid tx.TxId) error {
	if t.Base().Fee != 0 {
		return txErr(ErrInvalidFeeAmount)
	}
	if len(t.Script) > chainparams.MaxScriptByteSize {
		return txErr(ErrTxTooLarge)
	}

	owner, hasOwner, err := e.index.NetworkOwner()
	if err != nil {
		return err
	}
	if hasOwner && owner.Wallet != t.Script.Hash() {
		return txErr(ErrScriptHashMismatch)
	}

	return e.evalScript(t.Script, script.PrecomputedContext{Message: txid[:]})
}

func (e *Engine) verifyMint(t *tx.MintTx, txid tx.TxId, pendingTxs []*tx.PrecomputedTx) error {
	if t.Base().Fee != 0 {
		return txErr(ErrInvalidFeeAmount)
	}
	if len(t.Script) > chainparams.MaxScriptByteSize {
		return txErr(ErrTxTooLarge)
	}

	owner, hasOwner, err := e.index.NetworkOwner()
	if err != nil {
		return err
	}
	if hasOwner && owner.Wallet != t.Script.Hash() {
		return txErr(ErrScriptHashMismatch)
	}

	if err := e.evalScript(t.Script, script.PrecomputedContext{Message: txid[:]}); err != nil {
		return err
	}

	bal, ok, err := e.GetBalanceWithTxs(t.To, pendingTxs)
	if err != nil {
		return err
	}
	if !ok {
		return txErr(ErrArithmetic)
	}
	if _, err := bal.Add(t.Amount); err != nil {
		return txErr(ErrArithmetic)
	}

	supply, err := e.index.TokenSupply()
	if err != nil {
		return err
	}
	if _, err := supply.Add(t.Amount); err != nil {
		return txErr(ErrArithmetic)
	}
	return nil
}

func (e *Engine) verifyCreateAccount(t *tx.CreateAccountTx) error {
	if len(t.Account.Script) > chainparams.MaxScriptByteSize {
		return txErr(ErrTxTooLarge)
	}
	return nil
}

func (e *Engine) verifyTransfer(t *tx.TransferTx, txid tx.TxId, pendingTxs []*tx.PrecomputedTx) error {
	if len(t.Script) > chainparams.MaxScriptByteSize {
		return txErr(ErrTxTooLarge)
	}
	if len(t.Memo) > chainparams.MaxMemoByteSize {
		return txErr(ErrTxTooLarge)
	}

	total, ok, err := e.GetTotalFee(t.From, pendingTxs)
	if err != nil {
		return err
	}
	if !ok {
		return txErr(ErrArithmetic)
	}
	if t.Base().Fee.Cmp(total) < 0 {
		return txErr(ErrInvalidFeeAmount)
	}

	if t.From != t.Script.Hash() {
		return txErr(ErrScriptHashMismatch)
	}

	if err := e.evalScript(t.Script, script.PrecomputedContext{
		Message: txid[:],
		CallFn:  t.CallFn,
		Args:    t.Args,
	}); err != nil {
		return err
	}

	bal, ok, err := e.GetBalanceWithTxs(t.From, pendingTxs)
	if err != nil {
		return err
	}
	if !ok {
		return txErr(ErrArithmetic)
	}
	spend, err := t.Base().Fee.Add(t.Amount)
	if err != nil {
		return txErr(ErrArithmetic)
	}
	projected, err := bal.Sub(spend)
	if err != nil {
		return txErr(ErrArithmetic)
	}
	if projected.Sign() < 0 {
		return txErr(ErrInsufficientBalance)
	}
	return nil
}

// verifyReward enforces spec.md §4.2.2's Reward invariants. A violation
// here means block production built a malformed reward, which is an
// internal bug, not bad user input — spec.md §7 calls for a panic.
func (e *Engine) verifyReward(t *tx.RewardTx, cfg VerifyConfig) error {
	if !cfg.SkipReward {
		return txErr(ErrTxProhibited)
	}
	if t.Base().Fee != 0 || len(t.Base().Signatures) != 0 || t.Base().Expiry != 0 {
		panic("chainstate: malformed reward transaction reached VerifyTx")
	}
	return nil
}

func (e *Engine) evalScript(s script.Script, ctx script.PrecomputedContext) error {
	ok, err := e.scripts.Eval(ctx, s)
	if err != nil {
		return txErrDetail(ErrScriptEval, err)
	}
	if !ok {
		return txErr(ErrScriptRetFalse)
	}
	return nil
}
