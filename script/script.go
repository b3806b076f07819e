// Package script defines the opaque script byte format and the external
// script-evaluation boundary. Per spec.md §1, opcode dispatch lives outside
// this repository's scope — the core only requires a capability to evaluate
// a script and get back a boolean result.
package script

import "github.com/grael-network/graeld/crypto"

// Script is an opaque byte program, interpreted only by an Engine.
type Script []byte

// Hash derives the canonical ScriptHash of a script: double-SHA256 of its
// raw bytes.
func (s Script) Hash() crypto.Digest {
	return crypto.DoubleSHA256(s)
}

// PrecomputedContext is whatever ambient data an Engine needs to evaluate a
// script against a specific transaction or block — e.g. the signed message,
// the call function index and arguments for a TransferTx. This repository
// does not interpret it; it is opaque payload handed through to the Engine.
type PrecomputedContext struct {
	// Message is the signed preimage the script may use to validate
	// signatures against (e.g. a txid).
	Message []byte
	// CallFn and Args carry a TransferTx's call_fn/args fields, when
	// evaluating a transfer's spending script. Zero values otherwise.
	CallFn uint8
	Args   []byte
}

// Engine evaluates a script against a precomputed context and reports
// whether it authorizes the action. Implementations may return a non-nil
// error for malformed scripts, resource exhaustion, or any other
// evaluation failure; eval itself never panics.
type Engine interface {
	Eval(ctx PrecomputedContext, s Script) (bool, error)
}

// NopEngine authorizes every script. cmd/graeld and the tests run with it,
// so the node as shipped performs no script authorization; real script
// evaluation is an external collaborator (spec.md §1).
type NopEngine struct{}

// Eval always reports true.
func (NopEngine) Eval(ctx PrecomputedContext, s Script) (bool, error) {
	return true, nil
}
