// Package block implements the block model from spec.md §3/§4.3: header
// fields, the transaction merkle root, block identity hashing, and the
// canonical codec.
package block

import (
	"bytes"
	"io"

	"github.com/grael-network/graeld/crypto"
	"github.com/grael-network/graeld/serialize"
	"github.com/grael-network/graeld/tx"
)

// Block is a single entry in the chain: a header plus the ordered
// transactions it carries, signed once by the current network owner.
type Block struct {
	Height       uint64
	PreviousHash crypto.Digest
	TxMerkleRoot crypto.Digest
	Timestamp    uint64 // milliseconds since the Unix epoch
	Transactions []*tx.PrecomputedTx
	Sig          crypto.SigPair
}

// New builds a block over txs, deriving its merkle root. It does not sign
// the block; callers sign the result of Hash() themselves.
func New(height uint64, previousHash crypto.Digest, timestamp uint64, txs []*tx.PrecomputedTx) *Block {
	ids := make([]crypto.Digest, len(txs))
	for i, t := range txs {
		ids[i] = crypto.Digest(t.TxId())
	}
	return &Block{
		Height:       height,
		PreviousHash: previousHash,
		TxMerkleRoot: MerkleRoot(ids),
		Timestamp:    timestamp,
		Transactions: txs,
	}
}

// Hash derives the block's identity: DoubleSHA256 of its encoded header
// fields, excluding the signature, so the signer signs the block's
// identity rather than something that includes its own signature.
func (b *Block) Hash() (crypto.Digest, error) {
	var buf bytes.Buffer
	if err := b.encodeHeader(&buf); err != nil {
		return crypto.Digest{}, err
	}
	return crypto.DoubleSHA256(buf.Bytes()), nil
}

func (b *Block) encodeHeader(w io.Writer) error {
	if err := serialize.WriteUint64(w, b.Height); err != nil {
		return err
	}
	if err := serialize.WriteDigest(w, b.PreviousHash); err != nil {
		return err
	}
	if err := serialize.WriteDigest(w, b.TxMerkleRoot); err != nil {
		return err
	}
	return serialize.WriteUint64(w, b.Timestamp)
}

// Encode writes b's full canonical encoding: header, transaction count,
// each transaction (with its signatures), then the block signature.
func Encode(w io.Writer, b *Block) error {
	if err := b.encodeHeader(w); err != nil {
		return err
	}
	if err := serialize.WriteUint32(w, uint32(len(b.Transactions))); err != nil {
		return err
	}
	for _, t := range b.Transactions {
		if err := tx.Encode(w, t.Tx()); err != nil {
			return err
		}
	}
	return serialize.WriteSigPair(w, b.Sig)
}

// Decode reads a block previously written by Encode. Transaction txids are
// recomputed as each transaction is decoded, rather than trusted off the
// wire.
func Decode(r io.Reader) (*Block, error) {
	b := &Block{}
	var err error
	if b.Height, err = serialize.ReadUint64(r); err != nil {
		return nil, err
	}
	if b.PreviousHash, err = serialize.ReadDigest(r); err != nil {
		return nil, err
	}
	if b.TxMerkleRoot, err = serialize.ReadDigest(r); err != nil {
		return nil, err
	}
	if b.Timestamp, err = serialize.ReadUint64(r); err != nil {
		return nil, err
	}

	count, err := serialize.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	b.Transactions = make([]*tx.PrecomputedTx, 0, count)
	for i := uint32(0); i < count; i++ {
		t, err := tx.Decode(r)
		if err != nil {
			return nil, err
		}
		p, err := tx.Precompute(t)
		if err != nil {
			return nil, err
		}
		b.Transactions = append(b.Transactions, p)
	}

	if b.Sig, err = serialize.ReadSigPair(r); err != nil {
		return nil, err
	}
	return b, nil
}
