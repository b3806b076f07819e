package main

import (
	"bytes"
	"io"
	"net"
	"time"

	"github.com/grael-network/graeld/block"
	"github.com/grael-network/graeld/chainindex"
	"github.com/grael-network/graeld/chainstate"
	"github.com/grael-network/graeld/config"
	"github.com/grael-network/graeld/logs"
	"github.com/grael-network/graeld/tx"
	"github.com/grael-network/graeld/wire"
)

var wireLog = logs.WIRE()

// server dispatches wire.Frame requests against a chainstate.Engine, one
// goroutine per connection, in the teacher's own accept-loop shape
// (apiserver/main.go: a plain net.Listener, Accept in a loop, handle each
// connection independently).
type server struct {
	engine *chainstate.Engine
	index  *chainindex.Index
	cfg    *config.Config
}

func newServer(engine *chainstate.Engine, index *chainindex.Index, cfg *config.Config) *server {
	return &server{engine: engine, index: index, cfg: cfg}
}

func (s *server) serve(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			wireLog.Errorf("accept: %s", err)
			return
		}
		go s.handle(conn)
	}
}

func (s *server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		frame, err := wire.DecodeFrame(conn)
		if err != nil {
			if err != io.EOF {
				wireLog.Warnf("decode frame from %s: %s", conn.RemoteAddr(), err)
			}
			return
		}
		resp, err := s.dispatch(frame)
		if err != nil {
			resp = wire.NewErrorFrame(err)
		}
		if err := wire.EncodeFrame(conn, resp); err != nil {
			wireLog.Warnf("encode frame to %s: %s", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *server) dispatch(frame wire.Frame) (wire.Frame, error) {
	r := bytes.NewReader(frame.Payload)
	switch frame.Type {
	case wire.MsgGetProperties:
		return s.handleGetProperties()
	case wire.MsgGetBlock:
		return s.handleGetBlock(r)
	case wire.MsgGetAddressInfo:
		return s.handleGetAddressInfo(r)
	case wire.MsgBroadcast:
		return s.handleBroadcast(r)
	default:
		return wire.Frame{}, wire.ErrUnknownMsgType
	}
}

func (s *server) handleGetProperties() (wire.Frame, error) {
	props, err := s.engine.GetProperties()
	if err != nil {
		return wire.Frame{}, err
	}
	resp := wire.GetPropertiesResp{
		Height:      props.Height,
		HasOwner:    props.Owner != nil,
		Owner:       props.Owner,
		TokenSupply: props.TokenSupply,
		HasFee:      props.HasFee,
		NetworkFee:  props.NetworkFee,
	}
	var buf bytes.Buffer
	if err := wire.EncodeGetPropertiesResp(&buf, resp); err != nil {
		return wire.Frame{}, err
	}
	return wire.Frame{Type: wire.MsgGetProperties, Payload: buf.Bytes()}, nil
}

func (s *server) handleGetBlock(r *bytes.Reader) (wire.Frame, error) {
	req, err := wire.DecodeGetBlockReq(r)
	if err != nil {
		return wire.Frame{}, err
	}
	blk, err := s.engine.GetBlock(req.Height)
	if err != nil {
		return wire.Frame{}, err
	}
	var buf bytes.Buffer
	if blk == nil {
		if err := wire.EncodeErrorMsg(&buf, wire.ErrorMsg{Code: wire.WireInvalidHeight, Detail: "no block at requested height"}); err != nil {
			return wire.Frame{}, err
		}
		return wire.Frame{Type: wire.MsgError, Payload: buf.Bytes()}, nil
	}
	if err := block.Encode(&buf, blk); err != nil {
		return wire.Frame{}, err
	}
	return wire.Frame{Type: wire.MsgGetBlock, Payload: buf.Bytes()}, nil
}

func (s *server) handleGetAddressInfo(r *bytes.Reader) (wire.Frame, error) {
	req, err := wire.DecodeGetAddressInfoReq(r)
	if err != nil {
		return wire.Frame{}, err
	}
	balance, err := s.engine.GetBalance(req.ScriptHash)
	if err != nil {
		return wire.Frame{}, err
	}
	fee, _, err := s.engine.GetAddressFee(req.ScriptHash, nil)
	if err != nil {
		return wire.Frame{}, err
	}
	resp := wire.GetAddressInfoResp{Balance: balance, AddressFee: fee, PendingTxCount: 0}
	var buf bytes.Buffer
	if err := wire.EncodeGetAddressInfoResp(&buf, resp); err != nil {
		return wire.Frame{}, err
	}
	return wire.Frame{Type: wire.MsgGetAddressInfo, Payload: buf.Bytes()}, nil
}

// handleBroadcast runs a submitted transaction through chainstate.VerifyTx
// and reports back its txid on success. It does not append the
// transaction to a block: block assembly and leader election belong to
// the replicated log's caller (spec.md §1's external block-production
// collaborator), which this node does not yet wire up.
func (s *server) handleBroadcast(r *bytes.Reader) (wire.Frame, error) {
	req, err := wire.DecodeBroadcastReq(r)
	if err != nil {
		return wire.Frame{}, err
	}
	precomp, err := tx.Precompute(req.Tx)
	if err != nil {
		return wire.Frame{}, err
	}
	cfg := chainstate.VerifyConfig{NowMs: uint64(time.Now().UnixMilli())}
	if err := s.engine.VerifyTx(precomp, nil, cfg); err != nil {
		return wire.Frame{}, err
	}
	resp := wire.BroadcastResp{TxId: precomp.TxId()}
	var buf bytes.Buffer
	if err := wire.EncodeBroadcastResp(&buf, resp); err != nil {
		return wire.Frame{}, err
	}
	return wire.Frame{Type: wire.MsgBroadcast, Payload: buf.Bytes()}, nil
}
