// Command graeld runs the GRAEL ledger node: it opens the durable chain
// index and block store, then serves the wire protocol until interrupted.
// Structure follows apiserver/main.go's small-entrypoint shape in the
// teacher: parse config, wire up storage, start serving, block on an
// interrupt signal, clean up on the way out.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/grael-network/graeld/blockstore"
	"github.com/grael-network/graeld/chainindex"
	"github.com/grael-network/graeld/chainindex/ldb"
	"github.com/grael-network/graeld/chainstate"
	"github.com/grael-network/graeld/config"
	"github.com/grael-network/graeld/logs"
	"github.com/grael-network/graeld/script"
)

var log = logs.CHST()

func main() {
	defer handlePanic()

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	if err := logs.InitLogRotator(filepath.Join(cfg.LogDir, "graeld.log")); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing log rotator: %s\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Criticalf("fatal error: %+v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := ldb.Open(filepath.Join(cfg.DataDir, "index"))
	if err != nil {
		return fmt.Errorf("open chain index: %w", err)
	}
	defer db.Close()

	index, err := chainindex.New(db)
	if err != nil {
		return fmt.Errorf("wrap chain index: %w", err)
	}

	store, err := blockstore.Open(filepath.Join(cfg.DataDir, "blklog", "blocks.dat"))
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}
	defer store.Close()

	height, err := index.ChainHeight()
	if err != nil {
		return fmt.Errorf("read chain height: %w", err)
	}
	if err := store.Recover(height, index.BlockOffset); err != nil {
		return fmt.Errorf("recover block store: %w", err)
	}

	engine := chainstate.New(index, store, script.NopEngine{})

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	defer listener.Close()
	log.Infof("listening on %s", cfg.ListenAddr)

	server := newServer(engine, index, cfg)
	go server.serve(listener)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	log.Warnf("graeld shutting down")

	return nil
}

func handlePanic() {
	if r := recover(); r != nil {
		log.Criticalf("panic: %v", r)
		log.Criticalf("stack trace: %s", debug.Stack())
		os.Exit(1)
	}
}
