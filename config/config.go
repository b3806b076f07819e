// Package config parses graeld's process configuration from flags/env,
// in the teacher's own idiom (see cmd/addsubnetwork/config.go,
// cmd/kaspawallet/config.go): a single struct tagged with go-flags'
// short/long/description/default tags, parsed once at process start.
package config

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/grael-network/graeld/logs"
)

var log = logs.CNFG()

// Config holds every flag graeld's node process accepts.
type Config struct {
	DataDir         string `short:"b" long:"datadir" description:"Directory to store data" default:"~/.graeld/data"`
	LogDir          string `long:"logdir" description:"Directory to log output" default:"~/.graeld/logs"`
	ListenAddr      string `short:"l" long:"listen" description:"Address to listen for wire protocol connections" default:"127.0.0.1:8733"`
	DebugLevel      string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- Alternatively, level specifications of the form <subsystem>=<level>,<subsystem2>=<level2>,... can be used to set the log level for individual subsystems" default:"info"`
	TxExpiryGraceMs uint64 `long:"txexpirygrace" description:"Grace period (ms) reported in the startup log; the replay-index purge always uses the fixed 30ms chainparams.TxExpiryAdjustment" default:"30"`
}

// Parse parses os.Args[1:] into a Config, validating and defaulting
// fields the way every cmd/*/config.go in the teacher does.
func Parse() (*Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args into a Config. Split out from Parse so tests can
// exercise flag parsing without depending on the test binary's own
// os.Args.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := logs.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, errors.Wrap(err, "config: parse debug level")
	}

	if cfg.ListenAddr == "" {
		return nil, errors.New("config: listen address must not be empty")
	}

	log.Infof("resolved config: datadir=%s logdir=%s listen=%s debuglevel=%s txexpirygrace=%dms",
		cfg.DataDir, cfg.LogDir, cfg.ListenAddr, cfg.DebugLevel, cfg.TxExpiryGraceMs)

	return cfg, nil
}
