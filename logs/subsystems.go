package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrick/logrotate/rotator"
)

// SubsystemTags names this node's subsystems, replacing the teacher's
// btcd-specific set (ADXR, AMGR, BCDB, ...) with graeld's own: chain
// state, replicated log, block store, chain index, wire protocol and
// config.
var SubsystemTags = struct {
	CHST, RLOG, BSTR, IDX, WIRE, CNFG string
}{
	CHST: "CHST",
	RLOG: "RLOG",
	BSTR: "BSTR",
	IDX:  "IDX",
	WIRE: "WIRE",
	CNFG: "CNFG",
}

var (
	logRotator *rotator.Rotator
	initiated  bool

	backendLog = NewBackend(stdoutWriter{})

	chstLog = backendLog.Logger(SubsystemTags.CHST)
	rlogLog = backendLog.Logger(SubsystemTags.RLOG)
	bstrLog = backendLog.Logger(SubsystemTags.BSTR)
	idxLog  = backendLog.Logger(SubsystemTags.IDX)
	wireLog = backendLog.Logger(SubsystemTags.WIRE)
	cnfgLog = backendLog.Logger(SubsystemTags.CNFG)

	subsystemLoggers = map[string]*Logger{
		SubsystemTags.CHST: chstLog,
		SubsystemTags.RLOG: rlogLog,
		SubsystemTags.BSTR: bstrLog,
		SubsystemTags.IDX:  idxLog,
		SubsystemTags.WIRE: wireLog,
		SubsystemTags.CNFG: cnfgLog,
	}
)

// stdoutWriter writes to stdout, then to the rotator once InitLogRotator
// has run — mirroring logWriter in the teacher's logger package.
type stdoutWriter struct{}

func (stdoutWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if initiated {
		logRotator.Write(p)
	}
	return len(p), nil
}

// InitLogRotator must be called once at process start, before any
// subsystem logger is used, to wire file rotation in behind stdout.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("logs: create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("logs: create file rotator: %w", err)
	}
	logRotator = r
	initiated = true
	return nil
}

// Subsystem returns the Logger for tag, if one exists.
func Subsystem(tag string) (*Logger, bool) {
	l, ok := subsystemLoggers[tag]
	return l, ok
}

// SetLevel sets a single subsystem's level. Unknown subsystems are
// ignored.
func SetLevel(tag string, level Level) {
	if l, ok := subsystemLoggers[tag]; ok {
		l.SetLevel(level)
	}
}

// SetAllLevels sets every subsystem's level at once.
func SetAllLevels(level Level) {
	for _, l := range subsystemLoggers {
		l.SetLevel(level)
	}
}

// SupportedSubsystems returns every known subsystem tag, sorted.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystemLoggers))
	for tag := range subsystemLoggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ParseAndSetDebugLevels parses a debug-level spec, either a single level
// applied to every subsystem ("info") or a comma-separated list of
// tag=level pairs ("CHST=debug,WIRE=trace"), mirroring
// ParseAndSetDebugLevels in the teacher's logger package.
func ParseAndSetDebugLevels(spec string) error {
	if !strings.Contains(spec, ",") && !strings.Contains(spec, "=") {
		level, ok := LevelFromString(spec)
		if !ok {
			return fmt.Errorf("logs: invalid debug level %q", spec)
		}
		SetAllLevels(level)
		return nil
	}

	for _, pair := range strings.Split(spec, ",") {
		fields := strings.SplitN(pair, "=", 2)
		if len(fields) != 2 {
			return fmt.Errorf("logs: invalid subsystem/level pair %q", pair)
		}
		tag, levelStr := fields[0], fields[1]
		if _, ok := Subsystem(tag); !ok {
			return fmt.Errorf("logs: unknown subsystem %q (supported: %s)", tag, strings.Join(SupportedSubsystems(), ", "))
		}
		level, ok := LevelFromString(levelStr)
		if !ok {
			return fmt.Errorf("logs: invalid debug level %q", levelStr)
		}
		SetLevel(tag, level)
	}
	return nil
}

// CHST returns the chain state subsystem's Logger.
func CHST() *Logger { return chstLog }

// RLOG returns the replicated log subsystem's Logger.
func RLOG() *Logger { return rlogLog }

// BSTR returns the block store subsystem's Logger.
func BSTR() *Logger { return bstrLog }

// IDX returns the chain index subsystem's Logger.
func IDX() *Logger { return idxLog }

// WIRE returns the wire protocol subsystem's Logger.
func WIRE() *Logger { return wireLog }

// CNFG returns the config subsystem's Logger.
func CNFG() *Logger { return cnfgLog }
