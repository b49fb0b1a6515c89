package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/doridoridoriand/pingtray/internal/probe"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

// FileName is the log file written inside Options.Dir.
const FileName = "pingtray.log"

// Options configures New.
type Options struct {
	// Dir holds the rotated log file. Empty disables file output.
	Dir   string
	Level string
	// Console also writes human-readable lines to stderr.
	Console bool
}

// New builds the application logger: JSON lines to a rotated file, optionally
// teed to stderr.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level))
	}
	if opts.Console {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// ParseLevel parses a log level string; empty means info.
func ParseLevel(value string) (zapcore.Level, error) {
	if value == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(value)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", value, err)
	}
	return level, nil
}

// Target returns the fields identifying a target.
func Target(t targets.Target) zap.Field {
	return zap.Object("target", targetMarshaler(t))
}

type targetMarshaler targets.Target

func (t targetMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", t.Address)
	if t.Label != "" {
		enc.AddString("label", t.Label)
	}
	return nil
}

// LogProbeOutcome logs a single probe outcome at debug level for successes
// and info level for failures.
func LogProbeOutcome(logger *zap.Logger, outcome probe.Outcome) {
	fields := []zap.Field{
		zap.String("address", outcome.Address),
		zap.Bool("reachable", outcome.Reachable),
		zap.String("detail", outcome.Detail),
	}
	if outcome.HasLatency() {
		fields = append(fields, zap.Float64("latency_ms", float64(outcome.Latency.Microseconds())/1000))
	}
	if outcome.Reachable {
		logger.Debug("probe_outcome", fields...)
		return
	}
	logger.Info("probe_outcome", fields...)
}

// LogStoreLoad logs a targets file load.
func LogStoreLoad(logger *zap.Logger, path string, count int, err error) {
	if err != nil {
		logger.Error("store_load_failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("store_loaded", zap.String("path", path), zap.Int("targets", count))
}
