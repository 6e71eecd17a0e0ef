// Package logging builds the application's zap logger: a readable console
// stream plus a JSON log file per run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	Verbose bool      // Debug level on the console
	Dir     string    // Directory for the JSON log file; empty disables it
	Console io.Writer // Defaults to os.Stderr
	Now     func() time.Time
}

// New returns a logger and the path of its log file, if any. The file always
// records at debug level.
func New(o Options) (*zap.Logger, string, error) {
	if o.Console == nil {
		o.Console = os.Stderr
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	consoleLevel := zapcore.InfoLevel
	if o.Verbose {
		consoleLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if f, ok := o.Console.(*os.File); !ok || !isTerminal(f) {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(o.Console), consoleLevel),
	}

	var path string
	if o.Dir != "" {
		if err := os.MkdirAll(o.Dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("creating log dir: %w", err)
		}
		path = filepath.Join(o.Dir, "extraction_"+o.Now().Format("20060102_150405")+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, "", fmt.Errorf("opening log file: %w", err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.Lock(f), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), path, nil
}
