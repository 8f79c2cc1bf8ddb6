package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/ormasoftchile/mcpstd/pkg/history"
	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/metrics"
	"github.com/ormasoftchile/mcpstd/pkg/report"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

const defaultWidth = 100

// newLogger returns a JSON logger on stderr. Only warnings are shown unless
// verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

// termWidth is the stdout width, or defaultWidth when stdout is not a
// terminal.
func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// session carries what stays open across runs of one command: the history
// store and the metrics registry.
type session struct {
	configPath  string
	writeReport bool
	metricsPath string

	history *history.Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

type sessionOptions struct {
	ConfigPath  string
	NoReport    bool
	HistoryPath string
	MetricsPath string
}

func newSession(opts sessionOptions, log *zap.Logger) (*session, error) {
	s := &session{
		configPath:  opts.ConfigPath,
		writeReport: !opts.NoReport,
		metricsPath: opts.MetricsPath,
		log:         log,
	}
	if opts.HistoryPath != "" {
		st, err := history.Open(opts.HistoryPath)
		if err != nil {
			return nil, exitWrap(exitInfra, "open history", err)
		}
		s.history = st
	}
	if opts.MetricsPath != "" {
		s.metrics = metrics.New()
	}
	return s, nil
}

func (s *session) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

// validate runs one validation of root, made absolute, and persists its
// outputs. The report is returned whenever the run completed, even if
// persisting failed.
func (s *session) validate(ctx context.Context, root string) (*manager.Report, error) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	std, cfgPath, err := standard.Resolve(root, s.configPath)
	if err != nil {
		return nil, exitWrap(exitInfra, "load config", err)
	}
	if cfgPath != "" {
		s.log.Debug("config loaded", zap.String("path", cfgPath))
	}

	rep, err := manager.New(root, std, s.log).Run(ctx)
	if err != nil {
		return rep, exitWrap(exitInfra, "validation interrupted", err)
	}

	var errs []error
	if s.writeReport && isDir(root) {
		path, err := report.Write(rep)
		if err != nil {
			errs = append(errs, exitWrap(exitInfra, "write report", err))
		} else {
			s.log.Info("report written", zap.String("path", path))
		}
	}
	if s.history != nil {
		if err := s.history.Record(ctx, rep); err != nil {
			errs = append(errs, exitWrap(exitInfra, "record history", err))
		}
	}
	if s.metrics != nil {
		s.metrics.Observe(rep)
		if err := s.metrics.WriteTextfile(s.metricsPath); err != nil {
			errs = append(errs, exitWrap(exitInfra, "write metrics", err))
		}
	}
	return rep, errors.Join(errs...)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
