package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// Runner discovers and executes scenarios.
type Runner struct {
	Timeout time.Duration // per-scenario timeout
	Tags    []string      // when set, only scenarios carrying one of these run
	Log     *zap.Logger
}

// Info describes a discovered scenario directory.
type Info struct {
	Name      string // directory name (e.g. "circular-references")
	Dir       string // path to the scenario directory, the validated root
	HasExpect bool   // whether expect.yaml exists
}

// Discover lists the scenario directories directly under dir in name order.
// Every subdirectory is a scenario; those without expect.yaml are skipped
// when run.
func Discover(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}
	var scenarios []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		scenDir := filepath.Join(dir, entry.Name())
		_, statErr := os.Stat(filepath.Join(scenDir, ExpectFile))
		scenarios = append(scenarios, Info{
			Name:      entry.Name(),
			Dir:       scenDir,
			HasExpect: statErr == nil,
		})
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

// RunAll executes every scenario under dir.
func (r *Runner) RunAll(ctx context.Context, dir string, failFast bool) (*Output, error) {
	scenarios, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	output := &Output{Dir: dir}
	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return output, err
		}
		result := r.run(ctx, s)
		output.Scenarios = append(output.Scenarios, result)
		output.Summary.Add(result)

		if failFast && (result.Status == StatusFailed || result.Status == StatusError) {
			break
		}
	}
	return output, nil
}

// RunScenario executes the single scenario named name under dir.
func (r *Runner) RunScenario(ctx context.Context, dir, name string) (*Result, error) {
	scenarios, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	for _, s := range scenarios {
		if s.Name == name {
			result := r.run(ctx, s)
			return &result, nil
		}
	}
	return nil, fmt.Errorf("scenario %q not found", name)
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) run(ctx context.Context, s Info) Result {
	start := time.Now()
	result := Result{Name: s.Name, Dir: s.Dir}
	done := func(status string) Result {
		result.Status = status
		result.DurationMs = time.Since(start).Milliseconds()
		r.logger().Debug("scenario finished", zap.String("scenario", s.Name), zap.String("status", status))
		return result
	}

	if !s.HasExpect {
		return done(StatusSkipped)
	}
	exp, err := LoadExpectation(filepath.Join(s.Dir, ExpectFile))
	if err != nil {
		result.Error = fmt.Sprintf("load %s: %v", ExpectFile, err)
		return done(StatusError)
	}
	result.Description = exp.Description
	if !r.selected(exp) {
		return done(StatusSkipped)
	}

	obs, runID, err := r.observe(ctx, s.Dir)
	result.RunID = runID
	if err != nil {
		result.Error = err.Error()
		return done(StatusError)
	}

	result.Assertions = Evaluate(exp, obs)
	if HasFailures(result.Assertions) {
		return done(StatusFailed)
	}
	return done(StatusPassed)
}

func (r *Runner) selected(exp *Expectation) bool {
	if len(r.Tags) == 0 {
		return true
	}
	for _, t := range r.Tags {
		if exp.HasTag(t) {
			return true
		}
	}
	return false
}

// observe validates root with only its own .mcpstd.yaml applied, so a
// scenario does not depend on the caller's environment.
func (r *Runner) observe(ctx context.Context, root string) (*Observed, string, error) {
	std := standard.Default()
	cfgPath := filepath.Join(root, standard.ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := standard.LoadConfigFile(cfgPath)
		if err != nil {
			return nil, "", err
		}
		if err := cfg.Apply(std); err != nil {
			return nil, "", fmt.Errorf("config %s: %w", cfgPath, err)
		}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	rep, err := manager.New(root, std, r.logger()).Run(ctx)
	if err != nil {
		return nil, rep.RunID, fmt.Errorf("validation: %w", err)
	}

	obs := &Observed{
		Success:  rep.Success(),
		Finished: rep.Finished,
		Errors:   rep.ErrorCount,
		Warnings: rep.WarningCount,
		Critical: rep.Critical(),
	}
	for _, res := range rep.Results {
		obs.Messages = append(obs.Messages, res.Message)
	}
	return obs, rep.RunID, nil
}
