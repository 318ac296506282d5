// Package driver orchestrates the header-generation pipeline: crate
// parsing, IR building, conditional pruning, specialization, ordering,
// emission and the final write. Stages run in a fixed sequence; only the
// per-crate parse step is parallel.
package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/defermelowie/cbindgen/internal/config"
	"github.com/defermelowie/cbindgen/internal/dag"
	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/emit"
	"github.com/defermelowie/cbindgen/internal/ir"
	"github.com/defermelowie/cbindgen/internal/mono"
	"github.com/defermelowie/cbindgen/internal/observ"
	"github.com/defermelowie/cbindgen/internal/source"
	"github.com/defermelowie/cbindgen/internal/syntax"
)

// ErrDiagnostics signals that the pipeline stopped because errors were
// reported; the details live in Result.Bag.
var ErrDiagnostics = errors.New("errors were reported")

// Options control a single Generate run.
type Options struct {
	// Crates overrides the crate roots from the configuration.
	Crates []string
	// Output is the header path. Empty means render only; the caller
	// decides what to do with Result.Header.
	Output string

	Jobs           int
	MaxDiagnostics int

	Cache *DiskCache
	Sink  ProgressSink
	Timer *observ.Timer
}

// Result carries everything a caller needs after a run: the rendered
// header, the diagnostics, and the file set for rendering spans.
type Result struct {
	Header []byte
	Files  *source.FileSet
	Bag    *diag.Bag
	Events []emit.Event
	Crates []*CrateResult
}

// Generate runs the full pipeline for the given configuration. On
// ErrDiagnostics the Result is still populated as far as the pipeline got;
// no output file is written unless every stage succeeded.
func Generate(ctx context.Context, conf config.Config, opts Options) (*Result, error) {
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 100
	}

	res := &Result{
		Files: source.NewFileSet(),
		Bag:   diag.NewBag(maxDiag),
	}
	reporter := diag.BagReporter{Bag: res.Bag}

	roots := opts.Crates
	if len(roots) == 0 {
		roots = conf.Parse.Crates
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = conf.Parse.Jobs
	}

	// Parse.
	for _, root := range roots {
		notify(opts.Sink, Event{Crate: root, Stage: StageParse, Status: StatusQueued})
	}
	phase := begin(opts.Timer, "parse")
	for _, root := range roots {
		start := time.Now()
		notify(opts.Sink, Event{Crate: root, Stage: StageParse, Status: StatusWorking})
		crate, err := ParseCrate(ctx, res.Files, root, opts.Cache, maxDiag, jobs)
		if err != nil {
			notify(opts.Sink, Event{Crate: root, Stage: StageParse, Status: StatusError, Err: err, Elapsed: time.Since(start)})
			end(opts.Timer, phase, root)
			return res, err
		}
		res.Crates = append(res.Crates, crate)
		res.Bag.Merge(crate.Bag)
		status := StatusDone
		if crate.Bag.HasErrors() {
			status = StatusError
		}
		notify(opts.Sink, Event{Crate: root, Stage: StageParse, Status: status, Elapsed: time.Since(start)})
	}
	end(opts.Timer, phase, "")
	if res.Bag.HasErrors() {
		return res, ErrDiagnostics
	}

	// Build. Declarations keep crate order; indexes become global so the
	// emitter's source-order tie-breaks span all crates.
	var decls []syntax.Decl
	for _, crate := range res.Crates {
		for _, d := range crate.Decls {
			d.Index = len(decls)
			decls = append(decls, d)
		}
	}
	lib, err := stage(opts, res, StageBuild, "build", func() (*ir.Library, error) {
		return ir.Build(decls, reporter)
	})
	if err != nil {
		return res, err
	}

	// Resolve: export naming, conditional pruning, then the include and
	// exclude lists against whatever the environment left alive.
	_, err = stage(opts, res, StageResolve, "resolve", func() (struct{}, error) {
		ir.ApplyExportNames(lib, conf.Naming())
		ir.Prune(lib, conf.Env(), reporter)
		ir.FilterExports(lib, conf.Export.Include, conf.Export.Exclude, reporter)
		if res.Bag.HasErrors() {
			return struct{}{}, ErrDiagnostics
		}
		return struct{}{}, nil
	})
	if err != nil {
		return res, err
	}

	// Specialize.
	maxDepth := conf.Mono.MaxDepth
	if maxDepth <= 0 {
		maxDepth = mono.DefaultMaxDepth
	}
	_, err = stage(opts, res, StageSpecialize, "specialize", func() (struct{}, error) {
		return struct{}{}, mono.Specialize(lib, maxDepth, reporter)
	})
	if err != nil {
		return res, err
	}

	// Order.
	order, err := stage(opts, res, StageOrder, "order", func() (*dag.Order, error) {
		return dag.Compute(lib)
	})
	if err != nil {
		return res, err
	}

	// Emit.
	_, err = stage(opts, res, StageEmit, "emit", func() (struct{}, error) {
		events, emitErr := emit.BuildStream(lib, order)
		if emitErr != nil {
			return struct{}{}, emitErr
		}
		res.Events = events
		res.Header = emit.NewCWriter(conf.Writer()).Render(events)
		return struct{}{}, nil
	})
	if err != nil {
		return res, err
	}

	// Write. Temp file plus rename, so a failed run never leaves a
	// truncated header behind.
	if opts.Output != "" {
		_, err = stage(opts, res, StageWrite, "write", func() (struct{}, error) {
			return struct{}{}, writeFileAtomic(opts.Output, res.Header)
		})
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// stage runs one pipeline step with progress events and timing. A fatal
// *diag.Error from the step is also recorded in the result bag.
func stage[T any](opts Options, res *Result, st Stage, label string, fn func() (T, error)) (T, error) {
	start := time.Now()
	notify(opts.Sink, Event{Stage: st, Status: StatusWorking})
	phase := begin(opts.Timer, label)

	out, err := fn()

	end(opts.Timer, phase, "")
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			res.Bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     de.Code,
				Message:  de.Error(),
			})
			err = ErrDiagnostics
		}
		notify(opts.Sink, Event{Stage: st, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return out, err
	}
	notify(opts.Sink, Event{Stage: st, Status: StatusDone, Elapsed: time.Since(start)})
	return out, nil
}

func begin(t *observ.Timer, name string) int {
	if t == nil {
		return -1
	}
	return t.Begin(name)
}

func end(t *observ.Timer, idx int, note string) {
	if t != nil && idx >= 0 {
		t.End(idx, note)
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".cbindgen-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
