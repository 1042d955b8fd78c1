package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/DrSkyle/filealloc/pkg/config"
	"github.com/DrSkyle/filealloc/pkg/engine/history"
	"github.com/DrSkyle/filealloc/pkg/engine/loader"
	"github.com/DrSkyle/filealloc/pkg/engine/report"
	"github.com/DrSkyle/filealloc/pkg/engine/tetris"
	"github.com/DrSkyle/filealloc/pkg/storage"
	"github.com/DrSkyle/filealloc/pkg/telemetry"
	"github.com/DrSkyle/filealloc/pkg/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrMissingInput indicates the file or node list location was not configured.
var ErrMissingInput = errors.New("missing input")

// Resolver maps a location (path or s3:// URL) to a store and key.
type Resolver func(ctx context.Context, location string) (storage.BlobStore, string, error)

// Result is the outcome of a run.
type Result struct {
	Files     []tetris.File
	Nodes     []*tetris.Node
	Placement *tetris.Placement
	Summary   report.Summary
	// RunID is set when the run was recorded in the ledger.
	RunID string
}

// Engine is the runtime core.
type Engine struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	// Immutable config.
	config config.Config

	// External dependencies.
	resolve Resolver
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time

	meters     metric.MeterProvider
	assigned   metric.Int64Counter
	unassigned metric.Int64Counter
	shutdown   func(context.Context) error
}

const meterName = "filealloc/engine"

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Tracer:  telemetry.Tracer("filealloc/engine"),
		config:  config.Defaults(),
		resolve: storage.Resolve,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.Logger == nil {
		e.Logger = newLogger(e.stderr, e.config)
	}

	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.shutdown = shutdown
		}
	}

	var meter metric.Meter
	if e.meters != nil {
		meter = e.meters.Meter(meterName)
	} else {
		meter = telemetry.Meter(meterName)
	}
	var err error
	if e.assigned, err = meter.Int64Counter("filealloc.files.assigned",
		metric.WithDescription("Files placed on a node")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if e.unassigned, err = meter.Int64Counter("filealloc.files.unassigned",
		metric.WithDescription("Files no node could hold")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	return e, nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithConfig sets raw config.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithResolver replaces storage.Resolve.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolve = r
	}
}

// WithOutput redirects the streams used for stdout output and the summary.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithMeterProvider records the run counters on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meters = mp
	}
}

// WithClock sets the time source used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Verbose {
		opts.Level = slog.LevelDebug
	}
	if cfg.JSONLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Close flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	if e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}

// Run loads both inputs, allocates, writes the placement and records the run.
func (e *Engine) Run(ctx context.Context) (res *Result, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()

	defer e.recoverPanic(ctx, &err)

	format, err := report.ParseFormat(e.config.Format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid format")
		return nil, err
	}

	files, nodes, err := e.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	placement := e.allocate(ctx, files, nodes)
	res = &Result{
		Files:     files,
		Nodes:     nodes,
		Placement: placement,
		Summary:   report.Summarize(files, nodes, placement),
	}
	span.SetAttributes(
		attribute.Int("allocate.assigned", res.Summary.Assigned),
		attribute.Int("allocate.unassigned", res.Summary.Unassigned),
	)

	if err := e.write(ctx, format, res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return nil, err
	}

	if e.config.Summary {
		if err := report.RenderSummary(e.summaryWriter(), files, nodes, placement); err != nil {
			return nil, fmt.Errorf("failed to render summary: %w", err)
		}
	}

	if e.config.HistoryPath != "" {
		if err := e.record(ctx, res); err != nil {
			// The placement is already written; a ledger failure does not undo it.
			e.Logger.Warn("Failed to record run", "history", e.config.HistoryPath, "error", err)
		}
	}

	e.Logger.Info("Allocation complete",
		"files", res.Summary.Files,
		"nodes", res.Summary.Nodes,
		"assigned", res.Summary.Assigned,
		"unassigned", res.Summary.Unassigned,
	)
	return res, nil
}

// Validate loads and parses both inputs without allocating.
func (e *Engine) Validate(ctx context.Context) (*Result, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Validate")
	defer span.End()

	files, nodes, err := e.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}
	return &Result{
		Files:   files,
		Nodes:   nodes,
		Summary: report.Summarize(files, nodes, nil),
	}, nil
}

func (e *Engine) load(ctx context.Context) ([]tetris.File, []*tetris.Node, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.load")
	defer span.End()

	if e.config.FilesPath == "" {
		return nil, nil, fmt.Errorf("%w: file list not specified", ErrMissingInput)
	}
	if e.config.NodesPath == "" {
		return nil, nil, fmt.Errorf("%w: node list not specified", ErrMissingInput)
	}

	var (
		files []tetris.File
		nodes []*tetris.Node
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store, key, err := e.resolve(gctx, e.config.FilesPath)
		if err != nil {
			return err
		}
		files, err = loader.LoadFiles(gctx, store, key)
		return err
	})
	g.Go(func() error {
		store, key, err := e.resolve(gctx, e.config.NodesPath)
		if err != nil {
			return err
		}
		nodes, err = loader.LoadNodes(gctx, store, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("load.files", len(files)), attribute.Int("load.nodes", len(nodes)))
	e.Logger.Debug("Inputs loaded",
		"files_path", e.config.FilesPath, "files", len(files),
		"nodes_path", e.config.NodesPath, "nodes", len(nodes),
	)
	return files, nodes, nil
}

func (e *Engine) allocate(ctx context.Context, files []tetris.File, nodes []*tetris.Node) *tetris.Placement {
	ctx, span := e.Tracer.Start(ctx, "Engine.allocate")
	defer span.End()

	var opts []tetris.Option
	if e.Logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, tetris.WithStepHook(func(s tetris.Step) {
			node := report.NullNode
			if s.Node != tetris.Unassigned {
				node = nodes[s.Node].Name()
			}
			e.Logger.Debug("Placed file", "file", files[s.File].Name(), "size", files[s.File].Size(), "node", node)
		}))
	}

	p := tetris.NewAllocator(opts...).Allocate(files, nodes)

	unassigned := int64(len(p.Unassigned()))
	e.assigned.Add(ctx, int64(p.Len())-unassigned)
	e.unassigned.Add(ctx, unassigned)
	return p
}

func (e *Engine) write(ctx context.Context, format report.Format, res *Result) error {
	ctx, span := e.Tracer.Start(ctx, "Engine.write")
	defer span.End()

	var buf bytes.Buffer
	if err := report.Write(&buf, format, res.Files, res.Nodes, res.Placement); err != nil {
		return fmt.Errorf("failed to render placement: %w", err)
	}

	out := e.config.OutputPath
	span.SetAttributes(attribute.String("write.format", string(format)), attribute.String("write.output", out))
	if isStdout(out) {
		_, err := e.stdout.Write(buf.Bytes())
		return err
	}

	store, key, err := e.resolve(ctx, out)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	e.Logger.Debug("Placement written", "output", out, "format", format, "bytes", buf.Len())
	return nil
}

func (e *Engine) record(ctx context.Context, res *Result) error {
	var backend history.Backend
	if storage.IsS3(e.config.HistoryPath) {
		store, key, err := e.resolve(ctx, e.config.HistoryPath)
		if err != nil {
			return err
		}
		backend = &history.BlobBackend{Store: store, Key: key}
	} else {
		backend = history.NewLocalBackend(e.config.HistoryPath)
	}

	snap := history.NewSnapshot(e.now(), res.Summary)
	snap.FilesPath = e.config.FilesPath
	snap.NodesPath = e.config.NodesPath
	if err := history.NewClient(backend).Append(ctx, snap); err != nil {
		return err
	}
	res.RunID = snap.RunID
	return nil
}

// summaryWriter keeps the summary off stdout when the placement goes there.
func (e *Engine) summaryWriter() io.Writer {
	if isStdout(e.config.OutputPath) {
		return e.stderr
	}
	return e.stdout
}

func isStdout(path string) bool {
	return path == "" || path == "-"
}

// recoverPanic turns a panic into an error and records it on the span.
func (e *Engine) recoverPanic(ctx context.Context, errp *error) {
	if r := recover(); r != nil {
		_, span := e.Tracer.Start(ctx, "CriticalPanic")

		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*errp = fmt.Errorf("internal error: %v", r)
	}
}
