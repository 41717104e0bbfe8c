// Package runner executes one training run end to end: generate, split,
// build, train, evaluate and save.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/FlavioCFOliveira/GoFraud/internal/config"
	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"github.com/FlavioCFOliveira/GoFraud/internal/eval"
	"github.com/FlavioCFOliveira/GoFraud/internal/model"
	"github.com/FlavioCFOliveira/GoFraud/internal/pipeline"
	"github.com/FlavioCFOliveira/GoFraud/internal/preprocess"
	"github.com/FlavioCFOliveira/GoFraud/internal/resample"
	"github.com/FlavioCFOliveira/GoFraud/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Result summarises a completed run.
type Result struct {
	RunID        string
	Effective    pipeline.Effective
	Stats        pipeline.TrainStats
	Report       *eval.Report
	ArtifactPath string
}

// Runner holds what a run needs besides the context.
type Runner struct {
	Config   *config.Config
	Registry *model.Registry
	Metrics  *telemetry.RunMetrics
	// Out receives the console progress lines and the report.
	Out    io.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

// New returns a Runner using the default model registry.
func New(cfg *config.Config, out io.Writer, logger *slog.Logger) *Runner {
	return &Runner{
		Config:   cfg,
		Registry: model.DefaultRegistry(),
		Metrics:  telemetry.NewRunMetrics(),
		Out:      out,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Run executes a run with the default registry.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*Result, error) {
	return New(cfg, out, logger).Run(ctx)
}

// Run executes every stage in order. Any error aborts the run; the artifact
// is only written once evaluation succeeded.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.Config
	res := &Result{RunID: uuid.NewString(), ArtifactPath: cfg.ArtifactPath}
	logger := r.Logger.With("run_id", res.RunID)

	ctx, span := telemetry.StartStage(ctx, "run", attribute.String("run_id", res.RunID))
	var err error
	defer func() { telemetry.EndStage(span, err) }()

	logger.InfoContext(ctx, "run started", "model", cfg.Training.Model, "rows", cfg.Dataset.Rows, "seed", cfg.Dataset.Seed)

	var split dataset.Split
	if err = r.stage(ctx, "generate", func(ctx context.Context) error {
		split, err = r.generate(ctx, logger)
		return err
	}); err != nil {
		return nil, err
	}

	r.progress("Building pipeline")
	var (
		plan       preprocess.Plan
		est        model.Estimator
		rebalancer resample.Rebalancer
		csvLogger  *model.CSVLogger
	)
	if err = r.stage(ctx, "build", func(ctx context.Context) error {
		plan = preprocess.Build(split.Train)
		var cbs []model.Callback
		cbs, csvLogger = r.callbacks(logger)
		est, rebalancer, res.Effective, err = Resolve(cfg, r.Registry, cbs)
		return err
	}); err != nil {
		return nil, err
	}
	r.reportEffective(ctx, logger, res.Effective)

	r.progress("Training model")
	var p *pipeline.Pipeline
	if err = r.stage(ctx, "train", func(ctx context.Context) error {
		p, res.Stats, err = pipeline.Train(ctx, split.Train, split.TrainLabels, plan, est, rebalancer)
		if err != nil {
			return err
		}
		if csvLogger != nil {
			return csvLogger.Err()
		}
		return nil
	}); err != nil {
		return nil, err
	}
	r.Metrics.RecordFeatures(res.Stats.Features)
	r.Metrics.RecordPartition("resampled", res.Stats.RowsAfterResample, res.Stats.PositivesAfterResample)
	logger.InfoContext(ctx, "model trained",
		"model", p.Model(),
		"rows", res.Stats.Rows,
		"rows_after_resample", res.Stats.RowsAfterResample,
		"features", res.Stats.Features,
		"duration", res.Stats.Duration,
	)

	r.progress("Evaluating model")
	if err = r.stage(ctx, "evaluate", func(ctx context.Context) error {
		res.Report, err = eval.Evaluate(p, split.Test, split.TestLabels)
		return err
	}); err != nil {
		return nil, err
	}
	fmt.Fprintln(r.Out, res.Report.String())
	fmt.Fprintf(r.Out, "ROC AUC: %v\n", res.Report.ROCAUC)
	r.Metrics.RecordEvaluation(res.Report.ROCAUC, f1ByClass(res.Report))

	r.progress("Saving model")
	if err = r.stage(ctx, "save", func(ctx context.Context) error {
		p.Metadata = pipeline.Metadata{
			RunID:     res.RunID,
			CreatedAt: r.Now().UTC(),
			Effective: res.Effective,
		}
		return p.Save(cfg.ArtifactPath)
	}); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "artifact saved", "path", cfg.ArtifactPath)

	r.Metrics.MarkCompleted(r.Now())
	if cfg.MetricsPath != "" {
		if err = r.Metrics.WriteTextfile(cfg.MetricsPath); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// stage runs fn inside a span and records its wall time.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := telemetry.StartStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	r.Metrics.RecordStage(name, time.Since(start))
	telemetry.EndStage(span, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *Runner) progress(msg string) {
	fmt.Fprintf(r.Out, "✔ %s\n", msg)
}

func (r *Runner) generate(ctx context.Context, logger *slog.Logger) (dataset.Split, error) {
	cfg := r.Config
	txs := dataset.Generate(cfg.Dataset.Rows, cfg.Dataset.Seed, cfg.Dataset.FraudRate)
	logger.DebugContext(ctx, "dataset generated", "rows", len(txs), "fraud_rate", dataset.FraudRate(txs))

	if cfg.Dataset.ExportPath != "" {
		if err := dataset.SaveCSV(cfg.Dataset.ExportPath, txs); err != nil {
			return dataset.Split{}, err
		}
		logger.InfoContext(ctx, "dataset exported", "path", cfg.Dataset.ExportPath)
	}

	frame, labels := dataset.ToFrame(txs)
	split, err := dataset.StratifiedSplit(frame, labels, cfg.Split.TestSize, cfg.Split.Seed)
	if err != nil {
		return dataset.Split{}, err
	}
	r.Metrics.RecordPartition("train", len(split.TrainLabels), countPositives(split.TrainLabels))
	r.Metrics.RecordPartition("test", len(split.TestLabels), countPositives(split.TestLabels))
	return split, nil
}

// callbacks builds the fit observers. Per-round logging goes through a
// scoped logger that only lets it through in verbose mode.
func (r *Runner) callbacks(logger *slog.Logger) ([]model.Callback, *model.CSVLogger) {
	fitLevel := slog.LevelInfo
	if r.Config.Training.Verbose {
		fitLevel = slog.LevelDebug
	}
	cbs := []model.Callback{&model.LogCallback{
		Logger:   telemetry.Scoped(logger, fitLevel),
		Interval: 10,
	}}

	var csvLogger *model.CSVLogger
	if r.Config.Training.ProgressCSV != "" {
		csvLogger = model.NewCSVLogger(r.Config.Training.ProgressCSV)
		cbs = append(cbs, csvLogger)
	}
	return cbs, csvLogger
}

func (r *Runner) reportEffective(ctx context.Context, logger *slog.Logger, eff pipeline.Effective) {
	if eff.Model.Fallback {
		r.Metrics.RecordFallback("model")
		logger.WarnContext(ctx, "model unavailable, falling back",
			"requested", eff.Model.Requested,
			"effective", eff.Model.Effective,
			"reason", eff.Model.Reason,
		)
	}
	if eff.Rebalance.Requested && !eff.Rebalance.Applied {
		r.Metrics.RecordFallback("rebalance")
		logger.WarnContext(ctx, "rebalancing skipped, training on imbalanced data", "reason", eff.Rebalance.Reason)
	}
	logger.InfoContext(ctx, "effective configuration",
		"model", eff.Model.Effective,
		"rebalance", eff.Rebalance.Applied,
		"degraded", eff.Degraded(),
	)
}

// Resolve turns the configuration into an estimator and an optional
// rebalancer, recording every capability fallback. In strict mode a
// fallback is an error instead.
func Resolve(cfg *config.Config, registry *model.Registry, cbs []model.Callback) (model.Estimator, resample.Rebalancer, pipeline.Effective, error) {
	var eff pipeline.Effective

	est, sel, err := registry.Select(cfg.Training.Model, Params(cfg, cbs), cfg.Strict)
	eff.Model = sel
	if err != nil {
		return nil, nil, eff, err
	}

	eff.Rebalance.Available = resample.Available()
	if !cfg.Training.Rebalance {
		eff.Rebalance.Reason = "disabled by configuration"
		return est, nil, eff, nil
	}
	eff.Rebalance.Requested = true

	smote, err := resample.New(cfg.SMOTE.Neighbors, cfg.SMOTE.Seed)
	if err != nil {
		if errors.Is(err, resample.ErrUnavailable) && !cfg.Strict {
			eff.Rebalance.Reason = err.Error()
			return est, nil, eff, nil
		}
		return nil, nil, eff, err
	}
	eff.Rebalance.Applied = true
	eff.Rebalance.Method = smote.Name()
	return est, smote, eff, nil
}

// Params maps the configuration onto model hyper-parameters.
func Params(cfg *config.Config, cbs []model.Callback) model.Params {
	p := model.DefaultParams()
	p.Forest = model.ForestParams{
		Trees:   cfg.Forest.Trees,
		Seed:    cfg.Forest.Seed,
		Workers: cfg.Forest.Workers,
	}
	p.Boost.Rounds = cfg.Boost.Rounds
	p.Boost.MaxDepth = cfg.Boost.MaxDepth
	p.Boost.LearningRate = cfg.Boost.LearningRate
	p.MLP.Epochs = cfg.MLP.Epochs
	p.MLP.LearningRate = cfg.MLP.LearningRate
	p.MLP.Seed = cfg.MLP.Seed
	p.MLP.Activation = cfg.MLP.Activation
	p.MLP.Loss = cfg.MLP.Loss
	p.MLP.Scheduler = cfg.MLP.Scheduler
	p.MLP.StepSize = cfg.MLP.StepSize
	p.Callbacks = cbs
	return p
}

func f1ByClass(r *eval.Report) map[int]float64 {
	out := make(map[int]float64, len(r.Classes))
	for _, c := range r.Classes {
		out[c.Label] = c.F1
	}
	return out
}

func countPositives(y []int) int {
	n := 0
	for _, v := range y {
		if v == 1 {
			n++
		}
	}
	return n
}
