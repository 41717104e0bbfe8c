package model

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Callback observes a fit. A round is one tree for the forest, one boosting
// round for gradient boosting and one epoch for the network. The metric is
// the tree's out-of-bag error, the training log-loss and the epoch BCE
// respectively.
type Callback interface {
	OnFitBegin(model string, rounds int)
	OnRoundEnd(round int, metric float64)
	OnFitEnd()
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnFitBegin(model string, rounds int)  {}
func (c BaseCallback) OnRoundEnd(round int, metric float64) {}
func (c BaseCallback) OnFitEnd()                            {}

type callbacks []Callback

func (cs callbacks) begin(model string, rounds int) {
	for _, c := range cs {
		c.OnFitBegin(model, rounds)
	}
}

func (cs callbacks) round(round int, metric float64) {
	for _, c := range cs {
		c.OnRoundEnd(round, metric)
	}
}

func (cs callbacks) end() {
	for _, c := range cs {
		c.OnFitEnd()
	}
}

// LogCallback logs progress every Interval rounds at debug level.
type LogCallback struct {
	BaseCallback
	Logger   *slog.Logger
	Interval int

	model string
}

func (c *LogCallback) OnFitBegin(model string, rounds int) {
	c.model = model
	c.Logger.Debug("fit started", "model", model, "rounds", rounds)
}

func (c *LogCallback) OnRoundEnd(round int, metric float64) {
	if c.Interval > 0 && round%c.Interval == 0 {
		c.Logger.Debug("fit progress", "model", c.model, "round", round, "metric", metric)
	}
}

func (c *LogCallback) OnFitEnd() {
	c.Logger.Debug("fit finished", "model", c.model)
}

// CSVLogger writes one "round,metric,time_seconds" row per round.
type CSVLogger struct {
	BaseCallback
	Filename string

	file   *os.File
	writer *csv.Writer
	start  time.Time
	err    error
}

// NewCSVLogger creates a new CSVLogger. The file is truncated on OnFitBegin.
func NewCSVLogger(filename string) *CSVLogger {
	return &CSVLogger{Filename: filename}
}

func (c *CSVLogger) OnFitBegin(model string, rounds int) {
	file, err := os.Create(c.Filename)
	if err != nil {
		c.err = fmt.Errorf("csv logger: %w", err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()
	c.write([]string{"round", "metric", "time_seconds"})
}

func (c *CSVLogger) OnRoundEnd(round int, metric float64) {
	if c.writer == nil {
		return
	}
	c.write([]string{
		strconv.Itoa(round),
		strconv.FormatFloat(metric, 'f', 6, 64),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	})
}

func (c *CSVLogger) OnFitEnd() {
	if c.file == nil {
		return
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil && c.err == nil {
		c.err = fmt.Errorf("csv logger: %w", err)
	}
	if err := c.file.Close(); err != nil && c.err == nil {
		c.err = fmt.Errorf("csv logger: %w", err)
	}
	c.file = nil
	c.writer = nil
}

// Err returns the first error hit while logging.
func (c *CSVLogger) Err() error {
	return c.err
}

func (c *CSVLogger) write(record []string) {
	if err := c.writer.Write(record); err != nil && c.err == nil {
		c.err = fmt.Errorf("csv logger: %w", err)
	}
}
