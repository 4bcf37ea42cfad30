// Package pipeline wires the snapshot reader, the evaluator and the result
// writer into a single batch run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	appconfig "optionflow/config"
	"optionflow/internal/channel"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/processor"
	"optionflow/reader"
	"optionflow/writer"
)

// Result is what one run produced.
type Result struct {
	Pairs       int
	Batches     int
	Evaluations []models.Evaluation
	Duration    time.Duration
}

type Pipeline struct {
	config   *appconfig.Config
	getter   reader.ObjectGetter
	sink     writer.Sink
	universe []string
	strict   *bool
	log      *logger.Log
}

// New creates a pipeline. getter is needed for s3:// snapshots only; a nil
// sink disables writing results.
func New(cfg *appconfig.Config, getter reader.ObjectGetter, sink writer.Sink) *Pipeline {
	return &Pipeline{
		config: cfg,
		getter: getter,
		sink:   sink,
		log:    logger.GetLogger(),
	}
}

func (p *Pipeline) SetUniverse(underlyings []string) {
	p.universe = underlyings
}

// SetStrict overrides the environment derived handling of rejected quotes.
func (p *Pipeline) SetStrict(strict bool) {
	p.strict = &strict
}

// Run reads the configured snapshot, evaluates every pair and, when a sink
// is set, writes the batches. It returns once every stage has drained.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := p.log.WithComponent("pipeline").WithFields(logger.Fields{"operation": "run"})
	start := time.Now()

	channels := channel.NewChannels(p.config.Channels.RawBuffer, p.config.Channels.ProcessedBuffer)
	if interval := p.config.Channels.StatsInterval; interval > 0 {
		statsCtx, stopStats := context.WithCancel(ctx)
		defer stopStats()
		go channels.StartMetricsReporting(statsCtx, interval)
	}

	snapshotReader := reader.NewSnapshotReader(p.config, channels, p.getter)
	snapshotReader.SetUniverse(p.universe)
	if p.strict != nil {
		snapshotReader.SetStrict(*p.strict)
	}

	evaluator := processor.NewEvaluator(p.config, channels)
	if err := evaluator.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start evaluator: %w", err)
	}

	var (
		resultWriter *writer.ResultWriter
		toWrite      chan models.EvaluationBatch
	)
	if p.sink != nil {
		toWrite = make(chan models.EvaluationBatch, p.config.Channels.ProcessedBuffer)
		resultWriter = writer.NewResultWriter(p.config, toWrite, p.sink)
		if err := resultWriter.Start(ctx); err != nil {
			channels.CloseRaw()
			evaluator.Stop()
			return nil, fmt.Errorf("failed to start result writer: %w", err)
		}
	}

	result := &Result{}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		if toWrite != nil {
			defer close(toWrite)
		}
		for batch := range channels.Norm {
			result.Batches++
			result.Evaluations = append(result.Evaluations, batch.Evaluations...)
			if toWrite == nil {
				continue
			}
			select {
			case toWrite <- batch:
			case <-ctx.Done():
			}
		}
	}()

	n, readErr := snapshotReader.Run(ctx)
	result.Pairs = n

	evaluator.Stop()
	<-collected
	if resultWriter != nil {
		resultWriter.Stop()
	}

	result.Duration = time.Since(start)
	channels.LogStats()
	logger.LogDataFlowEntry(log, "snapshot_reader", "report", len(result.Evaluations), "evaluation")

	if readErr != nil {
		return result, readErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.WithFields(logger.Fields{
		"pairs":       result.Pairs,
		"batches":     result.Batches,
		"evaluations": len(result.Evaluations),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("pipeline finished")

	return result, nil
}
