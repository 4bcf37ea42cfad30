package writer

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	appconfig "optionflow/config"
	"optionflow/internal/metadata"
	"optionflow/internal/symbols"
	"optionflow/logger"
	"optionflow/models"
)

const tableName = "covered_calls"

// ResultWriter drains evaluation batches and stores each one as a parquet
// file, recording it in the table metadata.
type ResultWriter struct {
	config  *appconfig.Config
	in      <-chan models.EvaluationBatch
	sink    Sink
	limiter *rate.Limiter
	metaGen *metadata.Generator
	prefix  string
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.Mutex
	running bool
	log     *logger.Log

	// Metrics
	filesWritten   int64
	recordsWritten int64
	errorsCount    int64
}

func NewResultWriter(cfg *appconfig.Config, in <-chan models.EvaluationBatch, sink Sink) *ResultWriter {
	log := logger.GetLogger()

	prefix := ""
	if cfg.Storage.S3.Enabled {
		prefix = strings.Trim(cfg.Storage.S3.Prefix, "/")
	}

	var limiter *rate.Limiter
	if cfg.Writer.UploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Writer.UploadsPerSecond), 1)
	}

	w := &ResultWriter{
		config:  cfg,
		in:      in,
		sink:    sink,
		limiter: limiter,
		metaGen: metadata.NewGenerator(sink, tableLocation(sink, prefix), prefix, tableName),
		prefix:  prefix,
		wg:      &sync.WaitGroup{},
		log:     log,
	}

	log.WithComponent("result_writer").WithFields(logger.Fields{
		"location":           tableLocation(sink, prefix),
		"compression":        cfg.Writer.Formats.Parquet.Compression,
		"uploads_per_second": cfg.Writer.UploadsPerSecond,
	}).Info("result writer initialized")

	return w
}

func (w *ResultWriter) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("result writer already running")
	}
	w.running = true
	w.ctx = ctx
	w.mu.Unlock()

	numWorkers := w.config.Processor.MaxWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	w.log.WithComponent("result_writer").WithFields(logger.Fields{"workers": numWorkers}).Info("starting result writer workers")

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
	return nil
}

// Stop waits for the input channel to be drained and writes the catalog
// entry for the table.
func (w *ResultWriter) Stop() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	w.log.WithComponent("result_writer").Info("stopping result writer")
	w.wg.Wait()

	if atomic.LoadInt64(&w.filesWritten) > 0 {
		if err := w.metaGen.WriteCatalogEntry(context.WithoutCancel(w.ctx)); err != nil {
			w.log.WithComponent("result_writer").WithError(err).Warn("failed to write catalog entry")
		}
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.log.WithComponent("result_writer").WithFields(logger.Fields{
		"files_written":   atomic.LoadInt64(&w.filesWritten),
		"records_written": atomic.LoadInt64(&w.recordsWritten),
		"errors":          atomic.LoadInt64(&w.errorsCount),
	}).Info("result writer stopped")
}

func (w *ResultWriter) worker(workerID int) {
	defer w.wg.Done()

	log := w.log.WithComponent("result_writer").WithFields(logger.Fields{
		"worker_id": workerID,
		"worker":    "result_writer",
	})

	for {
		select {
		case <-w.ctx.Done():
			log.Info("worker stopped due to context cancellation")
			return
		case batch, ok := <-w.in:
			if !ok {
				log.Debug("norm channel closed, worker stopping")
				return
			}
			if _, err := w.WriteBatch(w.ctx, batch); err != nil {
				atomic.AddInt64(&w.errorsCount, 1)
				log.WithError(err).WithFields(logger.Fields{"batch_id": batch.BatchID}).Error("failed to write batch")
			}
		}
	}
}

// WriteBatch encodes and stores one batch, returning the stored key. Empty
// batches are skipped and return "".
func (w *ResultWriter) WriteBatch(ctx context.Context, batch models.EvaluationBatch) (string, error) {
	log := w.log.WithComponent("result_writer").WithFields(logger.Fields{
		"batch_id":     batch.BatchID,
		"record_count": len(batch.Evaluations),
		"operation":    "write_batch",
	})

	if len(batch.Evaluations) == 0 {
		log.Debug("batch has no records, skipping")
		return "", nil
	}

	start := time.Now()
	key := w.generateKey(batch)
	log = log.WithFields(logger.Fields{"key": key})

	data, err := EncodeParquet(batch.Evaluations, w.config.Writer.Formats.Parquet.Compression)
	if err != nil {
		return "", err
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("upload rate limiter: %w", err)
		}
	}

	if err := w.sink.Put(ctx, key, data, "application/octet-stream"); err != nil {
		if w.config.Storage.S3.Enabled {
			log = log.WithFields(logger.Fields{
				"bucket": w.config.Storage.S3.Bucket,
				"region": w.config.Storage.S3.Region,
			})
		}
		log.WithError(err).Error("failed to store parquet file")
		return "", err
	}

	atomic.AddInt64(&w.filesWritten, 1)
	atomic.AddInt64(&w.recordsWritten, int64(len(batch.Evaluations)))
	logger.IncrementFileWritten(int64(len(data)))

	df := metadata.DataFile{
		Path:        w.sink.Location(key),
		FileSize:    int64(len(data)),
		RecordCount: int64(len(batch.Evaluations)),
		Partition: map[string]any{
			"underlying": batchUnderlying(batch),
			"date":       batch.Timestamp.UTC().Format("2006-01-02"),
		},
		Timestamp: batch.Timestamp,
	}
	if err := w.metaGen.AddFile(ctx, df); err != nil {
		log.WithError(err).Warn("failed to update metadata")
	}

	logger.LogPerformanceEntry(log, "result_writer", "write_batch", time.Since(start), logger.Fields{
		"file_size": len(data),
	})
	log.WithFields(logger.Fields{"file_size": len(data)}).Info("batch written")

	return key, nil
}

// batchUnderlying is the normalized underlying shared by the batch, or
// "mixed" when evaluations differ.
func batchUnderlying(batch models.EvaluationBatch) string {
	if len(batch.Evaluations) == 0 {
		return ""
	}
	u := symbols.Normalize(batch.Evaluations[0].Underlying)
	for _, e := range batch.Evaluations[1:] {
		if symbols.Normalize(e.Underlying) != u {
			return "mixed"
		}
	}
	return u
}

func (w *ResultWriter) generateKey(batch models.EvaluationBatch) string {
	timestamp := batch.Timestamp.UTC()
	underlying := batchUnderlying(batch)

	var parts []string
	if w.prefix != "" {
		parts = append(parts, w.prefix)
	}
	for _, k := range w.config.Writer.Partitioning.AdditionalKeys {
		switch k {
		case "underlying":
			parts = append(parts, fmt.Sprintf("underlying=%s", underlying))
		case "strategy":
			parts = append(parts, "strategy=covered_call")
		}
	}

	timeFormat := w.config.Writer.Partitioning.TimeFormat
	timePath := strings.ReplaceAll(timeFormat, "{year}", fmt.Sprintf("%04d", timestamp.Year()))
	timePath = strings.ReplaceAll(timePath, "{month}", fmt.Sprintf("%02d", timestamp.Month()))
	timePath = strings.ReplaceAll(timePath, "{day}", fmt.Sprintf("%02d", timestamp.Day()))
	timePath = strings.ReplaceAll(timePath, "{hour}", fmt.Sprintf("%02d", timestamp.Hour()))
	if timePath != "" {
		parts = append(parts, timePath)
	}

	id := batch.BatchID
	if len(id) > 8 {
		id = id[:8]
	}
	filename := fmt.Sprintf("%s_covered_call_%s_%s.parquet", underlying, timestamp.Format("20060102150405"), id)

	return path.Join(append(parts, filename)...)
}
