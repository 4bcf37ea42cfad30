package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	appconfig "optionflow/config"
	"optionflow/internal/channel"
	"optionflow/internal/symbols"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/strategy"
)

// Evaluator runs covered-call evaluations for every pair on the raw channel
// and emits them in batches, one open batch per underlying.
type Evaluator struct {
	config   *appconfig.Config
	channels *channel.Channels
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.Mutex
	running  bool
	done     chan struct{}
	log      *logger.Log

	// Batching
	batches   map[string]*models.EvaluationBatch
	lastFlush map[string]time.Time

	// Metrics
	pairsProcessed   int64
	batchesProcessed int64
}

func NewEvaluator(cfg *appconfig.Config, ch *channel.Channels) *Evaluator {
	return &Evaluator{
		config:    cfg,
		channels:  ch,
		wg:        &sync.WaitGroup{},
		done:      make(chan struct{}),
		log:       logger.GetLogger(),
		batches:   make(map[string]*models.EvaluationBatch),
		lastFlush: make(map[string]time.Time),
	}
}

func (e *Evaluator) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("evaluator already running")
	}
	e.running = true
	e.ctx = ctx
	e.mu.Unlock()

	log := e.log.WithComponent("evaluator").WithFields(logger.Fields{"operation": "start"})

	numWorkers := e.config.Processor.MaxWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	log.WithFields(logger.Fields{"workers": numWorkers}).Info("starting evaluator workers")

	workers := &sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		workers.Add(1)
		go e.worker(i, workers)
	}

	stopFlusher := make(chan struct{})
	e.wg.Add(1)
	go e.batchFlusher(stopFlusher)

	// Once every worker has drained the raw channel the remaining batches are
	// flushed and the norm channel closed.
	go func() {
		workers.Wait()
		close(stopFlusher)
		e.wg.Wait()
		e.flushAllBatches()
		e.channels.CloseNorm()
		close(e.done)
	}()

	return nil
}

// Stop waits until the raw channel has been drained and every batch has been
// handed to the norm channel.
func (e *Evaluator) Stop() {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	e.log.WithComponent("evaluator").Info("stopping evaluator")
	<-e.done

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	e.log.WithComponent("evaluator").WithFields(logger.Fields{
		"pairs_processed":   atomic.LoadInt64(&e.pairsProcessed),
		"batches_processed": atomic.LoadInt64(&e.batchesProcessed),
	}).Info("evaluator stopped")
}

// Done is closed once the evaluator has flushed its last batch.
func (e *Evaluator) Done() <-chan struct{} {
	return e.done
}

func (e *Evaluator) worker(workerID int, workers *sync.WaitGroup) {
	defer workers.Done()

	log := e.log.WithComponent("evaluator").WithFields(logger.Fields{
		"worker_id": workerID,
		"worker":    "evaluator",
	})

	for {
		select {
		case <-e.ctx.Done():
			log.Info("worker stopped due to context cancellation")
			return
		case pair, ok := <-e.channels.Raw:
			if !ok {
				log.Debug("raw channel closed, worker stopping")
				return
			}

			start := time.Now()
			eval := strategy.Evaluate(pair)
			e.addToBatch(eval)
			atomic.AddInt64(&e.pairsProcessed, 1)
			logger.IncrementEvaluations(1)

			logger.LogPerformanceEntry(log, "evaluator", "evaluate", time.Since(start), logger.Fields{
				"worker_id":      workerID,
				"symbol":         eval.Symbol,
				"underlying":     eval.Underlying,
				"max_pot_profit": eval.Result.MaxPotProfit,
			})
		}
	}
}

func batchKey(eval models.Evaluation) string {
	return symbols.Normalize(eval.Underlying)
}

func (e *Evaluator) addToBatch(eval models.Evaluation) {
	var full *models.EvaluationBatch

	e.mu.Lock()
	key := batchKey(eval)
	batch, exists := e.batches[key]
	if !exists {
		batch = &models.EvaluationBatch{
			BatchID:     uuid.New().String(),
			Evaluations: make([]models.Evaluation, 0, e.batchSize()),
			Timestamp:   eval.Timestamp,
			ProcessedAt: time.Now(),
		}
		e.batches[key] = batch
		e.lastFlush[key] = time.Now()
	}

	batch.Evaluations = append(batch.Evaluations, eval)
	batch.RecordCount = len(batch.Evaluations)
	if eval.Timestamp.After(batch.Timestamp) {
		batch.Timestamp = eval.Timestamp
	}

	if batch.RecordCount >= e.batchSize() {
		full = batch
		delete(e.batches, key)
		delete(e.lastFlush, key)
	}
	e.mu.Unlock()

	if full != nil {
		e.send(full, key)
	}
}

func (e *Evaluator) batchSize() int {
	if e.config.Processor.BatchSize < 1 {
		return 1
	}
	return e.config.Processor.BatchSize
}

func (e *Evaluator) batchFlusher(stop <-chan struct{}) {
	defer e.wg.Done()

	timeout := e.config.Processor.BatchTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	interval := timeout / 2
	if interval <= 0 {
		interval = timeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			e.flushTimedOutBatches(timeout)
		}
	}
}

func (e *Evaluator) flushTimedOutBatches(timeout time.Duration) {
	now := time.Now()
	e.flushWhere(func(key string) bool {
		return now.Sub(e.lastFlush[key]) >= timeout
	})
}

func (e *Evaluator) flushAllBatches() {
	e.flushWhere(func(string) bool { return true })
}

func (e *Evaluator) flushWhere(match func(key string) bool) {
	e.mu.Lock()
	ready := make(map[string]*models.EvaluationBatch)
	for key, batch := range e.batches {
		if batch.RecordCount > 0 && match(key) {
			ready[key] = batch
			delete(e.batches, key)
			delete(e.lastFlush, key)
		}
	}
	e.mu.Unlock()

	for key, batch := range ready {
		e.send(batch, key)
	}
}

func (e *Evaluator) send(batch *models.EvaluationBatch, key string) {
	log := e.log.WithComponent("evaluator").WithFields(logger.Fields{
		"batch_id":     batch.BatchID,
		"batch_key":    key,
		"record_count": batch.RecordCount,
		"operation":    "flush_batch",
	})

	if !e.channels.SendNorm(e.ctx, *batch) {
		log.Warn("context cancelled, batch not sent")
		return
	}
	atomic.AddInt64(&e.batchesProcessed, 1)
	logger.IncrementBatchesFlushed()
	logger.LogDataFlowEntry(log, "evaluator", "norm_channel", batch.RecordCount, "evaluation_batch")
}
