package channel

import (
	"context"
	"sync"
	"time"

	"optionflow/logger"
	"optionflow/models"
)

type ChannelStats struct {
	RawSent     int64
	NormSent    int64
	RawDropped  int64
	NormDropped int64
}

// Channels connects the reader, the evaluator and the writer. Raw carries
// pairs to evaluate, Norm carries evaluated batches.
type Channels struct {
	Raw  chan models.Pair
	Norm chan models.EvaluationBatch

	stats      ChannelStats
	statsMutex sync.RWMutex
	rawOnce    sync.Once
	normOnce   sync.Once
	log        *logger.Log
}

func NewChannels(rawBufferSize, normBufferSize int) *Channels {
	log := logger.GetLogger()
	c := &Channels{
		Raw:  make(chan models.Pair, rawBufferSize),
		Norm: make(chan models.EvaluationBatch, normBufferSize),
		log:  log,
	}

	log.WithComponent("channels").WithFields(logger.Fields{
		"raw_buffer_size":  rawBufferSize,
		"norm_buffer_size": normBufferSize,
	}).Info("channels initialized")

	return c
}

// CloseRaw signals that no more pairs will be sent. Safe to call repeatedly.
func (c *Channels) CloseRaw() {
	c.rawOnce.Do(func() { close(c.Raw) })
}

// CloseNorm signals that no more batches will be sent. Safe to call repeatedly.
func (c *Channels) CloseNorm() {
	c.normOnce.Do(func() { close(c.Norm) })
}

func (c *Channels) Close() {
	c.CloseRaw()
	c.CloseNorm()
	c.log.WithComponent("channels").Info("channels closed")
}

func (c *Channels) IncrementRawSent() {
	c.statsMutex.Lock()
	c.stats.RawSent++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementNormSent() {
	c.statsMutex.Lock()
	c.stats.NormSent++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementRawDropped() {
	c.statsMutex.Lock()
	c.stats.RawDropped++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementNormDropped() {
	c.statsMutex.Lock()
	c.stats.NormDropped++
	c.statsMutex.Unlock()
}

// SendRaw blocks until the pair is queued or ctx is done. A cancelled send
// counts as dropped.
func (c *Channels) SendRaw(ctx context.Context, p models.Pair) bool {
	select {
	case c.Raw <- p:
		c.IncrementRawSent()
		return true
	case <-ctx.Done():
		c.IncrementRawDropped()
		return false
	}
}

// SendNorm blocks until the batch is queued or ctx is done.
func (c *Channels) SendNorm(ctx context.Context, b models.EvaluationBatch) bool {
	select {
	case c.Norm <- b:
		c.IncrementNormSent()
		return true
	case <-ctx.Done():
		c.IncrementNormDropped()
		return false
	}
}

func (c *Channels) GetStats() ChannelStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}

// LogStats logs the current stats and buffer usage.
func (c *Channels) LogStats() {
	stats := c.GetStats()
	c.log.WithComponent("channels").WithFields(logger.Fields{
		"raw_sent":     stats.RawSent,
		"raw_dropped":  stats.RawDropped,
		"norm_sent":    stats.NormSent,
		"norm_dropped": stats.NormDropped,
		"raw_queued":   len(c.Raw),
		"norm_queued":  len(c.Norm),
	}).Info("channel stats")
}

// StartMetricsReporting logs stats every interval until ctx is done.
func (c *Channels) StartMetricsReporting(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.LogStats()
		}
	}
}
