package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "optionflow/config"
	"optionflow/internal/channel"
	"optionflow/internal/storage"
	"optionflow/internal/symbols"
	"optionflow/logger"
)

// ObjectGetter is the part of the S3 client the reader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SnapshotReader loads a market-data snapshot, pairs every call with its
// underlying and feeds the pairs to the raw channel.
type SnapshotReader struct {
	config   *appconfig.Config
	channels *channel.Channels
	s3       ObjectGetter
	universe map[string]struct{}
	strict   bool
	mu       sync.Mutex
	running  bool
	log      *logger.Log
}

// NewSnapshotReader creates a reader. getter may be nil when snapshots are
// only read from local files.
func NewSnapshotReader(cfg *appconfig.Config, ch *channel.Channels, getter ObjectGetter) *SnapshotReader {
	log := logger.GetLogger()
	r := &SnapshotReader{
		config:   cfg,
		channels: ch,
		s3:       getter,
		strict:   appconfig.IsProductionLike(appconfig.AppEnvironment()),
		log:      log,
	}

	log.WithComponent("snapshot_reader").WithFields(logger.Fields{
		"snapshot":         cfg.Reader.Snapshot,
		"price_validation": cfg.Reader.Validation.EnablePriceValidation,
		"strict":           r.strict,
	}).Info("snapshot reader initialized")

	return r
}

// SetUniverse restricts pairing to the given underlyings. An empty list
// disables the filter.
func (r *SnapshotReader) SetUniverse(underlyings []string) {
	if len(underlyings) == 0 {
		r.universe = nil
		return
	}
	r.universe = symbols.Set(underlyings)
}

// SetStrict makes any rejected quote fail the whole run.
func (r *SnapshotReader) SetStrict(strict bool) {
	r.strict = strict
}

// Load reads a snapshot through the reader's S3 client.
func (r *SnapshotReader) Load(ctx context.Context, path string) (*Snapshot, error) {
	return LoadSnapshot(ctx, r.config, r.s3, path)
}

// LoadSnapshot reads a snapshot from a local path or an s3://bucket/key URI.
// getter may be nil for local paths.
func LoadSnapshot(ctx context.Context, cfg *appconfig.Config, getter ObjectGetter, path string) (*Snapshot, error) {
	if path == "" {
		return nil, errors.New("no snapshot path configured")
	}

	if cfg.Reader.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Reader.Timeout)
		defer cancel()
	}

	var (
		data []byte
		err  error
	)
	if storage.IsS3URI(path) {
		data, err = fetchS3(ctx, getter, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	return DecodeSnapshot(data)
}

func fetchS3(ctx context.Context, getter ObjectGetter, uri string) ([]byte, error) {
	if getter == nil {
		return nil, errors.New("s3 client not configured")
	}
	bucket, key, err := storage.ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Run loads the configured snapshot and sends every pair on the raw channel,
// closing it when done. It returns the number of pairs sent.
func (r *SnapshotReader) Run(ctx context.Context) (int, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return 0, fmt.Errorf("reader already running")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.channels.CloseRaw()
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	log := r.log.WithComponent("snapshot_reader").WithFields(logger.Fields{"operation": "run"})
	start := time.Now()

	snap, err := r.Load(ctx, r.config.Reader.Snapshot)
	if err != nil {
		log.WithError(err).Error("failed to load snapshot")
		return 0, err
	}

	pairs, rejected := snap.Pairs(r.config.Commission, r.config.Reader.Validation, r.universe)
	for _, e := range rejected {
		log.WithError(e).Warn("skipping option")
	}
	logger.IncrementPairsSkipped(len(rejected))
	if r.strict && len(rejected) > 0 {
		return 0, fmt.Errorf("%d quotes rejected: %w", len(rejected), errors.Join(rejected...))
	}

	sent := 0
	for _, p := range pairs {
		if !r.channels.SendRaw(ctx, p) {
			logger.IncrementPairsRead(sent)
			return sent, ctx.Err()
		}
		sent++
	}
	logger.IncrementPairsRead(sent)

	logger.LogPerformanceEntry(log, "snapshot_reader", "run", time.Since(start), logger.Fields{
		"underlyings": len(snap.Underlyings),
		"options":     len(snap.Options),
		"pairs":       sent,
		"rejected":    len(rejected),
	})
	log.WithFields(logger.Fields{"pairs": sent, "rejected": len(rejected)}).Info("snapshot read")

	return sent, nil
}
