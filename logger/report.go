package logger

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Counters shared by the pipeline stages and flushed by the runtime report.
var (
	errorCount      int64
	warnCount       int64
	pairsRead       int64
	pairsSkipped    int64
	evaluationsDone int64
	batchesFlushed  int64
	filesWritten    int64
	bytesWritten    int64
)

func recordWarn() { atomic.AddInt64(&warnCount, 1) }
func recordError() { atomic.AddInt64(&errorCount, 1) }

func IncrementPairsRead(n int) { atomic.AddInt64(&pairsRead, int64(n)) }
func IncrementPairsSkipped(n int) { atomic.AddInt64(&pairsSkipped, int64(n)) }
func IncrementEvaluations(n int) { atomic.AddInt64(&evaluationsDone, int64(n)) }
func IncrementBatchesFlushed() { atomic.AddInt64(&batchesFlushed, 1) }

// IncrementFileWritten counts one result file of size bytes.
func IncrementFileWritten(size int64) {
	atomic.AddInt64(&filesWritten, 1)
	atomic.AddInt64(&bytesWritten, size)
}

// ErrorCount returns the number of entries logged at error level.
func ErrorCount() int64 { return atomic.LoadInt64(&errorCount) }

// ResetCounters zeroes every counter.
func ResetCounters() {
	for _, c := range []*int64{&errorCount, &warnCount, &pairsRead, &pairsSkipped,
		&evaluationsDone, &batchesFlushed, &filesWritten, &bytesWritten} {
		atomic.StoreInt64(c, 0)
	}
}

// Snapshot returns the current counter values keyed by their report field.
func Snapshot() map[string]int64 {
	return map[string]int64{
		"errors":          atomic.LoadInt64(&errorCount),
		"warns":           atomic.LoadInt64(&warnCount),
		"pairs_read":      atomic.LoadInt64(&pairsRead),
		"pairs_skipped":   atomic.LoadInt64(&pairsSkipped),
		"evaluations":     atomic.LoadInt64(&evaluationsDone),
		"batches_flushed": atomic.LoadInt64(&batchesFlushed),
		"files_written":   atomic.LoadInt64(&filesWritten),
		"bytes_written":   atomic.LoadInt64(&bytesWritten),
	}
}

var reportMetricNames = map[string]string{
	"errors":          "Errors",
	"warns":           "Warnings",
	"pairs_read":      "PairsRead",
	"pairs_skipped":   "PairsSkipped",
	"evaluations":     "Evaluations",
	"batches_flushed": "BatchesFlushed",
	"files_written":   "FilesWritten",
	"bytes_written":   "BytesWritten",
}

// StartReport logs the pipeline counters every interval until ctx is done.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				LogReport(ctx, log)
			}
		}
	}()
}

// LogReport emits one runtime report entry and publishes it to CloudWatch.
func LogReport(ctx context.Context, log *Log) {
	snap := Snapshot()
	fields := Fields{"goroutines": runtime.NumGoroutine()}
	data := make([]cwtypes.MetricDatum, 0, len(snap))
	for k, v := range snap {
		fields[k] = v
		unit := cwtypes.StandardUnitCount
		if k == "bytes_written" {
			unit = cwtypes.StandardUnitBytes
		}
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(reportMetricNames[k]),
			Unit:       unit,
			Value:      aws.Float64(float64(v)),
		})
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")
	publishMetrics(ctx, data)
}
