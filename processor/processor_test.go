package processor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	appconfig "optionflow/config"
	"optionflow/internal/channel"
	"optionflow/models"
)

func minimalConfig() *appconfig.Config {
	return &appconfig.Config{
		Processor: appconfig.ProcessorConfig{
			MaxWorkers:   2,
			BatchSize:    2,
			BatchTimeout: time.Hour,
		},
	}
}

func pair(symbol, underlying string, k float64) models.Pair {
	return models.Pair{
		Call: models.Option{
			InsCode:    symbol,
			Symbol:     symbol,
			Underlying: underlying,
			OptionType: models.Call,
			K:          k,
			BidPrice:   5,
			AskPrice:   5.5,
		},
		Underlying: models.UnderlyingAsset{Symbol: underlying, BidPrice: 100, AskPrice: 101},
		Timestamp:  time.Unix(1700000000, 0).UTC(),
	}
}

func collect(t *testing.T, ch *channel.Channels) []models.EvaluationBatch {
	t.Helper()
	var batches []models.EvaluationBatch
	timeout := time.After(5 * time.Second)
	for {
		select {
		case b, ok := <-ch.Norm:
			if !ok {
				return batches
			}
			batches = append(batches, b)
		case <-timeout:
			t.Fatal("timed out waiting for norm channel to close")
		}
	}
}

func TestEvaluatorStartStop(t *testing.T) {
	ch := channel.NewChannels(1, 1)
	e := NewEvaluator(minimalConfig(), ch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.Start(ctx); err == nil {
		t.Fatalf("expected error on second start")
	}
	ch.CloseRaw()
	e.Stop()
	if _, ok := <-ch.Norm; ok {
		t.Fatalf("norm channel should be closed after stop")
	}
}

func TestEvaluatorBatchesBySize(t *testing.T) {
	ch := channel.NewChannels(8, 8)
	e := NewEvaluator(minimalConfig(), ch)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ch.Raw <- pair("ABC-C-90", "ABC", 90)
	ch.Raw <- pair("ABC-C-100", "ABC", 100)
	ch.Raw <- pair("ABC-C-110", "ABC", 110)
	ch.Raw <- pair("XYZ-C-50", "XYZ", 50)
	ch.CloseRaw()

	batches := collect(t, ch)
	e.Stop()

	evals := Flatten(batches)
	if len(evals) != 4 {
		t.Fatalf("expected 4 evaluations, got %d", len(evals))
	}
	for _, b := range batches {
		if b.RecordCount != len(b.Evaluations) {
			t.Errorf("batch %s record count %d != %d", b.BatchID, b.RecordCount, len(b.Evaluations))
		}
		if b.RecordCount > 2 {
			t.Errorf("batch %s exceeds batch size: %d", b.BatchID, b.RecordCount)
		}
		if b.BatchID == "" {
			t.Errorf("batch without id")
		}
		under := b.Evaluations[0].Underlying
		for _, ev := range b.Evaluations {
			if ev.Underlying != under {
				t.Errorf("batch mixes underlyings %s and %s", under, ev.Underlying)
			}
		}
	}
	if len(batches) != 3 {
		t.Errorf("expected 3 batches (2 ABC + 1 XYZ), got %d", len(batches))
	}
}

func TestEvaluatorFlushesOnTimeout(t *testing.T) {
	cfg := minimalConfig()
	cfg.Processor.BatchSize = 100
	cfg.Processor.BatchTimeout = 10 * time.Millisecond
	ch := channel.NewChannels(1, 1)
	e := NewEvaluator(cfg, ch)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ch.CloseRaw()
		e.Stop()
	}()

	ch.Raw <- pair("ABC-C-100", "ABC", 100)

	select {
	case b := <-ch.Norm:
		if b.RecordCount != 1 {
			t.Fatalf("expected 1 record, got %d", b.RecordCount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("batch was not flushed on timeout")
	}
}

func TestEvaluatorResult(t *testing.T) {
	ch := channel.NewChannels(1, 1)
	cfg := minimalConfig()
	cfg.Processor.BatchSize = 1
	e := NewEvaluator(cfg, ch)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ch.Raw <- pair("ABC-C-100", "ABC", 100)
	ch.CloseRaw()

	batches := collect(t, ch)
	e.Stop()
	evals := Flatten(batches)
	if len(evals) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(evals))
	}
	got := evals[0].Result
	// No commission: NetAsk reads the underlying's bid (100), NetBid is 5.
	if got.MaxPotProfit != 5 || got.MaxPotLoss != -95 || got.BreakEven != 95 {
		t.Errorf("unexpected result %+v", got)
	}
	if evals[0].Strike != 100 {
		t.Errorf("strike = %v", evals[0].Strike)
	}
}

func evaluation(symbol string, maxProfit, current, breakEven float64) models.Evaluation {
	return models.Evaluation{
		Symbol: symbol,
		Result: models.CoveredCall{MaxPotProfit: maxProfit, CurrentProfit: current, BreakEven: breakEven},
	}
}

func symbolsOf(evals []models.Evaluation) []string {
	out := make([]string, len(evals))
	for i, e := range evals {
		out[i] = e.Symbol
	}
	return out
}

func TestRank(t *testing.T) {
	evals := []models.Evaluation{
		evaluation("a", 1, 3, 90),
		evaluation("b", 3, 1, 95),
		evaluation("c", 2, 2, 80),
		evaluation("d", math.NaN(), math.NaN(), math.NaN()),
		evaluation("e", 3, 0, 100),
	}

	tests := []struct {
		by   string
		want []string
	}{
		{RankMaxPotProfit, []string{"b", "e", "c", "a", "d"}},
		{RankCurrentProfit, []string{"a", "c", "b", "e", "d"}},
		{RankBreakEven, []string{"c", "a", "b", "e", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.by, func(t *testing.T) {
			ranked, err := Rank(evals, tt.by)
			if err != nil {
				t.Fatalf("Rank: %v", err)
			}
			got := symbolsOf(ranked)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Rank(%s) = %v, want %v", tt.by, got, tt.want)
				}
			}
		})
	}

	if evals[0].Symbol != "a" {
		t.Errorf("Rank modified its input")
	}
}

func TestRankUnknownKey(t *testing.T) {
	_, err := Rank(nil, "volume")
	if !errors.Is(err, ErrUnknownRankKey) {
		t.Fatalf("expected ErrUnknownRankKey, got %v", err)
	}
}
