// Command coveredcall evaluates a single covered call from command line
// quotes, without a snapshot file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"optionflow/logger"
	"optionflow/models"
	"optionflow/report"
	"optionflow/strategy"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.GetLogger().WithComponent("main").WithError(err).Error("coveredcall failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("coveredcall", flag.ContinueOnError)
	symbol := fs.String("symbol", "CALL", "Option symbol")
	strike := fs.Float64("k", 0, "Strike price")
	callBid := fs.Float64("call-bid", 0, "Call bid price")
	callAsk := fs.Float64("call-ask", 0, "Call ask price")
	uaBid := fs.Float64("ua-bid", 0, "Underlying bid price")
	uaAsk := fs.Float64("ua-ask", 0, "Underlying ask price")
	long := fs.Float64("long", 0, "Commission rate on long transactions")
	short := fs.Float64("short", 0, "Commission rate on short transactions")
	contractSize := fs.Float64("contract-size", 1, "Units of the underlying per contract")
	perContract := fs.Bool("per-contract", false, "Scale profit and loss by -contract-size")
	steps := fs.Int("scenarios", 9, "Settlement prices in the scenario table, 0 to skip")
	precision := fs.Int("precision", 4, "Decimals to print")
	logLevel := fs.String("log-level", "warn", "Log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := log.Configure(*logLevel, "text", "stderr", 0); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	if *strike <= 0 {
		fs.Usage()
		return fmt.Errorf("%w: -k must be positive", errUsage)
	}
	if *perContract && *contractSize <= 0 {
		fs.Usage()
		return fmt.Errorf("%w: -contract-size must be positive with -per-contract", errUsage)
	}

	commission := models.Commission{Long: *long, Short: *short}
	call := models.Option{
		Symbol:       *symbol,
		OptionType:   models.Call,
		ContractSize: *contractSize,
		K:            *strike,
		BidPrice:     *callBid,
		AskPrice:     *callAsk,
		Commission:   commission,
	}
	ua := models.UnderlyingAsset{
		Symbol:     "UNDERLYING",
		BidPrice:   *uaBid,
		AskPrice:   *uaAsk,
		Commission: commission,
	}

	eval := strategy.Evaluate(models.Pair{Call: call, Underlying: ua, Timestamp: time.Now().UTC()})

	opts := report.Options{Title: "Covered call", Precision: int32(*precision), PerContract: *perContract}
	if err := report.Render(stdout, []models.Evaluation{eval}, opts); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if *steps > 0 {
		grid := strategy.PriceGrid(0.8*call.K, 1.2*call.K, *steps)
		if err := report.RenderScenarios(stdout, call, strategy.Scenarios(call, ua, grid), int32(*precision)); err != nil {
			return fmt.Errorf("failed to render scenarios: %w", err)
		}
	}
	return nil
}
