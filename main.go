package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"optionflow/config"
	"optionflow/internal/pipeline"
	"optionflow/internal/storage"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/processor"
	"optionflow/reader"
	"optionflow/report"
	"optionflow/strategy"
	"optionflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	snapshotPath := flag.String("snapshot", "", "Quote snapshot file or s3://bucket/key (overrides reader.snapshot)")
	universePath := flag.String("universe", "", "Underlying universe file (overrides reader.universe)")
	rankBy := flag.String("rank", "", "Rank key: "+strings.Join(processor.RankKeys, ", "))
	perContract := flag.Bool("per-contract", false, "Scale results by contract size")
	scenarioSteps := flag.Int("scenarios", 0, "Print a settlement table with this many prices for the top result")
	noWrite := flag.Bool("no-write", false, "Do not write parquet results")
	limit := flag.Int("limit", -1, "Maximum rows to print (overrides report.limit)")

	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolveConfigPath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if *snapshotPath != "" {
		cfg.Reader.Snapshot = *snapshotPath
	}
	if *universePath != "" {
		cfg.Reader.Universe = *universePath
	}
	if *rankBy != "" {
		cfg.Report.RankBy = *rankBy
	}
	if *perContract {
		cfg.Report.PerContract = true
	}
	if *limit >= 0 {
		cfg.Report.Limit = *limit
	}
	if *noWrite {
		cfg.Writer.Enabled = false
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Optionflow.Name,
		"version":     cfg.Optionflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting optionflow")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Logging.CloudWatchNamespace != "" {
		logger.InitCloudWatch(ctx, cfg.Storage.S3.Region, cfg.Logging.CloudWatchNamespace, cfg.Logging.DashboardName)
		logger.CreateDefaultDashboard(ctx)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	var s3Client *s3.Client
	if cfg.Storage.S3.Enabled || storage.IsS3URI(cfg.Reader.Snapshot) {
		s3Client, err = storage.NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			log.WithError(err).Error("failed to create S3 client")
			os.Exit(1)
		}
	}

	var getter reader.ObjectGetter
	var sink writer.Sink
	if s3Client != nil {
		getter = s3Client
	}
	if cfg.Writer.Enabled {
		var store writer.ObjectStore
		if s3Client != nil {
			store = s3Client
		}
		sink, err = writer.NewSink(cfg, store)
		if err != nil {
			log.WithError(err).Error("failed to create result sink")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Info("writer disabled; results are only reported")
	}

	p := pipeline.New(cfg, getter, sink)
	if cfg.Reader.Universe != "" {
		universe, err := config.LoadUniverse(cfg.Reader.Universe)
		if err != nil {
			log.WithError(err).Error("failed to load universe")
			os.Exit(1)
		}
		p.SetUniverse(universe.Symbols())
	}

	result, err := p.Run(ctx)
	if err != nil {
		log.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}

	ranked, err := processor.Rank(result.Evaluations, cfg.Report.RankBy)
	if err != nil {
		log.WithError(err).Error("failed to rank evaluations")
		os.Exit(1)
	}

	opts := report.Options{
		Title:       "Covered calls by " + cfg.Report.RankBy,
		Precision:   cfg.Report.Precision,
		PerContract: cfg.Report.PerContract,
		Limit:       cfg.Report.Limit,
	}
	if err := report.Render(os.Stdout, ranked, opts); err != nil {
		log.WithError(err).Error("failed to render report")
		os.Exit(1)
	}

	if *scenarioSteps > 0 && len(ranked) > 0 {
		if err := renderTopScenarios(ctx, cfg, getter, ranked[0], *scenarioSteps); err != nil {
			log.WithError(err).Warn("failed to render scenarios")
		}
	}

	logger.LogReport(ctx, log)
	log.WithFields(logger.Fields{"duration_ms": result.Duration.Milliseconds()}).Info("optionflow finished")
}

// renderTopScenarios reloads the snapshot to find the legs of best and prints
// its P&L from 80% to 120% of the strike.
func renderTopScenarios(ctx context.Context, cfg *config.Config, getter reader.ObjectGetter, best models.Evaluation, steps int) error {
	snap, err := reader.LoadSnapshot(ctx, cfg, getter, cfg.Reader.Snapshot)
	if err != nil {
		return err
	}
	pairs, _ := snap.Pairs(cfg.Commission, cfg.Reader.Validation, nil)
	for _, p := range pairs {
		if p.Call.InsCode != best.InsCode || p.Call.Symbol != best.Symbol {
			continue
		}
		grid := strategy.PriceGrid(0.8*p.Call.K, 1.2*p.Call.K, steps)
		return report.RenderScenarios(os.Stdout, p.Call, strategy.Scenarios(p.Call, p.Underlying, grid), cfg.Report.Precision)
	}
	return nil
}
