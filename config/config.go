package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Optionflow OptionflowConfig `yaml:"optionflow"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Reader     ReaderConfig     `yaml:"reader"`
	Processor  ProcessorConfig  `yaml:"processor"`
	Writer     WriterConfig     `yaml:"writer"`
	Storage    StorageConfig    `yaml:"storage"`
	Commission CommissionConfig `yaml:"commission"`
	Report     ReportConfig     `yaml:"report"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type OptionflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ChannelsConfig struct {
	RawBuffer       int           `yaml:"raw_buffer"`
	ProcessedBuffer int           `yaml:"processed_buffer"`
	StatsInterval   time.Duration `yaml:"stats_interval"`
}

type ReaderConfig struct {
	Snapshot   string           `yaml:"snapshot"`
	Universe   string           `yaml:"universe"`
	Timeout    time.Duration    `yaml:"timeout"`
	Validation ValidationConfig `yaml:"validation"`
}

type ValidationConfig struct {
	EnablePriceValidation bool    `yaml:"enable_price_validation"`
	MaxSpreadPercentage   float64 `yaml:"max_spread_percentage"`
}

type ProcessorConfig struct {
	MaxWorkers   int           `yaml:"max_workers"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// CommissionConfig is applied to any instrument whose snapshot entry omits
// its own commission.
type CommissionConfig struct {
	Long  float64 `yaml:"long"`
	Short float64 `yaml:"short"`
}

type WriterConfig struct {
	Enabled          bool               `yaml:"enabled"`
	LocalDir         string             `yaml:"local_dir"`
	UploadsPerSecond float64            `yaml:"uploads_per_second"`
	Partitioning     PartitioningConfig `yaml:"partitioning"`
	Formats          FormatsConfig      `yaml:"formats"`
}

type PartitioningConfig struct {
	TimeFormat     string   `yaml:"time_format"`
	AdditionalKeys []string `yaml:"additional_keys"`
}

type FormatsConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ReportConfig struct {
	RankBy      string `yaml:"rank_by"`
	Precision   int32  `yaml:"precision"`
	PerContract bool   `yaml:"per_contract"`
	Limit       int    `yaml:"limit"`
}

type LoggingConfig struct {
	Level               string `yaml:"level"`
	Format              string `yaml:"format"`
	Output              string `yaml:"output"`
	MaxAge              int    `yaml:"max_age"`
	CloudWatchNamespace string `yaml:"cloudwatch_namespace"`
	DashboardName       string `yaml:"dashboard_name"`
}

// Default returns the configuration used for any key the YAML file leaves out.
func Default() Config {
	return Config{
		Optionflow: OptionflowConfig{Name: "optionflow", Version: "dev"},
		Channels:   ChannelsConfig{RawBuffer: 256, ProcessedBuffer: 16},
		Reader:     ReaderConfig{Timeout: 30 * time.Second},
		Processor: ProcessorConfig{
			MaxWorkers:   4,
			BatchSize:    500,
			BatchTimeout: time.Second,
		},
		Writer: WriterConfig{
			Enabled:          true,
			LocalDir:         "results",
			UploadsPerSecond: 5,
			Partitioning:     PartitioningConfig{TimeFormat: "year={year}/month={month}/day={day}/hour={hour}"},
			Formats:          FormatsConfig{Parquet: ParquetConfig{Compression: "snappy"}},
		},
		Report:  ReportConfig{RankBy: "max_pot_profit", Precision: 4},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	if v := os.Getenv("OPTIONFLOW_SNAPSHOT"); v != "" {
		config.Reader.Snapshot = strings.TrimSpace(v)
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Storage.S3.Prefix = strings.Trim(config.Storage.S3.Prefix, "/ ")

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Optionflow.Name == "" {
		return fmt.Errorf("optionflow.name is required")
	}

	if cfg.Channels.RawBuffer <= 0 {
		return fmt.Errorf("channels.raw_buffer must be greater than 0")
	}
	if cfg.Channels.ProcessedBuffer <= 0 {
		return fmt.Errorf("channels.processed_buffer must be greater than 0")
	}
	if cfg.Channels.StatsInterval < 0 {
		return fmt.Errorf("channels.stats_interval must not be negative")
	}

	if cfg.Processor.MaxWorkers <= 0 {
		return fmt.Errorf("processor.max_workers must be greater than 0")
	}
	if cfg.Processor.BatchSize <= 0 {
		return fmt.Errorf("processor.batch_size must be greater than 0")
	}
	if cfg.Processor.BatchTimeout <= 0 {
		return fmt.Errorf("processor.batch_timeout must be greater than 0")
	}

	if cfg.Reader.Validation.MaxSpreadPercentage < 0 {
		return fmt.Errorf("reader.validation.max_spread_percentage must not be negative")
	}

	switch cfg.Writer.Formats.Parquet.Compression {
	case "", "none", "snappy", "gzip":
	default:
		return fmt.Errorf("writer.formats.parquet.compression '%s' is not supported", cfg.Writer.Formats.Parquet.Compression)
	}
	if cfg.Writer.UploadsPerSecond < 0 {
		return fmt.Errorf("writer.uploads_per_second must not be negative")
	}
	if cfg.Writer.Enabled && !cfg.Storage.S3.Enabled && cfg.Writer.LocalDir == "" {
		return fmt.Errorf("writer.local_dir is required when S3 is disabled")
	}

	switch cfg.Report.RankBy {
	case "max_pot_profit", "current_profit", "break_even":
	default:
		return fmt.Errorf("report.rank_by '%s' is not supported", cfg.Report.RankBy)
	}
	if cfg.Report.Precision < 0 {
		return fmt.Errorf("report.precision must not be negative")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
