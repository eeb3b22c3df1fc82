package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envS3AccessKey = "ECFRAME_S3_ACCESS_KEY"
	envS3SecretKey = "ECFRAME_S3_SECRET_KEY"
)

type Config struct {
	Engine  engineConfig  `yaml:"engine"`
	Output  outputConfig  `yaml:"output"`
	Source  sourceConfig  `yaml:"source"`
	Secrets secretsConfig `yaml:"-"`
}
type engineConfig struct {
	// aggregate each descriptor on its own goroutine
	ParallelAggregation bool `yaml:"parallel_aggregation"`
	MaxWorkers          int  `yaml:"max_workers"`
}
type outputConfig struct {
	CSVRowLimit int    `yaml:"csv_row_limit"` // 0 renders every row
	TableStyle  string `yaml:"table_style"`   // default, light, rounded, bold
}
type sourceConfig struct {
	S3Endpoint       string `yaml:"s3_endpoint"`
	S3Bucket         string `yaml:"s3_bucket"`
	S3UseSSL         bool   `yaml:"s3_use_ssl"`
	CSVNullToken     string `yaml:"csv_null_token"` // cells equal to this load as Void
	ParquetBatchSize int    `yaml:"parquet_batch_size"`
}

// never read from yaml, only from the environment / .env file
type secretsConfig struct {
	S3AccessKey string
	S3SecretKey string
}

func defaultConfig() *Config {
	return &Config{
		Engine: engineConfig{
			ParallelAggregation: false,
			MaxWorkers:          4,
		},
		Output: outputConfig{
			CSVRowLimit: 0,
			TableStyle:  "default",
		},
		Source: sourceConfig{
			S3Endpoint:       "localhost:9000",
			S3Bucket:         "ecframe",
			S3UseSSL:         false,
			CSVNullToken:     "NULL",
			ParquetBatchSize: 1024 * 8, // rows per record batch
		},
	}
}

var configInstance = defaultConfig()

func GetConfig() *Config {
	return configInstance
}

// ResetConfig restores the defaults.
func ResetConfig() {
	configInstance = defaultConfig()
}

// overwrite global instance with loaded config
func Decode(filePath string) error {
	suffix := filepath.Ext(filePath)
	if suffix != ".yaml" && suffix != ".yml" {
		return errors.New("file must be a .yaml or .yml file")
	}
	r, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer r.Close()
	config := make(map[string]interface{})
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	mergeConfig(configInstance, config)
	return nil
}

// LoadSecrets reads S3 credentials from envFile (when it exists) and the process environment.
// Variables already set in the environment win over the file.
func LoadSecrets(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}
	configInstance.Secrets = secretsConfig{
		S3AccessKey: os.Getenv(envS3AccessKey),
		S3SecretKey: os.Getenv(envS3SecretKey),
	}
	return nil
}

func mergeConfig(dst *Config, src map[string]interface{}) {
	// =============================
	// ENGINE
	// =============================
	if engine, ok := src["engine"].(map[string]interface{}); ok {
		if v, ok := engine["parallel_aggregation"].(bool); ok {
			dst.Engine.ParallelAggregation = v
		}
		if v, ok := engine["max_workers"].(int); ok && v > 0 {
			dst.Engine.MaxWorkers = v
		}
	}

	// =============================
	// OUTPUT
	// =============================
	if output, ok := src["output"].(map[string]interface{}); ok {
		if v, ok := output["csv_row_limit"].(int); ok && v >= 0 {
			dst.Output.CSVRowLimit = v
		}
		if v, ok := output["table_style"].(string); ok {
			dst.Output.TableStyle = v
		}
	}

	// =============================
	// SOURCE
	// =============================
	if source, ok := src["source"].(map[string]interface{}); ok {
		if v, ok := source["s3_endpoint"].(string); ok {
			dst.Source.S3Endpoint = v
		}
		if v, ok := source["s3_bucket"].(string); ok {
			dst.Source.S3Bucket = v
		}
		if v, ok := source["s3_use_ssl"].(bool); ok {
			dst.Source.S3UseSSL = v
		}
		if v, ok := source["csv_null_token"].(string); ok {
			dst.Source.CSVNullToken = v
		}
		if v, ok := source["parquet_batch_size"].(int); ok && v > 0 {
			dst.Source.ParquetBatchSize = v
		}
	}
}
