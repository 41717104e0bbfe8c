// Package config loads run configuration from defaults, an optional YAML file
// and FRAUD_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is read when Load is given no path. It may be absent.
const DefaultPath = "configs/config.yaml"

const envPrefix = "FRAUD_"

type Config struct {
	LogLevel     string `koanf:"log_level" validate:"oneof=debug info warn error"`
	ArtifactPath string `koanf:"artifact_path" validate:"required"`
	MetricsPath  string `koanf:"metrics_path"`
	Strict       bool   `koanf:"strict"`

	Dataset  DatasetConfig  `koanf:"dataset"`
	Split    SplitConfig    `koanf:"split"`
	Training TrainingConfig `koanf:"training"`
	Forest   ForestConfig   `koanf:"forest"`
	Boost    BoostConfig    `koanf:"boost"`
	MLP      MLPConfig      `koanf:"mlp"`
	SMOTE    SMOTEConfig    `koanf:"smote"`
	Tracing  TracingConfig  `koanf:"tracing"`
}

type DatasetConfig struct {
	Rows       int     `koanf:"rows" validate:"gte=4"`
	Seed       int64   `koanf:"seed"`
	FraudRate  float64 `koanf:"fraud_rate" validate:"gt=0,lt=1"`
	ExportPath string  `koanf:"export_path"`
}

type SplitConfig struct {
	TestSize float64 `koanf:"test_size" validate:"gt=0,lt=1"`
	Seed     int64   `koanf:"seed"`
}

type TrainingConfig struct {
	// Model is checked by the model selector so that unknown names surface
	// as model.ErrUnknownModel.
	Model       string `koanf:"model" validate:"required"`
	Rebalance   bool   `koanf:"rebalance"`
	ProgressCSV string `koanf:"progress_csv"`
	// Verbose lets per-round fit progress through at debug level.
	Verbose bool `koanf:"verbose"`
}

type ForestConfig struct {
	Trees   int   `koanf:"trees" validate:"gte=1"`
	Seed    int64 `koanf:"seed"`
	Workers int   `koanf:"workers" validate:"gte=0"`
}

type BoostConfig struct {
	Rounds       int     `koanf:"rounds" validate:"gte=1"`
	MaxDepth     int     `koanf:"max_depth" validate:"gte=1"`
	LearningRate float64 `koanf:"learning_rate" validate:"gt=0"`
}

type MLPConfig struct {
	Epochs       int     `koanf:"epochs" validate:"gte=1"`
	LearningRate float64 `koanf:"learning_rate" validate:"gt=0"`
	Seed         int64   `koanf:"seed"`
	Activation   string  `koanf:"activation" validate:"oneof=relu tanh"`
	Loss         string  `koanf:"loss" validate:"oneof=bce mse"`
	Scheduler    string  `koanf:"scheduler" validate:"oneof=plateau step none"`
	StepSize     int     `koanf:"step_size" validate:"gte=1"`
}

type SMOTEConfig struct {
	Neighbors int   `koanf:"neighbors" validate:"gte=1"`
	Seed      int64 `koanf:"seed"`
}

type TracingConfig struct {
	// OTLPEndpoint is a host:port receiving spans over gRPC. Empty keeps
	// spans in-process.
	OTLPEndpoint string `koanf:"otlp_endpoint" validate:"omitempty,hostname_port"`
}

// Default returns the configuration that reproduces the reference run.
func Default() Config {
	return Config{
		LogLevel:     "info",
		ArtifactPath: "fraud_model.bin",
		Dataset: DatasetConfig{
			Rows:      1000,
			Seed:      42,
			FraudRate: 0.05,
		},
		Split: SplitConfig{
			TestSize: 0.25,
			Seed:     42,
		},
		Training: TrainingConfig{
			Model:     "rf",
			Rebalance: true,
		},
		Forest: ForestConfig{
			Trees: 300,
			Seed:  42,
		},
		Boost: BoostConfig{
			Rounds:       300,
			MaxDepth:     6,
			LearningRate: 0.1,
		},
		MLP: MLPConfig{
			Epochs:       50,
			LearningRate: 0.01,
			Seed:         42,
			Activation:   "relu",
			Loss:         "bce",
			Scheduler:    "plateau",
			StepSize:     10,
		},
		SMOTE: SMOTEConfig{
			Neighbors: 5,
			Seed:      42,
		},
	}
}

// sections are the nested keys environment variables may address.
var sections = []string{"dataset", "split", "training", "forest", "boost", "mlp", "smote", "tracing"}

// envKey maps FRAUD_BOOST_MAX_DEPTH to boost.max_depth and FRAUD_LOG_LEVEL to
// log_level.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Load builds the configuration. An empty path reads DefaultPath if it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
