package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TrainConfig is the YAML schema consumed by the train command.
type TrainConfig struct {
	Dataset struct {
		Path        string  `yaml:"path"`
		Target      string  `yaml:"target"`
		HasHeader   *bool   `yaml:"has_header"`
		Standardize bool    `yaml:"standardize"`
		Split       float64 `yaml:"split"`
		Seed        int64   `yaml:"seed"`
	} `yaml:"dataset"`

	Model struct {
		Hidden     []int   `yaml:"hidden"`
		Activation string  `yaml:"activation"`
		Dropout    float32 `yaml:"dropout"`
		BatchNorm  bool    `yaml:"batch_norm"`
	} `yaml:"model"`

	Training struct {
		Task        string  `yaml:"task"` // classification or regression
		Epochs      int     `yaml:"epochs"`
		BatchSize   int     `yaml:"batch_size"`
		Optimizer   string  `yaml:"optimizer"` // sgd, adam or adamw
		LR          float32 `yaml:"lr"`
		Momentum    float32 `yaml:"momentum"`
		WeightDecay float32 `yaml:"weight_decay"`
		Patience    int     `yaml:"patience"` // early stopping, 0 disables
		Output      string  `yaml:"output"`
	} `yaml:"training"`
}

func loadTrainConfig(path string) (*TrainConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := &TrainConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	if cfg.Dataset.Path == "" {
		return nil, errors.New("dataset.path is required")
	}
	if cfg.Dataset.Target == "" {
		return nil, errors.New("dataset.target is required")
	}
	if cfg.Dataset.Split == 0 {
		cfg.Dataset.Split = 0.8
	}
	if cfg.Dataset.Split <= 0 || cfg.Dataset.Split >= 1 {
		return nil, errors.Errorf("dataset.split must be in (0, 1), got %v", cfg.Dataset.Split)
	}
	if cfg.Dataset.Seed == 0 {
		cfg.Dataset.Seed = 1
	}

	if len(cfg.Model.Hidden) == 0 {
		cfg.Model.Hidden = []int{32}
	}
	if cfg.Model.Activation == "" {
		cfg.Model.Activation = "relu"
	}
	if cfg.Model.Dropout < 0 || cfg.Model.Dropout >= 1 {
		return nil, errors.Errorf("model.dropout must be in [0, 1), got %v", cfg.Model.Dropout)
	}

	switch cfg.Training.Task {
	case "classification", "regression":
	case "":
		cfg.Training.Task = "classification"
	default:
		return nil, errors.Errorf("training.task must be classification or regression, got %q", cfg.Training.Task)
	}
	switch cfg.Training.Optimizer {
	case "sgd", "adam", "adamw":
	case "":
		cfg.Training.Optimizer = "adam"
	default:
		return nil, errors.Errorf("training.optimizer must be sgd, adam or adamw, got %q", cfg.Training.Optimizer)
	}
	if cfg.Training.Output == "" {
		cfg.Training.Output = "model.wnut"
	}
	return cfg, nil
}

func (c *TrainConfig) hasHeader() bool {
	if c.Dataset.HasHeader == nil {
		return true
	}
	return *c.Dataset.HasHeader
}
