// Copyright 2025 The Walnut Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the training loop: data loading, metrics,
// callbacks and checkpointing.
//
// # Basic Usage
//
//	dl, err := train.NewDataLoader(x, y, train.DataLoaderConfig{
//	    BatchSize: 32,
//	    Shuffle:   true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	trainer := train.NewTrainer(model, nn.NewCrossEntropyLoss(), opt, train.TrainerConfig{
//	    Epochs:  20,
//	    Metrics: []train.Metric{train.Accuracy{}},
//	})
//	history, err := trainer.Fit(dl, valDl)
//
// Every batch runs the same fixed sequence: forward, loss, backward,
// optimizer step, gradient reset. Validation passes run in inference
// mode.
package train

import (
	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/optim"
	"github.com/dakofler/walnut/internal/serialization"
	"github.com/dakofler/walnut/internal/tensor"
	"github.com/dakofler/walnut/internal/train"
)

// DataLoader yields shuffled (x, y) mini batches.
type DataLoader = train.DataLoader

// DataLoaderConfig holds configuration for a DataLoader.
type DataLoaderConfig = train.DataLoaderConfig

// NewDataLoader creates a loader over x and y, which must agree on the
// number of samples.
func NewDataLoader(x, y *tensor.Tensor, config DataLoaderConfig) (*DataLoader, error) {
	return train.NewDataLoader(x, y, config)
}

// Trainer drives the training loop.
type Trainer = train.Trainer

// TrainerConfig holds configuration for a Trainer.
type TrainerConfig = train.TrainerConfig

// NewTrainer creates a trainer for the given model, loss and optimizer.
func NewTrainer(model nn.Module, loss nn.Loss, opt optim.Optimizer, config TrainerConfig) *Trainer {
	return train.NewTrainer(model, loss, opt, config)
}

// Metrics

// Metric scores predictions against targets.
type Metric = train.Metric

// Accuracy is the fraction of correctly classified samples.
type Accuracy = train.Accuracy

// R2 is the coefficient of determination for regression.
type R2 = train.R2

// Callbacks

// Callback hooks into the training loop after every epoch.
type Callback = train.Callback

// EpochStats summarizes one training epoch.
type EpochStats = train.EpochStats

// History records the stats of every completed epoch.
type History = train.History

// ErrStopTraining is returned by a callback to end training early.
var ErrStopTraining = train.ErrStopTraining

// EarlyStopping stops training when the monitored loss stops improving.
type EarlyStopping = train.EarlyStopping

// NewEarlyStopping creates an early stopping callback.
func NewEarlyStopping(patience int, minDelta float32) *EarlyStopping {
	return train.NewEarlyStopping(patience, minDelta)
}

// ModelCheckpoint saves a checkpoint after each epoch.
type ModelCheckpoint = train.ModelCheckpoint

// NewModelCheckpoint creates a checkpointing callback.
func NewModelCheckpoint(path string, model nn.Module, opt optim.Optimizer, saveBest bool) *ModelCheckpoint {
	return train.NewModelCheckpoint(path, model, opt, saveBest)
}

// Checkpoints

// CheckpointMeta carries training state alongside the model weights.
type CheckpointMeta = serialization.CheckpointMeta

// SaveCheckpoint writes model weights and optimizer state to a .wnut
// file.
func SaveCheckpoint(path string, model nn.Module, opt optim.Optimizer, meta CheckpointMeta) error {
	return train.SaveCheckpoint(path, model, opt, meta)
}

// LoadCheckpoint restores model weights and optimizer state from a
// .wnut checkpoint. Pass a nil optimizer to restore only the weights.
func LoadCheckpoint(path string, model nn.Module, opt optim.Optimizer) (*CheckpointMeta, error) {
	return train.LoadCheckpoint(path, model, opt)
}
