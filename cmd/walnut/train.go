package main

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/dakofler/walnut/data"
	"github.com/dakofler/walnut/nn"
	"github.com/dakofler/walnut/optim"
	"github.com/dakofler/walnut/train"
)

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the training config YAML")
	klog.InitFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("train: -config is required")
	}

	cfg, err := loadTrainConfig(*configPath)
	if err != nil {
		return err
	}

	ds, err := data.LoadCSV(cfg.Dataset.Path, data.CSVOptions{
		Target:    cfg.Dataset.Target,
		HasHeader: cfg.hasHeader(),
	})
	if err != nil {
		return errors.Wrap(err, "loading dataset")
	}
	fmt.Printf("Dataset: %d samples, %d features", ds.NumSamples(), ds.NumFeatures())
	if cfg.Training.Task == "classification" {
		fmt.Printf(", %d classes", ds.NumClasses())
	}
	fmt.Println()

	trainSet, testSet, err := ds.Split(cfg.Dataset.Split, cfg.Dataset.Seed)
	if err != nil {
		return err
	}

	trainX, testX := trainSet.X, testSet.X
	if cfg.Dataset.Standardize {
		std := &data.Standardizer{}
		if trainX, err = std.FitTransform(trainSet.X); err != nil {
			return err
		}
		if testX, err = std.Transform(testSet.X); err != nil {
			return err
		}
	}

	var loss nn.Loss
	var metrics []train.Metric
	var outUnits int
	trainY, testY := trainSet.Y, testSet.Y
	if cfg.Training.Task == "classification" {
		outUnits = ds.NumClasses()
		if outUnits < 2 {
			return errors.Errorf("classification needs at least 2 classes, got %d", outUnits)
		}
		loss = nn.NewCrossEntropyLoss()
		metrics = []train.Metric{&train.Accuracy{}}
	} else {
		outUnits = 1
		loss = nn.NewMSELoss()
		metrics = []train.Metric{&train.R2{}}
		trainY = trainY.Reshape(trainY.Shape()[0], 1)
		testY = testY.Reshape(testY.Shape()[0], 1)
	}

	model, err := buildMLP(cfg, ds.NumFeatures(), outUnits)
	if err != nil {
		return err
	}
	fmt.Println(model.Summary())

	opt, err := buildOptimizer(cfg, model.Parameters())
	if err != nil {
		return err
	}

	trainLoader, err := train.NewDataLoader(trainX, trainY, train.DataLoaderConfig{
		BatchSize: cfg.Training.BatchSize,
		Shuffle:   true,
		Seed:      cfg.Dataset.Seed,
	})
	if err != nil {
		return err
	}
	testLoader, err := train.NewDataLoader(testX, testY, train.DataLoaderConfig{
		BatchSize: cfg.Training.BatchSize,
	})
	if err != nil {
		return err
	}

	var callbacks []train.Callback
	if cfg.Training.Patience > 0 {
		callbacks = append(callbacks, train.NewEarlyStopping(cfg.Training.Patience, 0))
	}

	trainer := train.NewTrainer(model, loss, opt, train.TrainerConfig{
		Epochs:       cfg.Training.Epochs,
		Metrics:      metrics,
		Callbacks:    callbacks,
		ShowProgress: true,
	})

	history, err := trainer.Fit(trainLoader, testLoader)
	if err != nil {
		return errors.Wrap(err, "training")
	}

	last := history.Last()
	fmt.Printf("Final: train loss %.4f, val loss %.4f", last.TrainLoss, last.ValLoss)
	for name, v := range last.ValMetrics {
		fmt.Printf(", %s %.4f", name, v)
	}
	fmt.Println()

	meta := train.CheckpointMeta{
		Epoch: last.Epoch,
		Loss:  float64(last.ValLoss),
	}
	if err := train.SaveCheckpoint(cfg.Training.Output, model, opt, meta); err != nil {
		return errors.Wrap(err, "saving model")
	}
	fmt.Printf("Saved model to %s\n", cfg.Training.Output)
	return nil
}

func buildMLP(cfg *TrainConfig, inFeatures, outUnits int) (*nn.Sequential, error) {
	var modules []nn.Module
	in := inFeatures
	for _, h := range cfg.Model.Hidden {
		if h < 1 {
			return nil, errors.Errorf("model.hidden entries must be positive, got %d", h)
		}
		modules = append(modules, nn.NewLinear(in, h))
		if cfg.Model.BatchNorm {
			modules = append(modules, nn.NewBatchNorm1D(h))
		}
		act, err := buildActivation(cfg.Model.Activation)
		if err != nil {
			return nil, err
		}
		modules = append(modules, act)
		if cfg.Model.Dropout > 0 {
			modules = append(modules, nn.NewDropout(cfg.Model.Dropout))
		}
		in = h
	}
	modules = append(modules, nn.NewLinear(in, outUnits))
	return nn.NewSequential(modules...), nil
}

func buildActivation(name string) (nn.Module, error) {
	switch name {
	case "relu":
		return nn.NewReLU(), nil
	case "leaky_relu":
		return nn.NewLeakyReLU(0.01), nil
	case "sigmoid":
		return nn.NewSigmoid(), nil
	case "tanh":
		return nn.NewTanh(), nil
	case "gelu":
		return nn.NewGELU(), nil
	default:
		return nil, errors.Errorf("unknown activation %q", name)
	}
}

func buildOptimizer(cfg *TrainConfig, params []*nn.Parameter) (optim.Optimizer, error) {
	switch cfg.Training.Optimizer {
	case "sgd":
		return optim.NewSGD(params, optim.SGDConfig{
			LR:          cfg.Training.LR,
			Momentum:    cfg.Training.Momentum,
			WeightDecay: cfg.Training.WeightDecay,
		}), nil
	case "adam":
		return optim.NewAdam(params, optim.AdamConfig{
			LR:          cfg.Training.LR,
			WeightDecay: cfg.Training.WeightDecay,
		}), nil
	case "adamw":
		return optim.NewAdamW(params, optim.AdamConfig{
			LR:          cfg.Training.LR,
			WeightDecay: cfg.Training.WeightDecay,
		}), nil
	default:
		return nil, errors.Errorf("unknown optimizer %q", cfg.Training.Optimizer)
	}
}
