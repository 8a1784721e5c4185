package train

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/optim"
)

// Trainer drives the training loop. Every batch runs the same fixed
// sequence: forward, loss, backward, optimizer step, gradient reset.
type Trainer struct {
	model  nn.Module
	loss   nn.Loss
	opt    optim.Optimizer
	config TrainerConfig
}

// TrainerConfig holds configuration for a Trainer.
type TrainerConfig struct {
	Epochs       int             // number of epochs (default 10)
	Metrics      []Metric        // evaluated on the validation set
	Callbacks    []Callback      // invoked after every epoch
	Scheduler    optim.Scheduler // stepped once per epoch, optional
	ShowProgress bool            // render a console progress bar
}

// NewTrainer creates a trainer for the given model, loss and optimizer.
func NewTrainer(model nn.Module, loss nn.Loss, opt optim.Optimizer, config TrainerConfig) *Trainer {
	if config.Epochs == 0 {
		config.Epochs = 10
	}
	return &Trainer{model: model, loss: loss, opt: opt, config: config}
}

// Fit trains the model on trainData for the configured number of
// epochs. With a non-nil valData, each epoch ends with a validation
// pass in inference mode. The returned History covers every completed
// epoch, also when a callback stopped the run early.
func (t *Trainer) Fit(trainData, valData *DataLoader) (*History, error) {
	history := &History{}
	callbacks := append([]Callback{history}, t.config.Callbacks...)

	t.model.SetTraining(true)
	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		trainLoss, err := t.trainEpoch(trainData, epoch)
		if err != nil {
			return history, err
		}

		valLoss := float32(math.NaN())
		var valMetrics map[string]float32
		if valData != nil {
			valLoss, valMetrics = t.Evaluate(valData)
			t.model.SetTraining(true)
		}

		if t.config.Scheduler != nil {
			t.config.Scheduler.Step()
		}

		stats := EpochStats{
			Epoch:      epoch,
			TrainLoss:  trainLoss,
			ValLoss:    valLoss,
			ValMetrics: valMetrics,
			LR:         t.opt.LR(),
		}
		klog.V(1).Infof("epoch %d/%d: train loss %.6f, val loss %.6f, lr %g",
			epoch, t.config.Epochs, trainLoss, valLoss, stats.LR)

		for _, cb := range callbacks {
			if err := cb.OnEpochEnd(stats); err != nil {
				if errors.Is(err, ErrStopTraining) {
					return history, nil
				}
				return history, errors.Wrapf(err, "callback failed at epoch %d", epoch)
			}
		}
	}
	return history, nil
}

// trainEpoch runs one pass over the training data and returns the mean
// loss per sample.
func (t *Trainer) trainEpoch(dl *DataLoader, epoch int) (float32, error) {
	dl.Reset()

	var bar *progressbar.ProgressBar
	if t.config.ShowProgress {
		bar = progressbar.NewOptions(dl.NumBatches(),
			progressbar.OptionSetDescription(fmt.Sprintf("epoch %d/%d", epoch, t.config.Epochs)),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("batches"),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionClearOnFinish(),
		)
	}

	var lossSum float64
	var samples int
	for {
		xb, yb, ok := dl.Next()
		if !ok {
			break
		}

		out := t.model.Forward(xb)
		batchLoss := t.loss.Forward(out, yb)
		t.model.Backward(t.loss.Backward())
		t.opt.Step()
		t.opt.ZeroGrad()

		n := xb.Shape()[0]
		lossSum += float64(batchLoss.Item()) * float64(n)
		samples += n

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if samples == 0 {
		return 0, errors.New("trainer: no batches produced, dataset smaller than batch size with DropLast")
	}
	return float32(lossSum / float64(samples)), nil
}

// Evaluate runs the model over dl in inference mode and returns the
// mean loss and the configured metrics, averaged over samples.
func (t *Trainer) Evaluate(dl *DataLoader) (float32, map[string]float32) {
	t.model.SetTraining(false)
	dl.Reset()

	var lossSum float64
	metricSums := make(map[string]float64, len(t.config.Metrics))
	var samples int

	for {
		xb, yb, ok := dl.Next()
		if !ok {
			break
		}

		out := t.model.Forward(xb)
		lossValue := t.loss.Forward(out, yb)

		n := xb.Shape()[0]
		lossSum += float64(lossValue.Item()) * float64(n)
		for _, m := range t.config.Metrics {
			metricSums[m.Name()] += float64(m.Compute(out, yb)) * float64(n)
		}
		samples += n
	}

	if samples == 0 {
		return float32(math.NaN()), nil
	}

	metrics := make(map[string]float32, len(metricSums))
	for name, sum := range metricSums {
		metrics[name] = float32(sum / float64(samples))
	}
	return float32(lossSum / float64(samples)), metrics
}
