package train

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrStopTraining is returned by a callback to end training early
// without reporting a failure.
var ErrStopTraining = errors.New("training stopped by callback")

// EpochStats summarizes one training epoch for callbacks and history.
type EpochStats struct {
	Epoch      int                // 1-based
	TrainLoss  float32            // mean training loss over the epoch
	ValLoss    float32            // mean validation loss, NaN without a validation set
	ValMetrics map[string]float32 // metric name -> value on the validation set
	LR         float32            // learning rate after this epoch
}

// Callback hooks into the training loop. OnEpochEnd may return
// ErrStopTraining to end the run early.
type Callback interface {
	OnEpochEnd(stats EpochStats) error
}

// History records the stats of every completed epoch. The Trainer
// always installs one and returns it from Fit.
type History struct {
	Epochs []EpochStats
}

// OnEpochEnd appends the epoch record.
func (h *History) OnEpochEnd(stats EpochStats) error {
	h.Epochs = append(h.Epochs, stats)
	return nil
}

// Last returns the most recent epoch record.
func (h *History) Last() EpochStats {
	if len(h.Epochs) == 0 {
		return EpochStats{}
	}
	return h.Epochs[len(h.Epochs)-1]
}

// EarlyStopping stops training when the monitored loss has not improved
// by at least MinDelta for Patience consecutive epochs. It monitors the
// validation loss when present, the training loss otherwise.
type EarlyStopping struct {
	Patience int     // epochs to wait without improvement (default 5)
	MinDelta float32 // minimum decrease that counts as improvement

	best    float32
	waiting int
}

// NewEarlyStopping creates an early stopping callback.
func NewEarlyStopping(patience int, minDelta float32) *EarlyStopping {
	if patience < 1 {
		patience = 5
	}
	return &EarlyStopping{Patience: patience, MinDelta: minDelta, best: float32(math.Inf(1))}
}

// OnEpochEnd returns ErrStopTraining after Patience epochs without
// improvement.
func (e *EarlyStopping) OnEpochEnd(stats EpochStats) error {
	monitored := stats.ValLoss
	if math.IsNaN(float64(monitored)) {
		monitored = stats.TrainLoss
	}

	if monitored < e.best-e.MinDelta {
		e.best = monitored
		e.waiting = 0
		return nil
	}

	e.waiting++
	if e.waiting >= e.Patience {
		klog.V(1).Infof("early stopping at epoch %d: no improvement for %d epochs (best loss %.6f)",
			stats.Epoch, e.waiting, e.best)
		return ErrStopTraining
	}
	return nil
}
