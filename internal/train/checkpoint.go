package train

import (
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/dakofler/walnut/internal/nn"
	"github.com/dakofler/walnut/internal/optim"
	"github.com/dakofler/walnut/internal/serialization"
	"github.com/dakofler/walnut/internal/tensor"
)

// SaveCheckpoint writes model weights and optimizer state to a single
// .wnut file. Model tensors are prefixed "model.", optimizer buffers
// "optim.", so either side can be restored independently.
func SaveCheckpoint(path string, model nn.Module, opt optim.Optimizer, meta serialization.CheckpointMeta) error {
	state := make(map[string]*tensor.Tensor)
	for name, t := range model.StateDict() {
		state["model."+name] = t
	}
	for name, t := range opt.StateDict() {
		state["optim."+name] = t
	}

	if meta.OptimizerType == "" {
		meta.OptimizerType = optimizerName(opt)
	}
	if meta.OptimizerConfig == nil {
		meta.OptimizerConfig = map[string]float64{}
	}
	meta.OptimizerConfig["lr"] = float64(opt.LR())

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return errors.Wrap(err, "failed to create checkpoint")
	}
	defer writer.Close()

	header := serialization.Header{
		ModelType:      model.Label(),
		CheckpointMeta: &meta,
	}
	if err := writer.WriteStateDictWithHeader(state, header); err != nil {
		return errors.Wrap(err, "failed to write checkpoint")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to close checkpoint")
	}

	if info, err := os.Stat(path); err == nil {
		klog.V(1).Infof("saved checkpoint %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// LoadCheckpoint restores model weights and optimizer state from a
// .wnut checkpoint and returns its training metadata. Pass a nil
// optimizer to restore only the weights.
func LoadCheckpoint(path string, model nn.Module, opt optim.Optimizer) (*serialization.CheckpointMeta, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open checkpoint")
	}
	defer reader.Close()

	state, err := reader.ReadStateDict()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read checkpoint")
	}

	modelState := make(map[string]*tensor.Tensor)
	optState := make(map[string]*tensor.Tensor)
	for name, t := range state {
		switch {
		case strings.HasPrefix(name, "model."):
			modelState[strings.TrimPrefix(name, "model.")] = t
		case strings.HasPrefix(name, "optim."):
			optState[strings.TrimPrefix(name, "optim.")] = t
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, errors.Wrap(err, "failed to restore model state")
	}
	if opt != nil {
		if err := opt.LoadStateDict(optState); err != nil {
			return nil, errors.Wrap(err, "failed to restore optimizer state")
		}
	}
	return reader.CheckpointMeta(), nil
}

func optimizerName(opt optim.Optimizer) string {
	switch opt.(type) {
	case *optim.SGD:
		return "SGD"
	case *optim.Adam:
		return "Adam"
	default:
		return "unknown"
	}
}

// ModelCheckpoint saves a checkpoint after each epoch. With SaveBest it
// keeps only epochs that improve the monitored loss (validation loss
// when present, training loss otherwise).
type ModelCheckpoint struct {
	Path     string
	SaveBest bool

	model nn.Module
	opt   optim.Optimizer
	best  float32
}

// NewModelCheckpoint creates a checkpointing callback.
func NewModelCheckpoint(path string, model nn.Module, opt optim.Optimizer, saveBest bool) *ModelCheckpoint {
	return &ModelCheckpoint{
		Path:     path,
		SaveBest: saveBest,
		model:    model,
		opt:      opt,
		best:     float32(math.Inf(1)),
	}
}

// OnEpochEnd writes the checkpoint when due.
func (m *ModelCheckpoint) OnEpochEnd(stats EpochStats) error {
	monitored := stats.ValLoss
	if math.IsNaN(float64(monitored)) {
		monitored = stats.TrainLoss
	}
	if m.SaveBest && monitored >= m.best {
		return nil
	}
	m.best = monitored

	return SaveCheckpoint(m.Path, m.model, m.opt, serialization.CheckpointMeta{
		Epoch: stats.Epoch,
		Loss:  float64(monitored),
	})
}
