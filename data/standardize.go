package data

import (
	"math"

	"github.com/pkg/errors"

	"github.com/dakofler/walnut/internal/tensor"
)

// Standardizer rescales features to zero mean and unit variance. Fit it
// on the training features only and apply the same statistics to the
// test features, so no test information leaks into training.
type Standardizer struct {
	mean []float32
	std  []float32
}

// Fit computes per-column mean and standard deviation from x.
func (s *Standardizer) Fit(x *tensor.Tensor) error {
	if x.Dims() != 2 {
		return errors.Errorf("standardizer: expected 2D features, got shape %v", x.Shape())
	}

	n, features := x.Shape()[0], x.Shape()[1]
	s.mean = make([]float32, features)
	s.std = make([]float32, features)

	for j := 0; j < features; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += float64(x.Data()[i*features+j])
		}
		mean := sum / float64(n)

		var variance float64
		for i := 0; i < n; i++ {
			d := float64(x.Data()[i*features+j]) - mean
			variance += d * d
		}
		variance /= float64(n)

		s.mean[j] = float32(mean)
		std := float32(math.Sqrt(variance))
		if std == 0 {
			// Constant column: map to zero instead of dividing by zero.
			std = 1
		}
		s.std[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x using the fitted
// statistics.
func (s *Standardizer) Transform(x *tensor.Tensor) (*tensor.Tensor, error) {
	if s.mean == nil {
		return nil, errors.New("standardizer: Transform called before Fit")
	}
	if x.Dims() != 2 || x.Shape()[1] != len(s.mean) {
		return nil, errors.Errorf("standardizer: expected shape [*, %d], got %v", len(s.mean), x.Shape())
	}

	features := len(s.mean)
	out := x.Clone()
	for i := 0; i < x.Shape()[0]; i++ {
		for j := 0; j < features; j++ {
			idx := i*features + j
			out.Data()[idx] = (out.Data()[idx] - s.mean[j]) / s.std[j]
		}
	}
	return out, nil
}

// FitTransform fits on x and returns its standardized copy.
func (s *Standardizer) FitTransform(x *tensor.Tensor) (*tensor.Tensor, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
