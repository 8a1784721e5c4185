// Package data loads tabular datasets into tensors: CSV ingestion,
// label encoding, train/test splitting and feature standardization.
package data

import (
	"io"
	"math/rand"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/dakofler/walnut/internal/tensor"
)

// Dataset pairs a feature matrix X [samples, features] with targets Y.
// For classification, Y holds class indices [samples] and ClassNames
// maps them back to the original labels. For regression, Y is
// [samples, 1] and ClassNames is nil.
type Dataset struct {
	X            *tensor.Tensor
	Y            *tensor.Tensor
	FeatureNames []string
	ClassNames   []string
}

// NumSamples returns the number of rows.
func (d *Dataset) NumSamples() int { return d.X.Shape()[0] }

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int { return d.X.Shape()[1] }

// NumClasses returns the number of target classes, or 0 for regression
// targets.
func (d *Dataset) NumClasses() int { return len(d.ClassNames) }

// CSVOptions configures CSV ingestion.
type CSVOptions struct {
	// Target names the target column. Required.
	Target string

	// HasHeader indicates the first row holds column names.
	// Without a header, gota's generated names (X0, X1, ...) apply.
	HasHeader bool
}

// LoadCSV reads a dataset from a CSV file.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open dataset")
	}
	defer file.Close()

	ds, err := ReadCSV(file, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	klog.V(1).Infof("loaded %s: %d samples, %d features", path, ds.NumSamples(), ds.NumFeatures())
	return ds, nil
}

// ReadCSV reads a dataset from CSV content. String columns are label
// encoded in order of first appearance; numeric columns are taken as
// is. The target column becomes Y, everything else becomes X.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	if opts.Target == "" {
		return nil, errors.New("csv: target column name is required")
	}

	df := dataframe.ReadCSV(r, dataframe.HasHeader(opts.HasHeader))
	if df.Error() != nil {
		return nil, errors.Wrap(df.Error(), "failed to parse csv")
	}
	if df.Nrow() == 0 {
		return nil, errors.New("csv: no data rows")
	}

	var featureNames []string
	targetFound := false
	for _, name := range df.Names() {
		if name == opts.Target {
			targetFound = true
			continue
		}
		featureNames = append(featureNames, name)
	}
	if !targetFound {
		return nil, errors.Errorf("csv: target column %q not found in %v", opts.Target, df.Names())
	}
	if len(featureNames) == 0 {
		return nil, errors.New("csv: no feature columns besides the target")
	}

	n := df.Nrow()
	x := tensor.Zeros(tensor.Shape{n, len(featureNames)})
	for j, name := range featureNames {
		values, err := columnValues(df.Col(name))
		if err != nil {
			return nil, errors.Wrapf(err, "feature column %q", name)
		}
		for i, v := range values {
			x.Data()[i*len(featureNames)+j] = v
		}
	}

	y, classNames, err := targetValues(df.Col(opts.Target))
	if err != nil {
		return nil, errors.Wrapf(err, "target column %q", opts.Target)
	}

	return &Dataset{
		X:            x,
		Y:            y,
		FeatureNames: featureNames,
		ClassNames:   classNames,
	}, nil
}

// columnValues converts one column to float32 values, label encoding
// string columns.
func columnValues(col series.Series) ([]float32, error) {
	switch col.Type() {
	case series.Float, series.Int:
		raw := col.Float()
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = float32(v)
		}
		return out, nil
	case series.String:
		encoded, _ := encodeLabels(col.Records())
		return encoded, nil
	default:
		return nil, errors.Errorf("unsupported column type %v", col.Type())
	}
}

// targetValues converts the target column. Numeric targets become a
// [n, 1] regression tensor; string targets become class indices [n].
func targetValues(col series.Series) (*tensor.Tensor, []string, error) {
	switch col.Type() {
	case series.Float, series.Int:
		raw := col.Float()
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = float32(v)
		}
		return tensor.New(out, tensor.Shape{len(out), 1}), nil, nil
	case series.String:
		encoded, classes := encodeLabels(col.Records())
		return tensor.New(encoded, tensor.Shape{len(encoded)}), classes, nil
	default:
		return nil, nil, errors.Errorf("unsupported column type %v", col.Type())
	}
}

// encodeLabels maps string labels to indices in order of first
// appearance and returns the vocabulary.
func encodeLabels(records []string) ([]float32, []string) {
	index := make(map[string]int)
	var classes []string
	out := make([]float32, len(records))
	for i, label := range records {
		code, ok := index[label]
		if !ok {
			code = len(classes)
			index[label] = code
			classes = append(classes, label)
		}
		out[i] = float32(code)
	}
	return out, classes
}

// OneHotTargets expands class-index targets [n] into one-hot rows
// [n, numClasses], for losses that expect distributions.
func (d *Dataset) OneHotTargets() (*tensor.Tensor, error) {
	if d.NumClasses() == 0 {
		return nil, errors.New("one-hot encoding requires a classification target")
	}
	return tensor.OneHot(d.Y, d.NumClasses()), nil
}

// Split partitions the dataset into train and test subsets. ratio is
// the training fraction in (0, 1); rows are shuffled with the seed
// first so class runs in the source file do not end up in one side.
func (d *Dataset) Split(ratio float64, seed int64) (train, test *Dataset, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, errors.Errorf("split ratio must be in (0, 1), got %g", ratio)
	}

	n := d.NumSamples()
	order := rand.New(rand.NewSource(seed)).Perm(n)
	cut := int(float64(n) * ratio)
	if cut == 0 || cut == n {
		return nil, nil, errors.Errorf("split of %d samples at ratio %g leaves an empty side", n, ratio)
	}

	train = d.subset(order[:cut])
	test = d.subset(order[cut:])
	return train, test, nil
}

func (d *Dataset) subset(indices []int) *Dataset {
	features := d.NumFeatures()
	x := tensor.Zeros(tensor.Shape{len(indices), features})

	yShape := d.Y.Shape().Clone()
	yRow := 1
	for _, dim := range yShape[1:] {
		yRow *= dim
	}
	yShape[0] = len(indices)
	y := tensor.Zeros(yShape)

	for i, idx := range indices {
		copy(x.Data()[i*features:(i+1)*features], d.X.Data()[idx*features:(idx+1)*features])
		copy(y.Data()[i*yRow:(i+1)*yRow], d.Y.Data()[idx*yRow:(idx+1)*yRow])
	}

	return &Dataset{
		X:            x,
		Y:            y,
		FeatureNames: d.FeatureNames,
		ClassNames:   d.ClassNames,
	}
}
