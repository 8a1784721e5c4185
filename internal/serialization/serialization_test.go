package serialization

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dakofler/walnut/internal/tensor"
)

func writeFile(t *testing.T, path string, state map[string]*tensor.Tensor, header Header) {
	t.Helper()
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.WriteStateDictWithHeader(state, header); err != nil {
		t.Fatalf("WriteStateDictWithHeader failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

// TestRoundtrip tests that a state dict survives a write and read.
func TestRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.wnut")
	state := map[string]*tensor.Tensor{
		"0.weight": tensor.New([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}),
		"0.bias":   tensor.New([]float32{-1, 0.5}, tensor.Shape{2}),
		"2.weight": tensor.Randn(tensor.Shape{4, 2}),
	}
	writeFile(t, path, state, Header{ModelType: "Sequential"})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	if r.Header().ModelType != "Sequential" {
		t.Errorf("model type: expected Sequential, got %q", r.Header().ModelType)
	}

	loaded, err := r.ReadStateDict()
	if err != nil {
		t.Fatalf("ReadStateDict failed: %v", err)
	}
	if len(loaded) != len(state) {
		t.Fatalf("expected %d tensors, got %d", len(state), len(loaded))
	}
	for name, want := range state {
		got, ok := loaded[name]
		if !ok {
			t.Fatalf("tensor %q missing after roundtrip", name)
		}
		if !got.Shape().Equal(want.Shape()) {
			t.Errorf("tensor %q: shape %v, expected %v", name, got.Shape(), want.Shape())
		}
		if !got.AllClose(want, 0) {
			t.Errorf("tensor %q: values differ after roundtrip", name)
		}
	}
}

// TestReadSingleTensor tests reading one tensor by name.
func TestReadSingleTensor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.wnut")
	state := map[string]*tensor.Tensor{
		"weight": tensor.New([]float32{1, 2}, tensor.Shape{2}),
		"bias":   tensor.New([]float32{3}, tensor.Shape{1}),
	}
	writeFile(t, path, state, Header{ModelType: "Linear"})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	got, err := r.ReadTensor("bias")
	if err != nil {
		t.Fatalf("ReadTensor failed: %v", err)
	}
	if got.Data()[0] != 3 {
		t.Errorf("bias: expected 3, got %v", got.Data()[0])
	}

	if _, err := r.ReadTensor("missing"); err == nil {
		t.Error("expected error for unknown tensor name")
	}
}

// TestCheckpointMetaRoundtrip tests that training state survives.
func TestCheckpointMetaRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.wnut")
	state := map[string]*tensor.Tensor{"w": tensor.Ones(tensor.Shape{2})}
	writeFile(t, path, state, Header{
		ModelType: "Sequential",
		CheckpointMeta: &CheckpointMeta{
			Epoch:         7,
			Step:          420,
			Loss:          0.125,
			OptimizerType: "Adam",
			OptimizerConfig: map[string]float64{
				"lr": 0.001,
			},
		},
	})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	meta := r.CheckpointMeta()
	if meta == nil {
		t.Fatal("expected checkpoint metadata")
	}
	if meta.Epoch != 7 || meta.Step != 420 || meta.Loss != 0.125 {
		t.Errorf("checkpoint meta mismatch: %+v", meta)
	}
	if meta.OptimizerType != "Adam" || meta.OptimizerConfig["lr"] != 0.001 {
		t.Errorf("optimizer meta mismatch: %+v", meta)
	}
}

// TestCorruptedDataDetected tests the checksum pass.
func TestCorruptedDataDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.wnut")
	state := map[string]*tensor.Tensor{"w": tensor.Randn(tensor.Shape{16})}
	writeFile(t, path, state, Header{ModelType: "Linear"})

	// Flip one byte in the data section (the file tail).
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewReader(path); err == nil {
		t.Fatal("expected checksum error for corrupted file")
	}

	// Skipping validation opens the file anyway.
	r, err := NewReaderWithOptions(path, ReaderOptions{SkipChecksumValidation: true})
	if err != nil {
		t.Fatalf("expected open to succeed without validation, got %v", err)
	}
	r.Close()
}

// TestInvalidMagicRejected tests that non-.wnut files are rejected.
func TestInvalidMagicRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wnut")
	if err := os.WriteFile(path, make([]byte, 128), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := NewReader(path); err == nil {
		t.Fatal("expected error for invalid magic bytes")
	}
}

// TestDeterministicOutput tests that identical state dicts with a fixed
// timestamp produce identical files.
func TestDeterministicOutput(t *testing.T) {
	dir := t.TempDir()
	state := map[string]*tensor.Tensor{
		"b": tensor.New([]float32{1, 2}, tensor.Shape{2}),
		"a": tensor.New([]float32{3, 4}, tensor.Shape{2}),
	}
	pathA := filepath.Join(dir, "a.wnut")
	pathB := filepath.Join(dir, "b.wnut")

	fixed := Header{ModelType: "Linear"}
	fixed.CreatedAt = fixed.CreatedAt.AddDate(2024, 0, 0)
	writeFile(t, pathA, state, fixed)
	writeFile(t, pathB, state, fixed)

	rawA, _ := os.ReadFile(pathA)
	rawB, _ := os.ReadFile(pathB)
	if !bytes.Equal(rawA, rawB) {
		t.Error("expected byte-identical files for identical inputs")
	}
}
