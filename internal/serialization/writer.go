package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/dakofler/walnut/internal/tensor"
)

const libraryVersion = "0.1.0"

// Writer writes models in .wnut format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a .wnut file writer, truncating any existing file
// at path.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteStateDict writes a state dictionary with default header fields.
func (w *Writer) WriteStateDict(state map[string]*tensor.Tensor, modelType string, metadata map[string]string) error {
	return w.WriteStateDictWithHeader(state, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// WriteStateDictWithHeader writes a state dictionary with a custom
// header, allowing checkpoint metadata to be attached. The header's
// tensor list, version fields and timestamp are filled in here.
//
// Tensors are laid out in sorted name order so identical state dicts
// produce identical files.
func (w *Writer) WriteStateDictWithHeader(state map[string]*tensor.Tensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var offset int64
	header.Tensors = make([]TensorMeta, 0, len(names))
	for _, name := range names {
		t := state[name]
		size := int64(t.NumElements()) * 4
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			Shape:  []int(t.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	header.FormatVersion = FormatVersion
	header.LibraryVersion = libraryVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil {
		flags |= FlagHasCheckpoint
	}

	// Fixed header with a zeroed checksum; the real checksum is written
	// after the data section has been hashed.
	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(offset))
	if _, err := w.file.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}

	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(len(headerJSON))
	padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
	if padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	hash := sha256.New()
	for _, name := range names {
		data := encodeFloat32(state[name].Data())
		hash.Write(data)
		if _, err := w.file.Write(data); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}

	var sum [32]byte
	copy(sum[:], hash.Sum(nil))
	if _, err := w.file.WriteAt(sum[:], ChecksumOffset); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}

	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// encodeFloat32 serializes values as little-endian float32 bytes.
func encodeFloat32(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
