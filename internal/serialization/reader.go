package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dakofler/walnut/internal/tensor"
)

// Reader reads models from .wnut format. The header is parsed and
// validated eagerly; tensor data is read on demand.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures Reader behavior.
type ReaderOptions struct {
	// SkipChecksumValidation disables the data checksum pass. Faster
	// for large files, at the cost of corruption detection.
	SkipChecksumValidation bool
}

// NewReader opens a .wnut file with default options.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{})
}

// NewReaderWithOptions opens a .wnut file with custom options.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file, opts: opts}
	if err := r.parseHeader(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	available := info.Size() - r.dataOffset
	if r.dataSize > available {
		_ = file.Close()
		return nil, fmt.Errorf("%w: data section of %d bytes, file has %d", ErrOutOfBounds, r.dataSize, available)
	}

	if err := r.validate(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := r.verifyChecksum(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *Reader) parseHeader() error {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixed); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixed[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(fixed[8:12])

	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}
	r.dataSize = int64(binary.LittleEndian.Uint64(fixed[24:32]))
	copy(r.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("failed to unmarshal header: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(headerSize)
	r.dataOffset = pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
	return nil
}

// validate checks the tensor metadata for overlaps, bounds violations
// and shape/size disagreements.
func (r *Reader) validate() error {
	seen := make(map[string]bool, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		if seen[meta.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateTensor, meta.Name)
		}
		seen[meta.Name] = true

		if meta.Offset < 0 || meta.Size < 0 {
			return fmt.Errorf("%w: tensor %q", ErrNegativeOffset, meta.Name)
		}
		if meta.Offset+meta.Size > r.dataSize {
			return fmt.Errorf("%w: tensor %q", ErrOutOfBounds, meta.Name)
		}

		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		if int64(shape.NumElements())*4 != meta.Size {
			return fmt.Errorf("%w: tensor %q has shape %v but %d bytes",
				ErrSizeMismatch, meta.Name, meta.Shape, meta.Size)
		}
	}
	return nil
}

func (r *Reader) verifyChecksum() error {
	section := io.NewSectionReader(r.file, r.dataOffset, r.dataSize)
	computed, err := ComputeChecksumReader(section)
	if err != nil {
		return fmt.Errorf("failed to hash data section: %w", err)
	}
	if computed != r.checksum {
		return ErrChecksumMismatch
	}
	return nil
}

// Header returns the parsed file header.
func (r *Reader) Header() Header {
	return r.header
}

// CheckpointMeta returns the checkpoint metadata, or nil for plain
// model files.
func (r *Reader) CheckpointMeta() *CheckpointMeta {
	return r.header.CheckpointMeta
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *Reader) ReadStateDict() (map[string]*tensor.Tensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	state := make(map[string]*tensor.Tensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		t, err := r.readTensor(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to read tensor %s: %w", meta.Name, err)
		}
		state[meta.Name] = t
	}
	return state, nil
}

// ReadTensor reads a single tensor by name.
func (r *Reader) ReadTensor(name string) (*tensor.Tensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}
	for _, meta := range r.header.Tensors {
		if meta.Name == name {
			return r.readTensor(meta)
		}
	}
	return nil, fmt.Errorf("tensor %q not found", name)
}

func (r *Reader) readTensor(meta TensorMeta) (*tensor.Tensor, error) {
	raw := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(raw, r.dataOffset+meta.Offset); err != nil {
		return nil, err
	}

	values := make([]float32, meta.Size/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return tensor.FromSlice(values, tensor.Shape(meta.Shape))
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
