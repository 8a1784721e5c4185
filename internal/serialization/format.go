package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "WNUT"
	FormatVersion   = 1
	FixedHeaderSize = 64 // magic, version, flags, sizes and checksum
	HeaderAlignment = 64 // tensor data alignment
	ChecksumOffset  = 32 // checksum position in the fixed header
	ChecksumSize    = 32 // SHA-256

	// MaxHeaderSize bounds the JSON header to keep corrupted size
	// fields from triggering huge allocations.
	MaxHeaderSize = 100 * 1024 * 1024
)

// Flags for the .wnut format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // custom metadata included
	FlagHasCheckpoint uint32 = 1 << 1 // training state included
)

// Header is the JSON header of a .wnut file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	LibraryVersion string            `json:"library_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// CheckpointMeta carries training state alongside the model weights so
// a run can resume where it stopped.
type CheckpointMeta struct {
	Epoch           int                `json:"epoch"`
	Step            int64              `json:"step"`
	Loss            float64            `json:"loss"`
	OptimizerType   string             `json:"optimizer_type"`
	OptimizerConfig map[string]float64 `json:"optimizer_config,omitempty"`
}
