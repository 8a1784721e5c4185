// Package serialization provides the native .wnut format for saving and
// loading models and training checkpoints.
//
// The .wnut format is a simple binary container for named float32
// tensors:
//
//	Format structure:
//	  [64 bytes: fixed header]
//	    [0:4]   Magic "WNUT"
//	    [4:8]   Version (uint32 LE)
//	    [8:12]  Flags (uint32 LE)
//	    [12:16] Reserved
//	    [16:24] Header size (uint64 LE)
//	    [24:32] Data size (uint64 LE)
//	    [32:64] SHA-256 checksum of the data section
//	  [Header: JSON metadata]
//	  [Tensor data: raw float32 LE, 64-byte aligned]
//
// The JSON header lists every tensor with its name, shape, byte offset
// and size, plus optional model metadata and checkpoint state (epoch,
// loss, optimizer configuration).
//
// Example usage:
//
//	writer, err := serialization.NewWriter("model.wnut")
//	if err != nil {
//	    return err
//	}
//	defer writer.Close()
//	err = writer.WriteStateDict(model.StateDict(), "Sequential", nil)
//
//	reader, err := serialization.NewReader("model.wnut")
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//	state, err := reader.ReadStateDict()
package serialization
