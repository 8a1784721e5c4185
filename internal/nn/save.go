package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/serialization"
)

// Save writes the module's state dict to a .wnut file.
func Save(m Module, path string) error {
	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteStateDict(m.StateDict(), m.Label(), nil); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return writer.Close()
}

// Load restores the module's parameters from a .wnut file. The module
// must already have the architecture the file was saved from.
func Load(m Module, path string) error {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer reader.Close()

	state, err := reader.ReadStateDict()
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if err := m.LoadStateDict(state); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	return nil
}
