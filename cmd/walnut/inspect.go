package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/dakofler/walnut/internal/serialization"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	skipChecksum := fs.Bool("skip-checksum", false, "skip checksum validation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect: expected exactly one model file")
	}
	path := fs.Arg(0)

	r, err := serialization.NewReaderWithOptions(path, serialization.ReaderOptions{
		SkipChecksumValidation: *skipChecksum,
	})
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer r.Close()

	h := r.Header()
	fmt.Printf("File:            %s\n", path)
	fmt.Printf("Format version:  %d\n", h.FormatVersion)
	fmt.Printf("Library version: %s\n", h.LibraryVersion)
	if h.ModelType != "" {
		fmt.Printf("Model type:      %s\n", h.ModelType)
	}
	fmt.Printf("Created at:      %s\n", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if meta := r.CheckpointMeta(); meta != nil {
		fmt.Println("\nCheckpoint:")
		fmt.Printf("  epoch %d, step %d, loss %.6f\n", meta.Epoch, meta.Step, meta.Loss)
		if meta.OptimizerType != "" {
			fmt.Printf("  optimizer: %s", meta.OptimizerType)
			for k, v := range meta.OptimizerConfig {
				fmt.Printf(" %s=%g", k, v)
			}
			fmt.Println()
		}
	}

	var total uint64
	var params int
	fmt.Printf("\nTensors (%d):\n", len(h.Tensors))
	for _, tm := range h.Tensors {
		dims := make([]string, len(tm.Shape))
		for i, d := range tm.Shape {
			dims[i] = fmt.Sprintf("%d", d)
		}
		fmt.Printf("  %-40s [%s]  %s\n", tm.Name, strings.Join(dims, ", "), humanize.Bytes(uint64(tm.Size)))
		total += uint64(tm.Size)
		params += int(tm.Size / 4)
	}
	fmt.Printf("\nTotal: %s in %d values\n", humanize.Bytes(total), params)
	return nil
}
