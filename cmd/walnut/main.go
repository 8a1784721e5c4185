// Package main provides the walnut command line tool.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func usage() {
	fmt.Println("walnut - neural networks in Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  train -config <file>   Train a model from a YAML config")
	fmt.Println("  inspect <model.wnut>   Show the contents of a model file")
	fmt.Println("  version                Show version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "version":
		fmt.Printf("walnut %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "walnut: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "walnut: %v\n", err)
		os.Exit(1)
	}
}
