package main

import (
	"fmt"
	"os"
)

// readWasmFile reads a compiled extension module from disk, wrapping any
// error with the path for easier debugging from the CLI.
func readWasmFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading extension %q: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("extension %q is empty", path)
	}
	return data, nil
}
