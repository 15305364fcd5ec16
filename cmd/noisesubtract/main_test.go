package main

import (
	"os"
	"path/filepath"
	"testing"

	"noisesubtract/pkg/config"
)

func TestDefaultOutputDir(t *testing.T) {
	tmpDir := t.TempDir()
	dottedDir := filepath.Join(tmpDir, "scans.v2")
	if err := os.MkdirAll(dottedDir, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", dottedDir, err)
	}
	file := filepath.Join(tmpDir, "cells.tif")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", file, err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dotted directory", dottedDir, dottedDir + config.DefaultSuffix},
		{"directory with trailing slash", dottedDir + string(filepath.Separator), dottedDir + config.DefaultSuffix},
		{"file", file, filepath.Join(tmpDir, "cells") + config.DefaultSuffix},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := defaultOutputDir(tc.input, config.DefaultSuffix); got != tc.want {
				t.Errorf("defaultOutputDir(%q) = %q, expected %q", tc.input, got, tc.want)
			}
		})
	}
}
