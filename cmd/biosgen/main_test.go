package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	data := `memory_size: 134217728
cpus: 2
disks:
  - size: 1073741824
  - size: 2147483648
    read_only: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	spec, err := loadSpec(path)
	if err != nil {
		t.Fatalf("loadSpec: %v", err)
	}
	if spec.MemorySize != 128<<20 {
		t.Fatalf("memory size: got %d", spec.MemorySize)
	}
	if spec.CPUs != 2 {
		t.Fatalf("cpus: got %d", spec.CPUs)
	}
	if len(spec.Disks) != 2 || !spec.Disks[1].ReadOnly {
		t.Fatalf("disks: got %+v", spec.Disks)
	}
}

func TestLoadSpecMissingFile(t *testing.T) {
	if _, err := loadSpec(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("loadSpec accepted a missing file")
	}
}
