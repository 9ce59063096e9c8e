package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/cedarvm/cedar/internal/firmware/bios"
	"github.com/cedarvm/cedar/internal/firmware/vgacon"
	"github.com/cedarvm/cedar/internal/hv/ram"
)

type diskSpec struct {
	Size     uint64 `yaml:"size"`
	ReadOnly bool   `yaml:"read_only"`
}

type machineSpec struct {
	MemorySize uint64     `yaml:"memory_size"`
	CPUs       int        `yaml:"cpus"`
	Disks      []diskSpec `yaml:"disks"`
}

func loadSpec(path string) (machineSpec, error) {
	var spec machineSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read machine spec: %w", err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parse machine spec: %w", err)
	}
	return spec, nil
}

func run() error {
	configPath := flag.String("config", "", "machine description YAML file")
	outPath := flag.String("out", "", "write the first MiB firmware image to this file")
	console := flag.Bool("console", false, "dump the VGA text console after building")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `biosgen - build a legacy BIOS firmware image from a machine description

USAGE:
  biosgen -config machine.yaml [flags]

FLAGS:
  -config FILE   Machine description (required)
  -out FILE      Write the first MiB of guest memory to FILE
  -console       Print the VGA text console contents

MACHINE DESCRIPTION FORMAT (YAML):
  memory_size: 134217728   # guest RAM in bytes
  cpus: 2
  disks:
    - size: 1073741824
      read_only: false

OUTPUT:
  The guest physical addresses of the E820 scratch table, SMBIOS entry
  point, MP table, and POST entry point are printed on stdout.
`)
	}
	flag.Parse()

	if *configPath == "" {
		flag.Usage()
		return fmt.Errorf("missing -config")
	}

	spec, err := loadSpec(*configPath)
	if err != nil {
		return err
	}

	cfg := bios.Config{
		MemorySize: spec.MemorySize,
		NumCPUs:    spec.CPUs,
	}
	for _, d := range spec.Disks {
		cfg.Disks = append(cfg.Disks, bios.Disk{Size: d.Size, ReadOnly: d.ReadOnly})
	}

	// The firmware image only occupies the first MiB; the configured memory
	// size feeds the E820 and SMBIOS contents, not the allocation.
	region, err := ram.New(0, 1<<20)
	if err != nil {
		return err
	}
	defer region.Close()

	manifest, err := bios.Install(region, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("e820 table:      %#010x\n", manifest.E820Addr)
	fmt.Printf("smbios entry:    %#010x\n", manifest.SMBIOSAddr)
	fmt.Printf("mp table:        %#010x\n", manifest.MPTableAddr)
	fmt.Printf("entry point:     %#010x\n", manifest.EntryPoint)

	if *outPath != "" {
		img := make([]byte, region.MemorySize())
		if _, err := region.ReadAt(img, 0); err != nil {
			return fmt.Errorf("read firmware image: %w", err)
		}
		if err := os.WriteFile(*outPath, img, 0o644); err != nil {
			return fmt.Errorf("write firmware image: %w", err)
		}
		slog.Info("wrote firmware image", "path", *outPath, "bytes", len(img))
	}

	if *console {
		snap, err := vgacon.Capture(region)
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Print(snap.Render())
		} else {
			fmt.Print(snap.RenderPlain())
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "biosgen: %v\n", err)
		os.Exit(1)
	}
}
