package ram

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cedarvm/cedar/internal/hv"
)

func TestReadWriteRoundTrip(t *testing.T) {
	region, err := New(0, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer region.Close()

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if _, err := region.WriteAt(want, 0x7C00); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got := make([]byte, len(want))
	if _, err := region.ReadAt(got, 0x7C00); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip: got % x want % x", got, want)
	}
}

func TestBaseOffsetTranslation(t *testing.T) {
	region, err := New(0x100000, 0x1000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer region.Close()

	if _, err := region.WriteAt([]byte{1}, 0x100000); err != nil {
		t.Fatalf("WriteAt at base: %v", err)
	}
	if _, err := region.WriteAt([]byte{1}, 0); err == nil {
		t.Fatal("WriteAt below base accepted")
	}
	if _, err := region.ReadAt(make([]byte, 2), 0x100FFF); err == nil {
		t.Fatal("ReadAt past end accepted")
	}

	var outOfRange error
	_, outOfRange = region.ReadAt(make([]byte, 1), 0x200000)
	if !errors.Is(outOfRange, hv.ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", outOfRange)
	}
}

func TestZeroedOnAllocation(t *testing.T) {
	region, err := New(0, 0x10000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer region.Close()

	buf := make([]byte, 0x10000)
	if _, err := region.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not zero after allocation", i)
		}
	}
}

func TestCloseTwice(t *testing.T) {
	region, err := New(0, 0x1000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := region.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := region.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
