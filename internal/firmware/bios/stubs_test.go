package bios

import (
	"bytes"
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

// decodeAll disassembles code in 16-bit real mode until it is exhausted.
func decodeAll(t *testing.T, code []byte) []x86asm.Inst {
	t.Helper()
	var out []x86asm.Inst
	for len(code) > 0 {
		inst, err := x86asm.Decode(code, 16)
		if err != nil {
			t.Fatalf("decode at %d remaining bytes: %v", len(code), err)
		}
		out = append(out, inst)
		code = code[inst.Len:]
	}
	return out
}

func TestResetVectorDecodesFarJump(t *testing.T) {
	// The reset vector must jump to the POST entry no matter what the
	// configuration says.
	for _, cfg := range []Config{
		defaultConfig(),
		{MemorySize: 8 << 30, NumCPUs: 16},
	} {
		vm, _ := mustInstall(t, cfg)

		inst, err := x86asm.Decode(vm.mem[ResetVector:], 16)
		if err != nil {
			t.Fatalf("decode reset vector: %v", err)
		}
		if inst.Op != x86asm.LJMP {
			t.Fatalf("reset vector op: got %v want LJMP", inst.Op)
		}
		if inst.Len != 5 {
			t.Fatalf("reset vector length: got %d want 5", inst.Len)
		}
		if !bytes.Equal(vm.mem[ResetVector:ResetVector+5], []byte{0xEA, 0x00, 0x00, 0x00, 0xF0}) {
			t.Fatalf("reset vector bytes: got % x", vm.mem[ResetVector:ResetVector+5])
		}
		if vm.mem[ResetVector+5] != 0xCF {
			t.Fatalf("missing iret past reset jump: got %#02x", vm.mem[ResetVector+5])
		}
	}
}

func TestPOSTStubInstructionSequence(t *testing.T) {
	vm, _ := mustInstall(t, defaultConfig())

	insts := decodeAll(t, vm.mem[BIOSROMBase:BIOSROMBase+uint64(len(postStub))])

	wantOps := []x86asm.Op{
		x86asm.CLI,
		x86asm.XOR,
		x86asm.MOV, // ds
		x86asm.MOV, // es
		x86asm.MOV, // ss
		x86asm.MOV, // sp
		x86asm.STI,
		x86asm.INT,
		x86asm.HLT,
		x86asm.JMP,
	}
	if len(insts) != len(wantOps) {
		t.Fatalf("instruction count: got %d want %d", len(insts), len(wantOps))
	}
	for i, want := range wantOps {
		if insts[i].Op != want {
			t.Fatalf("instruction %d: got %v want %v", i, insts[i].Op, want)
		}
	}

	// Interrupts stay off until the stack exists.
	if insts[0].Op != x86asm.CLI {
		t.Fatal("POST does not start with cli")
	}
	// The bootstrap interrupt is INT 19h.
	if imm, ok := insts[7].Args[0].(x86asm.Imm); !ok || imm != 0x19 {
		t.Fatalf("bootstrap interrupt: got %v", insts[7].Args[0])
	}
}

func TestBDAReadingStubs(t *testing.T) {
	vm, _ := mustInstall(t, defaultConfig())

	for _, tc := range []struct {
		vector uint8
		disp   int64
	}{
		{0x11, 0x0410}, // equipment word
		{0x12, 0x0413}, // conventional memory size
	} {
		addr := BIOSROMBase + uint64(serviceStubOffset(tc.vector))
		insts := decodeAll(t, vm.mem[addr:addr+10])

		wantOps := []x86asm.Op{
			x86asm.PUSH, x86asm.XOR, x86asm.MOV, x86asm.MOV, x86asm.POP, x86asm.IRET,
		}
		for i, want := range wantOps {
			if insts[i].Op != want {
				t.Fatalf("INT %#02x instruction %d: got %v want %v", tc.vector, i, insts[i].Op, want)
			}
		}

		// The BDA load is a direct-address mov into AX.
		load := insts[3]
		mem, ok := load.Args[1].(x86asm.Mem)
		if !ok || mem.Disp != tc.disp {
			t.Fatalf("INT %#02x BDA load: got %v, want displacement %#x", tc.vector, load.Args[1], tc.disp)
		}
	}
}

func TestHypercallStubsInstalled(t *testing.T) {
	vm, _ := mustInstall(t, defaultConfig())

	for _, v := range servicedVectors {
		if v == 0x11 || v == 0x12 {
			continue
		}
		addr := BIOSROMBase + uint64(serviceStubOffset(v))
		got := vm.mem[addr : addr+uint64(len(hypercallStub))]
		if !bytes.Equal(got, hypercallStub) {
			t.Fatalf("INT %#02x stub: got % x want % x", v, got, hypercallStub)
		}
	}
}
