package btl_test

import (
	"math/rand"
	"testing"

	"github.com/keelhaul-systems/uartboot/internal/btl"
	"github.com/keelhaul-systems/uartboot/internal/sim"
)

func TestSoftwareAndHardwareCRCAgree(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()

	r := rand.New(rand.NewSource(1))
	begin := uint32(0x2000)
	end := begin + 4096
	r.Read(dev.Flash[begin:end])

	hw := h.CRC.Compute(begin, end, 0xFFFFFFFF)
	sw := btl.SoftwareCRC32(dev.Flash[begin:end])

	if hw != sw {
		t.Fatalf("hardware CRC 0x%08X != software CRC 0x%08X", hw, sw)
	}
}

func TestSoftwareCRCKnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint32
	}{
		{"empty", []byte{}, 0x00000000},
		{"ascii", []byte("123456789"), 0xCBF43926},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := btl.SoftwareCRC32(tt.data); got != tt.expected {
				t.Errorf("SoftwareCRC32(%q) = 0x%08X, want 0x%08X", tt.data, got, tt.expected)
			}
		})
	}
}

func TestSoftwareCRCAccumulatesAcrossSegments(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	whole := btl.SoftwareCRC32(data)
	split := btl.SoftwareCRC32(data[:20], data[20:])

	if whole != split {
		t.Fatalf("CRC over one segment (0x%08X) != CRC over two segments (0x%08X)", whole, split)
	}
}
