package btl_test

import (
	"encoding/binary"
	"testing"

	"github.com/keelhaul-systems/uartboot/internal/btl"
	"github.com/keelhaul-systems/uartboot/internal/sim"
)

func installImage(dev *sim.Device, binSize uint32, corrupt bool) {
	binary.LittleEndian.PutUint32(dev.Flash[btl.AppStart:], 0x20010000)   // initial MSP
	binary.LittleEndian.PutUint32(dev.Flash[btl.AppStart+4:], 0x20000201) // reset vector

	descAddr := uint32(btl.AppStart + 64)
	for i := uint32(8); i < binSize; i++ {
		dev.Flash[btl.AppStart+i] = byte(i * 3)
	}

	before := dev.Flash[btl.AppStart:descAddr]
	after := dev.Flash[descAddr+btl.DescriptorSize : btl.AppStart+binSize]
	crc := btl.SoftwareCRC32(before, after)
	if corrupt {
		crc ^= 0xFF
	}
	sim.WriteDescriptor(dev.Flash, descAddr, binSize, crc)
}

func TestBootDeciderNoImageInstalled(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()

	if btl.Decide(h) {
		t.Fatal("expected Decide to refuse to launch over erased flash")
	}
	if _, _, ok := dev.Launched(); ok {
		t.Fatal("must not have launched")
	}
}

func TestBootDeciderTriggerForcesBootloader(t *testing.T) {
	dev := sim.NewDevice()
	installImage(dev, 512, false)
	dev.SetTrigger(true)

	h := dev.HAL()
	if btl.Decide(h) {
		t.Fatal("a trigger request must force the bootloader regardless of a valid image")
	}
}

func TestBootDeciderLaunchesOnGoodCRC(t *testing.T) {
	dev := sim.NewDevice()
	installImage(dev, 512, false)

	h := dev.HAL()
	if !btl.Decide(h) {
		t.Fatal("expected Decide to launch a valid image")
	}
	msp, vec, ok := dev.Launched()
	if !ok || msp != 0x20010000 || vec != 0x20000201 {
		t.Fatalf("launched = (0x%X, 0x%X, %v), want (0x20010000, 0x20000201, true)", msp, vec, ok)
	}
}

func TestBootDeciderSwapsBankOnBadCRCFromPrimary(t *testing.T) {
	dev := sim.NewDevice()
	installImage(dev, 512, true)
	dev.SetOnPrimary(true)

	h := dev.HAL()
	if btl.Decide(h) {
		t.Fatal("a corrupt image must never launch")
	}
	if dev.BankSwaps() != 1 {
		t.Fatalf("BankSwaps = %d, want 1 when the primary bank's image is corrupt", dev.BankSwaps())
	}
}

func TestBootDeciderEntersBootloaderOnBadCRCFromSecondary(t *testing.T) {
	dev := sim.NewDevice()
	installImage(dev, 512, true)
	dev.SetOnPrimary(false)

	h := dev.HAL()
	if btl.Decide(h) {
		t.Fatal("a corrupt image must never launch")
	}
	if dev.BankSwaps() != 0 {
		t.Fatalf("BankSwaps = %d, want 0 when already on the secondary bank", dev.BankSwaps())
	}
}

func TestBootDeciderMissingDescriptorEntersBootloader(t *testing.T) {
	dev := sim.NewDevice()
	binary.LittleEndian.PutUint32(dev.Flash[btl.AppStart:], 0x20010000)

	h := dev.HAL()
	if btl.Decide(h) {
		t.Fatal("an image with no descriptor must never launch")
	}
	if dev.BankSwaps() != 0 {
		t.Fatal("a missing descriptor is not a CRC failure and must not trigger a bank swap")
	}
}
