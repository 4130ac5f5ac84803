// Package sim implements internal/btl's HAL against an in-memory flash
// array and a pair of byte channels standing in for the UART, so the
// bootloader core can be exercised without real hardware. It is
// grounded on the realistic mock device pattern from go-cyacd's
// examples: it parses real wire frames and drives real state rather
// than returning canned responses.
package sim

import (
	"encoding/binary"

	"github.com/keelhaul-systems/uartboot/internal/btl"
)

// Device is an in-memory stand-in for the microcontroller: its flash is
// a plain byte slice, its serial link is a pair of buffered byte
// channels, and its tick is driven by an explicit flag that only
// ExpireTick sets, instead of a real timer; cmd/sim never calls
// ExpireTick, so there the inter-byte timeout never expires.
type Device struct {
	Flash []byte

	toDevice   chan byte
	fromDevice chan byte
	txBusy     bool

	tickExpired bool

	onPrimary  bool
	bankSwaps  int
	resetCount int

	triggerRequested bool

	launched    bool
	launchedMSP uint32
	launchedVec uint32

	// busyCycles simulates a flash operation still in flight: IsBusy
	// decrements it and reports true until it reaches zero, so tests
	// can observe the flash programmer cooperating with the receiver
	// during a multi-poll busy-wait.
	busyCyclesPerOp int
	busyCycles      int
}

// NewDevice allocates a Device with flash sized to the bootloader's
// memory map, filled with the erased-flash value 0xFF per byte.
func NewDevice() *Device {
	flash := make([]byte, btl.FlashLength)
	for i := range flash {
		flash[i] = 0xFF
	}
	return &Device{
		Flash:      flash,
		toDevice:   make(chan byte, 1<<16),
		fromDevice: make(chan byte, 1<<16),
		onPrimary:  true,
	}
}

// HAL returns the btl.HAL bound to this device.
func (d *Device) HAL() btl.HAL {
	return btl.HAL{
		Serial:  (*serialSide)(d),
		NVM:     (*nvmSide)(d),
		CRC:     (*crcSide)(d),
		Tick:    (*tickSide)(d),
		Trigger: (*triggerSide)(d),
		System:  (*systemSide)(d),
		Flash:   (*flashSide)(d),
	}
}

// StreamIn returns the channel a caller can send bytes into as if a
// host were transmitting them, for continuous relays (see cmd/sim.go)
// where SendHost's one-shot form doesn't fit.
func (d *Device) StreamIn() chan<- byte { return d.toDevice }

// StreamOut returns the channel a caller can receive the device's
// transmitted bytes from, for continuous relays.
func (d *Device) StreamOut() <-chan byte { return d.fromDevice }

// SendHost writes bytes as if a host transmitted them to the device.
func (d *Device) SendHost(data []byte) {
	for _, b := range data {
		d.toDevice <- b
	}
}

// RecvHost drains and returns every byte the device has queued for
// transmission to the host so far, non-blocking.
func (d *Device) RecvHost() []byte {
	var out []byte
	for {
		select {
		case b := <-d.fromDevice:
			out = append(out, b)
		default:
			return out
		}
	}
}

// ExpireTick marks the inter-byte timeout as expired for the next poll.
func (d *Device) ExpireTick() { d.tickExpired = true }

// SetTrigger arms or disarms the boot-trigger predicate.
func (d *Device) SetTrigger(v bool) { d.triggerRequested = v }

// Launched reports whether the boot decider launched the application
// and with what vectors.
func (d *Device) Launched() (msp, resetVector uint32, ok bool) {
	return d.launchedMSP, d.launchedVec, d.launched
}

// ResetCount reports how many times System.Reset was invoked.
func (d *Device) ResetCount() int { return d.resetCount }

// BankSwaps reports how many times NVM.BankSwap was invoked.
func (d *Device) BankSwaps() int { return d.bankSwaps }

// OnPrimary reports the simulated A/B bank status.
func (d *Device) OnPrimary() bool { return d.onPrimary }

// SetOnPrimary forces the simulated A/B bank status, for boot-decider
// failover tests.
func (d *Device) SetOnPrimary(v bool) { d.onPrimary = v }

// SetBusyCycles configures how many IsBusy polls each simulated NVM
// operation (region unlock excepted) reports busy for, so callers can
// exercise the flash programmer's cooperative busy-wait.
func (d *Device) SetBusyCycles(n int) { d.busyCyclesPerOp = n }

// WriteDescriptor writes a 16-byte image descriptor at addr.
func WriteDescriptor(flash []byte, addr, binSize, crc uint32) {
	binary.LittleEndian.PutUint32(flash[addr:], btl.DescriptorSig1)
	binary.LittleEndian.PutUint32(flash[addr+4:], btl.DescriptorSig2)
	binary.LittleEndian.PutUint32(flash[addr+8:], binSize)
	binary.LittleEndian.PutUint32(flash[addr+12:], crc)
}
