// Package hostproto builds the packets the host side of the bootloader
// protocol sends over the wire and decodes the single-byte responses
// the device sends back. The framing mirrors internal/btl's guard +
// size + command header exactly, so a captured byte stream from this
// package is what internal/btl's receiver expects to read.
package hostproto

import (
	"encoding/binary"
	"fmt"

	"github.com/keelhaul-systems/uartboot/internal/btl"
)

// Response codes, mirrored from internal/btl so callers never need to
// import the core package just to check a response byte.
const (
	RespOK      = btl.RespOK
	RespError   = btl.RespError
	RespInvalid = btl.RespInvalid
	RespCRCOK   = btl.RespCRCOK
	RespCRCFail = btl.RespCRCFail
)

// Link is the minimal transport a Client needs: something that can
// write a whole frame and read back exactly n bytes. connection.Connection
// satisfies it directly.
type Link interface {
	Write(data []byte) (int, error)
	Read(n int) ([]byte, error)
}

// Client sequences packet-build, write, and response-read as a single
// round trip: build the guard+size+cmd header, write the frame, then
// read back the one response byte the device always sends.
type Client struct {
	link Link
}

// New wraps a Link in a Client.
func New(link Link) *Client {
	return &Client{link: link}
}

func header(size uint32, cmd byte) []byte {
	buf := make([]byte, btl.HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], btl.Guard)
	binary.LittleEndian.PutUint32(buf[4:8], size)
	buf[8] = cmd
	return buf
}

// transfer writes a header followed by payload and reads the single
// response byte back.
func (c *Client) transfer(cmd byte, payload []byte) (byte, error) {
	frame := append(header(uint32(len(payload)), cmd), payload...)
	if _, err := c.link.Write(frame); err != nil {
		return 0, fmt.Errorf("hostproto: write command 0x%02X: %w", cmd, err)
	}
	resp, err := c.link.Read(1)
	if err != nil {
		return 0, fmt.Errorf("hostproto: read response to command 0x%02X: %w", cmd, err)
	}
	return resp[0], nil
}

// Unlock opens the [addr, addr+size) window for subsequent DATA and
// VERIFY commands. Per spec, the payload is the two little-endian
// uint32 words (addr, size).
func (c *Client) Unlock(addr, size uint32) (byte, error) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], addr)
	binary.LittleEndian.PutUint32(payload[4:8], size)
	return c.transfer(btl.CmdUnlock, payload)
}

// Data stages one erase block's worth of bytes at addr into the
// previously unlocked window. addr must be erase-block aligned and lie
// within the window; block must be exactly one erase block in size.
func (c *Client) Data(addr uint32, block []byte) (byte, error) {
	payload := make([]byte, 4+len(block))
	binary.LittleEndian.PutUint32(payload[0:4], addr)
	copy(payload[4:], block)
	return c.transfer(btl.CmdData, payload)
}

// Verify asks the device to compute the hardware CRC over the unlock
// window and compare it against the expected value.
func (c *Client) Verify(expectedCRC uint32) (byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, expectedCRC)
	return c.transfer(btl.CmdVerify, payload)
}

// Reset asks the device to reboot without swapping the active bank.
func (c *Client) Reset() (byte, error) {
	return c.transfer(btl.CmdReset, nil)
}

// BankSwapReset asks the device to flip the active bank and reboot.
func (c *Client) BankSwapReset() (byte, error) {
	return c.transfer(btl.CmdBkswapReset, nil)
}
