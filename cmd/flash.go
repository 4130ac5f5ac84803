package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keelhaul-systems/uartboot/internal/btl"
	"github.com/keelhaul-systems/uartboot/pkg/connection"
	"github.com/keelhaul-systems/uartboot/pkg/hostproto"
	"github.com/keelhaul-systems/uartboot/pkg/loader"
	"github.com/keelhaul-systems/uartboot/pkg/util"
	"github.com/spf13/cobra"
)

var flashAddress string

// flashCmd programs a firmware image into flash over the bootloader's
// wire protocol: unlock the target window, stage and program each
// erase block, then verify the whole window by CRC.
var flashCmd = &cobra.Command{
	Use:   "flash <file>",
	Short: "Program a firmware image into flash",
	Long: `Program a firmware image into flash through the UART bootloader.

The file is loaded as a raw binary unless its extension is recognized
as Intel HEX (.hex, .ihx) or Motorola SREC (.s19, .s28, .s37, .srec),
in which case its address records are honored directly.

⚠️  This erases and reprograms the target window. It cannot be undone.

Example:
  uartboot flash firmware.bin --address 6000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlash(args[0])
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify flash contents against a firmware image by CRC",
	Long: `Compute the CRC32 of a firmware image the same way the device
does, unlock the corresponding window, and ask the device to compare.

Example:
  uartboot verify firmware.bin --address 6000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
	rootCmd.AddCommand(verifyCmd)

	flashCmd.Flags().StringVar(&flashAddress, "address", "", "flash address in hex (e.g., 6000)")
	flashCmd.MarkFlagRequired("address")

	verifyCmd.Flags().StringVar(&flashAddress, "address", "", "flash address in hex (e.g., 6000)")
	verifyCmd.MarkFlagRequired("address")
}

// loaderFor picks a loader.Loader by file extension, defaulting to
// treating the file as a raw binary image loaded whole at addr.
func loaderFor(filename string) (loader.Loader, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hex", ".ihx":
		return loader.NewIntelHexLoader(), true
	case ".s19", ".s28", ".s37", ".srec":
		return loader.NewSRecLoader(), true
	default:
		return nil, false
	}
}

// loadImage reads filename into a single contiguous byte slice
// addressed at addr, using a format loader when the extension calls
// for one and a flat file read otherwise.
func loadImage(filename string, addr uint32) ([]byte, error) {
	l, ok := loaderFor(filename)
	if !ok {
		return util.ReadFile(filename)
	}

	if err := l.Open(filename); err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer l.Close()

	var data []byte
	var base uint32
	have := false

	l.SetHandler(func(recordAddr uint32, chunk []byte) error {
		if !have {
			base = recordAddr
			have = true
		}
		if recordAddr < base {
			return fmt.Errorf("record at 0x%X precedes image base 0x%X", recordAddr, base)
		}
		end := int(recordAddr-base) + len(chunk)
		if end > len(data) {
			grown := make([]byte, end)
			copy(grown, data)
			for i := len(data); i < end; i++ {
				grown[i] = 0xFF
			}
			data = grown
		}
		copy(data[recordAddr-base:], chunk)
		return nil
	})

	if err := l.Process(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if base != addr {
		return nil, fmt.Errorf("%s's lowest record address 0x%X does not match --address 0x%X", filename, base, addr)
	}
	return data, nil
}

// paddedWindow pads data up to the next erase-block boundary with the
// erased-flash byte value, matching what the device's own erase leaves
// in place for bytes the image doesn't cover.
func paddedWindow(data []byte) []byte {
	aligned := (len(data) + btl.EraseBlock - 1) &^ (btl.EraseBlock - 1)
	out := make([]byte, aligned)
	copy(out, data)
	for i := len(data); i < aligned; i++ {
		out[i] = 0xFF
	}
	return out
}

// blockWriter stages an image into EraseBlock-sized DATA commands,
// one device-side erase+program cycle per block.
type blockWriter struct {
	client  *hostproto.Client
	base    uint32
	written int
}

func (w *blockWriter) writeAll(data []byte) error {
	for off := 0; off < len(data); off += btl.EraseBlock {
		addr := w.base + uint32(off)
		resp, err := w.client.Data(addr, data[off:off+btl.EraseBlock])
		if err != nil {
			return err
		}
		if resp != hostproto.RespOK {
			return fmt.Errorf("DATA at 0x%X: response 0x%02X, want RespOK", addr, resp)
		}
		w.written += btl.EraseBlock
	}
	return nil
}

func runFlash(filename string) error {
	if err := validateConnectionFlags(); err != nil {
		return err
	}
	addr, err := util.ParseHexAddress(flashAddress)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	data, err := loadImage(filename, addr)
	if err != nil {
		return err
	}
	window := paddedWindow(data)

	printInfo("About to program %d bytes at 0x%X (%d erase blocks)\n", len(window), addr, len(window)/btl.EraseBlock)
	if !util.ConfirmDanger(fmt.Sprintf("erasing and reprogramming %d bytes at 0x%X", len(window), addr)) {
		printInfo("Operation cancelled.\n")
		return nil
	}

	conn := connection.NewConnection(cfg.Port)
	if err := conn.Open(cfg.Port); err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer conn.Close()

	client := hostproto.New(conn)

	resp, err := client.Unlock(addr, uint32(len(window)))
	if err != nil {
		return fmt.Errorf("UNLOCK failed: %w", err)
	}
	if resp != hostproto.RespOK {
		return fmt.Errorf("UNLOCK rejected: response 0x%02X", resp)
	}

	printInfo("Programming flash...\n")
	bw := &blockWriter{client: client, base: addr}
	if err := bw.writeAll(window); err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}

	printInfo("Verifying by CRC...\n")
	crc := btl.SoftwareCRC32(window)
	resp, err = client.Verify(crc)
	if err != nil {
		return fmt.Errorf("VERIFY failed: %w", err)
	}
	if resp != hostproto.RespCRCOK {
		return fmt.Errorf("verification failed: device reports CRC mismatch")
	}

	printInfo("Flash programming complete: %d bytes at 0x%X, CRC32 0x%08X verified.\n", len(window), addr, crc)
	return nil
}

func runVerify(filename string) error {
	if err := validateConnectionFlags(); err != nil {
		return err
	}
	addr, err := util.ParseHexAddress(flashAddress)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	data, err := loadImage(filename, addr)
	if err != nil {
		return err
	}
	window := paddedWindow(data)
	crc := btl.SoftwareCRC32(window)

	conn := connection.NewConnection(cfg.Port)
	if err := conn.Open(cfg.Port); err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer conn.Close()

	client := hostproto.New(conn)

	resp, err := client.Unlock(addr, uint32(len(window)))
	if err != nil {
		return fmt.Errorf("UNLOCK failed: %w", err)
	}
	if resp != hostproto.RespOK {
		return fmt.Errorf("UNLOCK rejected: response 0x%02X", resp)
	}

	resp, err = client.Verify(crc)
	if err != nil {
		return fmt.Errorf("VERIFY failed: %w", err)
	}
	if resp != hostproto.RespCRCOK {
		printError("CRC mismatch: expected 0x%08X", crc)
		return fmt.Errorf("verification failed")
	}

	printInfo("Verified: %d bytes at 0x%X match CRC32 0x%08X.\n", len(window), addr, crc)
	return nil
}
