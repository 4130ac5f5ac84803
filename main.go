// uartboot - command-line tool for driving the UART bootloader
//
// This tool flashes firmware images, verifies them by CRC, and can
// trigger a reset or bank-swap reset over a serial or TCP connection.
package main

import (
	"fmt"
	"os"

	"github.com/keelhaul-systems/uartboot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
