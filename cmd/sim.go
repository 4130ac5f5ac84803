package cmd

import (
	"fmt"
	"net"

	"github.com/keelhaul-systems/uartboot/internal/btl"
	"github.com/keelhaul-systems/uartboot/internal/sim"
	"github.com/spf13/cobra"
)

var simPort int

// simCmd runs the bootloader core against an in-memory simulated
// device and exposes it over TCP, so the rest of the CLI can be
// exercised end to end (uartboot flash firmware.bin --address 6000 --port 127.0.0.1:2560)
// without real hardware.
var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the bootloader core against a simulated device over TCP",
	Long: `Run the bootloader core's main loop against an in-memory simulated
flash and serial link, listening for one TCP client at a time. Useful
for exercising the flash/verify/reset commands without hardware.

Example:
  uartboot sim --sim-port 2560 &
  uartboot flash firmware.bin --address 6000 --port 127.0.0.1:2560`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSim()
	},
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().IntVar(&simPort, "sim-port", 2560, "TCP port to listen on")
}

func runSim() error {
	dev := sim.NewDevice()
	h := dev.HAL()

	addr := fmt.Sprintf("127.0.0.1:%d", simPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("sim: listen on %s: %w", addr, err)
	}
	defer listener.Close()

	printInfo("Simulated device listening on %s\n", addr)

	go btl.Run(h)

	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("sim: accept: %w", err)
		}
		relaySim(conn, dev)
	}
}

func relaySim(conn net.Conn, dev *sim.Device) {
	defer conn.Close()
	done := make(chan struct{}, 2)

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				break
			}
			for i := 0; i < n; i++ {
				dev.StreamIn() <- buf[i]
			}
		}
		done <- struct{}{}
	}()

	go func() {
		for b := range dev.StreamOut() {
			if _, err := conn.Write([]byte{b}); err != nil {
				break
			}
		}
		done <- struct{}{}
	}()

	<-done
}
