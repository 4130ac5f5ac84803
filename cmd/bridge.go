package cmd

import (
	"github.com/keelhaul-systems/uartboot/pkg/connection"
	"github.com/spf13/cobra"
)

var (
	bridgeHost string
	bridgePort int
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge <serial-port>",
	Short: "Relay a TCP listener to a local serial port",
	Long: `Run a TCP-to-serial bridge, so a host that can't open the serial
port directly can reach a device through --port host:port instead.

Example:
  uartboot bridge /dev/ttyUSB0 --bridge-port 2560`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := connection.NewBridge(bridgeHost, bridgePort, args[0], cfg.DataRate)
		return b.Listen()
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)

	bridgeCmd.Flags().StringVar(&bridgeHost, "bridge-host", "0.0.0.0", "address to listen on")
	bridgeCmd.Flags().IntVar(&bridgePort, "bridge-port", 2560, "TCP port to listen on")
}
