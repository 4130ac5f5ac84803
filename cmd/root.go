// Package cmd implements all CLI commands for uartboot.
package cmd

import (
	"fmt"
	"os"

	"github.com/keelhaul-systems/uartboot/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// Global configuration instance
	cfg *config.Config

	// Global flags
	portFlag  string
	quietFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uartboot",
	Short: "uartboot - drive a device's UART bootloader",
	Long: `uartboot is a command-line tool for the UART bootloader protocol:
flashing firmware images into internal flash, verifying them by CRC,
and requesting a reset or bank-swap reset, over a serial port or a
TCP-to-serial bridge.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if portFlag != "" {
			cfg.Port = portFlag
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "Serial port or TCP address (e.g., /dev/ttyUSB0, COM3, 192.168.1.114:2560)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress informational output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// validateConnectionFlags checks that a port was specified, either on
// the command line or in the config file.
func validateConnectionFlags() error {
	if cfg.Port == "" && portFlag == "" {
		return fmt.Errorf("no port specified (use --port flag or set in uartboot.ini)")
	}
	return nil
}

// printInfo prints output respecting quiet mode.
func printInfo(format string, args ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, args...)
	}
}

// printError always prints, regardless of quiet mode.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
