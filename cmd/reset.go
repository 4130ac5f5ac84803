package cmd

import (
	"fmt"

	"github.com/keelhaul-systems/uartboot/pkg/connection"
	"github.com/keelhaul-systems/uartboot/pkg/hostproto"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Ask the device to reboot without swapping banks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset(false)
	},
}

var bankSwapResetCmd = &cobra.Command{
	Use:   "bkswap-reset",
	Short: "Ask the device to flip the active bank and reboot",
	Long: `Ask the device to flip the active bank and reboot.

Use this after flashing and verifying the inactive bank's image, to
switch the device over to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset(true)
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(bankSwapResetCmd)
}

func runReset(bankSwap bool) error {
	if err := validateConnectionFlags(); err != nil {
		return err
	}

	conn := connection.NewConnection(cfg.Port)
	if err := conn.Open(cfg.Port); err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer conn.Close()

	client := hostproto.New(conn)

	var resp byte
	var err error
	if bankSwap {
		resp, err = client.BankSwapReset()
	} else {
		resp, err = client.Reset()
	}
	if err != nil {
		return err
	}
	if resp != hostproto.RespOK {
		return fmt.Errorf("reset rejected: response 0x%02X", resp)
	}

	printInfo("Reset requested.\n")
	return nil
}
