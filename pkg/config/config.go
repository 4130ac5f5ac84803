// Package config provides configuration management for uartboot. It
// reads settings from uartboot.ini using multiple search paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Config holds the host tool's defaults for talking to a device running
// the bootloader. Values here are overridable per-invocation by cobra
// flags in cmd/; Config only supplies what the user didn't pass.
type Config struct {
	// Serial/connection settings
	Port     string
	DataRate int
	Timeout  int

	// Flash geometry. The defaults equal internal/btl's memory map;
	// values read from an ini file are taken as given and are not
	// checked against it.
	FlashSize  int
	EraseBlock int
	PageSize   int

	// Address is read from the "address" key. flash and verify do not
	// consult it: they take their target only from the required
	// --address flag.
	Address string
}

// Load reads configuration from uartboot.ini in the following search
// order:
//  1. Current directory (./uartboot.ini)
//  2. $UARTBOOT_HOME directory ($UARTBOOT_HOME/uartboot.ini)
//  3. Home directory (~/uartboot.ini)
//
// A missing file is not an error: Load falls back to built-in defaults
// matching internal/btl's memory map so the CLI works out of the box
// against the reference target.
func Load() (*Config, error) {
	var searchPaths []string

	searchPaths = append(searchPaths, filepath.Join(".", "uartboot.ini"))

	if dir := os.Getenv("UARTBOOT_HOME"); dir != "" {
		searchPaths = append(searchPaths, filepath.Join(dir, "uartboot.ini"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, "uartboot.ini"))
	}

	var iniFile *ini.File
	for _, path := range searchPaths {
		if _, statErr := os.Stat(path); statErr == nil {
			f, err := ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
			iniFile = f
			break
		}
	}

	if iniFile == nil {
		iniFile = ini.Empty()
	}

	section := iniFile.Section("DEFAULT")

	cfg := &Config{
		Port:       section.Key("port").MustString("/dev/ttyUSB0"),
		DataRate:   section.Key("data_rate").MustInt(115200),
		Timeout:    section.Key("timeout").MustInt(5),
		FlashSize:  section.Key("flash_size").MustInt(0x00100000),
		EraseBlock: section.Key("erase_block").MustInt(8192),
		PageSize:   section.Key("page_size").MustInt(512),
		Address:    section.Key("address").MustString("6000"),
	}

	return cfg, nil
}

// ConfigPath returns the path to the config file that would be loaded,
// following the same search order as Load.
func ConfigPath() (string, error) {
	paths := []string{filepath.Join(".", "uartboot.ini")}

	if dir := os.Getenv("UARTBOOT_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "uartboot.ini"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "uartboot.ini"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no uartboot.ini file found")
}
