package config

import (
	"github.com/spf13/pflag"
)

// Flags are the command-line options shared by both binaries.
type Flags struct {
	ConfigPath  string
	PrintConfig bool
}

// ParseFlags parses args (without the program name).
func ParseFlags(program string, args []string) (Flags, error) {
	var f Flags
	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to a config file (default configs/<name>.yml)")
	fs.BoolVar(&f.PrintConfig, "print-config", false, "print the effective configuration and exit")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}
