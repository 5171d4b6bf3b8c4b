// Package main prints a fresh journal signing key entry.
package main

import (
	"flag"
	"os"

	journalkeycmd "github.com/louisbranch/podcom/internal/cmd/journalkey"
	"github.com/louisbranch/podcom/internal/platform/config"
)

func main() {
	cfg, err := journalkeycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := journalkeycmd.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate journal key: %v", err)
	}
}
