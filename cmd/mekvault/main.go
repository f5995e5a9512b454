package main

import (
	"os"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
