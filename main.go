package main

import (
	"os"

	"github.com/signalnine/genbench/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
