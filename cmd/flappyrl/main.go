// Package main provides the CLI entry point for flappyrl.
package main

import (
	"fmt"
	"os"

	"github.com/kenanking/flappyrl/cmd/flappyrl/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
