// Command wazevo-caps answers capability queries about a compilation target.
package main

import (
	"os"

	"github.com/faddat/wazero/internal/cli"
)

func main() {
	// Cobra has already printed the error.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
