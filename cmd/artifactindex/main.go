// Package main provides the entry point for the artifactindex CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/artifactindex/cmd/artifactindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
