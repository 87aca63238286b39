// Package main provides the entry point for the photoctl operator CLI.
package main

import (
	"os"

	"github.com/photo-search/cmd/photoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
