package main

import (
	"log"

	"github.com/aird-ai/aird/internal/cli"
	"github.com/spf13/cobra/doc"
)

func main() {
	// Get the root command
	rootCmd := cli.NewRootCmd()

	// Generate markdown documentation
	if err := doc.GenMarkdownTree(rootCmd, "./docs/reference"); err != nil {
		log.Fatal(err)
	}
}
