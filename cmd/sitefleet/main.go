package main

import (
	"fmt"
	"os"

	"github.com/sitefleet/platform/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ sitefleet: %v\n", err)
		os.Exit(1)
	}
}
