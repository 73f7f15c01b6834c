package main

import (
	"fmt"
	"os"

	"taxflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "taxcalc:", err)
		os.Exit(1)
	}
}
