package main

import (
	"os"

	"github.com/apiscout/apiscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
