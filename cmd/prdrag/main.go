package main

import (
	"os"

	"github.com/kailas-cloud/prdrag/cmd/prdrag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
