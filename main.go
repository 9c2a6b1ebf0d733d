package main

import (
	"os"

	"github.com/geoapi-labs/ogcd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
