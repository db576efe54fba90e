package main

import (
	"os"

	"github.com/c4ristian/netmonitor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
