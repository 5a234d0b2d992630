package main

import (
	"os"

	"github.com/toritoma/playbridge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
