package main

import (
	"fmt"
	"os"

	"github.com/aretw0/homecare/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}
	Execute()
}
