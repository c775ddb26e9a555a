package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/therapy-advisor/internal/cli"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

func main() {
	_ = godotenv.Load()

	rootCmd := cli.NewRootCmd(version, nil)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
