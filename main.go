package main

import (
	"context"
	"os"

	"gatehouse/internal/cli"
)

// main hands the arguments to the command tree; with none it serves HTTP.
func main() {
	if err := cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
