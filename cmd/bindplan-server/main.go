package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/bindplan/internal/cli/command"
)

func main() {
	if err := command.App().RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
