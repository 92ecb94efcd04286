package main

import (
	"fmt"
	"os"

	"github.com/tofscope/tofscope/internal/cli"
	"github.com/tofscope/tofscope/internal/pkg/logger"
)

func main() {
	err := cli.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
