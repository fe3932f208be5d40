package main

import (
	"os"

	"github.com/linemk/bookstore/internal/client/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
