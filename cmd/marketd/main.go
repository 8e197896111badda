package main

import (
	"os"

	"github.com/paw-chain/taskmarket/cmd/marketd/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
