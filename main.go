package main

import (
	"os"

	"github.com/spigell/job-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
