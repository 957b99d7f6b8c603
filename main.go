package main

import (
	"os"

	"github.com/ai-tutor-orchestrator/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
