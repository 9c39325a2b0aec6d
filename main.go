package main

import (
	"log"

	"github.com/phillip/event-ledger-go/cmd"
	"github.com/phillip/event-ledger-go/logger"
)

func main() {
	// Commands replace this once configuration is loaded.
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
