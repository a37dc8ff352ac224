package main

import (
	"os"
	"time"

	"github.com/kilianp07/chargeplan/cmd"
	"github.com/kilianp07/chargeplan/core/monitoring"
)

func main() {
	defer monitoring.Recover()
	if err := cmd.Execute(); err != nil {
		monitoring.Flush(2 * time.Second)
		os.Exit(1)
	}
	monitoring.Flush(2 * time.Second)
}
