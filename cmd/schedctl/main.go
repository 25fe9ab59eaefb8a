package main

import (
	"os"

	"github.com/BruksfildServices01/clinic-scheduler/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
