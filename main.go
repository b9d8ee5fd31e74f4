package main

import (
	"os"

	"f0oster/zbxspy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
