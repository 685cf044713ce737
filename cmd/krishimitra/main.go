package main

import (
	"os"

	"KrishiMitra/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args))
}
