package main

import (
	"os"

	"github.com/discussions-migrator/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
