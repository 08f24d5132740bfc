package main

import (
	"os"

	"github.com/kndndrj/dbeelink/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
