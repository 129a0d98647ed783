package main

import (
	"os"

	"birdsync/cli"
)

func main() {
	os.Exit(cli.Execute())
}
