package main

import (
	"os"

	"github.com/russellpierce/local-models-boilerplate/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
