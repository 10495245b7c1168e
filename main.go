package main

import (
	"os"

	"github.com/jdpage/jeff65/cmd"
)

func main() {
	os.Exit(cmd.RunCompiler())
}
