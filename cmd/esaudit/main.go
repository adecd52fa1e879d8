package main

import (
	"fmt"
	"os"

	"github.com/esaudit/esaudit/cmd/esaudit/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
