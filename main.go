package main

import (
	"fmt"
	"os"

	"github.com/E-Palms/ossim/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	root.SetArgs(cmd.NormalizeArgs(os.Args[1:]))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
