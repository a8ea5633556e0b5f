package main

import (
	"fmt"
	"os"

	renamer "github.com/thrawn01/tree-renamer"
)

func main() {
	if err := renamer.RunCmd(os.Args, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
