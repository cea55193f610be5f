package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"svgsmith/cmd/svgsmith/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
