package main

import (
	"os"

	"github.com/cvmatch/cv-match/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
