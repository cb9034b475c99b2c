package main

import (
	"os"

	"terraform-tag-compliance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
