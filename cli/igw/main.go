package main

import (
	"os"

	igwcmder "github.com/papercomputeco/igw/cmd/igw"
)

func main() {
	cmd := igwcmder.NewIgwCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
