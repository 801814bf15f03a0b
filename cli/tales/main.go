package main

import (
	"os"

	talescmder "github.com/papercomputeco/tales/cmd/tales"
)

func main() {
	cmd := talescmder.NewTalesCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
