package main

import (
	"os"

	uidslcmder "github.com/papercomputeco/uidsl/cmd/uidsl"
)

func main() {
	cmd := uidslcmder.NewUIDSLCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
