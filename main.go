package main

import (
	"os"

	"github.com/calico-network/calicod/app"
)

func main() {
	if err := app.StartApp(); err != nil {
		os.Exit(1)
	}
}
