package main

import (
	"fmt"
	"os"

	"github.com/shuldan/reqreply/pkg/bootstrap"
)

var version = "dev"

func main() {
	a, err := bootstrap.New("reqreply-receiver", version, "config.yaml", "config/receiver.yaml").
		WithLogger().
		WithBroker().
		WithMetrics().
		WithReceiver().
		CreateApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
