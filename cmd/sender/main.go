package main

import (
	"fmt"
	"os"

	"github.com/shuldan/reqreply/pkg/bootstrap"
)

var version = "dev"

func main() {
	a, err := bootstrap.New("reqreply-sender", version, "config.yaml", "config/sender.yaml").
		WithLogger().
		WithBroker().
		WithSender().
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
