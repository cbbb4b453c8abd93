// Command transip-ping is a tiny liveness check: it authenticates
// against TransIP's REST API and calls the api-test endpoint, printing
// the returned pong string and exiting non-zero on any failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/transipdev/transip-acme-go/pkg/client"
	"github.com/transipdev/transip-acme-go/pkg/config"
	"github.com/transipdev/transip-acme-go/pkg/logging"
)

var version = "dev" // set via -ldflags "-X main.version=x.y.z"

var showVersion = flag.Bool("version", false, "Print version information and exit")

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("transip-ping %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	c, err := client.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	pong, err := c.ApiTest(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(pong)
	return nil
}
