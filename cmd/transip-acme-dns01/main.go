// Command transip-acme-dns01 is a certbot manual-auth-hook binary: it
// publishes (or, with --cleanup, removes) the `_acme-challenge` TXT
// record for the domain named by CERTBOT_DOMAIN, via TransIP's REST API,
// and waits for the record to propagate to every authoritative name
// server before exiting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/transipdev/transip-acme-go/pkg/client"
	"github.com/transipdev/transip-acme-go/pkg/config"
	"github.com/transipdev/transip-acme-go/pkg/logging"
	"github.com/transipdev/transip-acme-go/pkg/propagation"
	"github.com/transipdev/transip-acme-go/pkg/telemetry"
)

// challengeTTL is the TTL applied to the `_acme-challenge` TXT record
// this hook publishes.
const challengeTTL = 60

var version = "dev" // set via -ldflags "-X main.version=x.y.z"

var (
	showVersion = flag.Bool("version", false, "Print version information and exit")
	cleanup     = flag.Bool("cleanup", false, "Delete all ACME challenge TXT records for CERTBOT_DOMAIN and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("transip-acme-dns01 %s\n", version)
		os.Exit(0)
	}

	if err := run(*cleanup); err != nil {
		fmt.Println("err")
		os.Exit(1)
	}
	fmt.Println("ok")
}

func run(cleanupOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetGlobal(logger)

	telem, err := telemetry.New(cfg.MetricsAddr, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = telem.Shutdown(context.Background())
	}()

	c, err := client.New(cfg, logger, telem)
	if err != nil {
		return err
	}
	defer c.Close()

	domain := os.Getenv("CERTBOT_DOMAIN")
	if domain == "" {
		return fmt.Errorf("CERTBOT_DOMAIN is not set")
	}

	if cleanupOnly {
		return c.DnsEntryDeleteAll(ctx, domain, client.DnsEntry.IsAcmeChallenge)
	}

	// CERTBOT_VALIDATION is already the final value certbot expects
	// published as the TXT record's content — unlike lego's raw
	// keyAuth (see pkg/provider, used by lego-driven callers instead),
	// certbot has already computed the digest itself.
	validation := os.Getenv("CERTBOT_VALIDATION")
	if validation == "" {
		return fmt.Errorf("CERTBOT_VALIDATION is not set")
	}

	if err := c.DnsEntryDeleteAll(ctx, domain, client.DnsEntry.IsAcmeChallenge); err != nil {
		return fmt.Errorf("removing stale acme challenge records for %s: %w", domain, err)
	}
	if err := c.DnsEntryInsert(ctx, domain, client.NewAcmeChallenge(challengeTTL, validation)); err != nil {
		return fmt.Errorf("inserting acme challenge record for %s: %w", domain, err)
	}

	recursive := propagation.NewRecursiveResolver(propagation.UpstreamGoogle, cfg.IPv6Only)
	controller := propagation.NewController(recursive, logger, telem)
	return controller.Wait(ctx, domain+".", validation)
}
