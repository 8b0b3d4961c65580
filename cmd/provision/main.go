// Package main provides the provision CLI for managing application
// lifecycles through the event journal.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	provisioncli "github.com/substratehq/provision/internal/cmd/provision"
	platformcmd "github.com/substratehq/provision/internal/platform/cmd"
	"github.com/substratehq/provision/internal/platform/config"
)

func main() {
	log.SetPrefix("[PROVISION] ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	cfg, args, err := provisioncli.ParseConfig(fs, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceProvision, func(ctx context.Context) error {
		return provisioncli.Run(ctx, cfg, args, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
