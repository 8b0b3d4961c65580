// Package provision implements the provision CLI: application lifecycle
// management backed by the event journal.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/provisioning"
	"github.com/substratehq/provision/internal/app/service"
	"github.com/substratehq/provision/internal/app/storage/sqlite"
	platformcmd "github.com/substratehq/provision/internal/platform/cmd"
)

// Config holds provision command configuration.
type Config struct {
	// DBPath locates the sqlite database file.
	DBPath string `env:"PROVISION_DB_PATH" envDefault:"data/provision.db"`
}

// ParseConfig loads environment defaults and parses global flags, returning
// the remaining subcommand arguments.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// Run executes one provision subcommand against the configured database.
func Run(ctx context.Context, cfg Config, args []string, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(args) == 0 {
		usage(errOut)
		return errors.New("subcommand is required")
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()

	dispatcher := provisioning.NewDispatcher(provisioning.LogProvisioner{})
	defer dispatcher.Wait()

	svc, err := service.New(service.Config{Store: store, Dispatcher: dispatcher})
	if err != nil {
		return err
	}

	name, rest := args[0], args[1:]
	switch name {
	case "create":
		return runCreate(ctx, svc, rest, out)
	case "select-infra":
		return runSelectInfra(ctx, svc, rest, out)
	case "build":
		return runBuild(ctx, svc, rest, out)
	case "activate":
		return runActivate(ctx, svc, rest, out)
	case "delete":
		return runDelete(ctx, svc, rest, out)
	case "show":
		return runShow(ctx, svc, rest, out)
	case "list":
		return runList(ctx, svc, rest, out)
	case "replay":
		return runReplay(ctx, svc, rest, out)
	default:
		usage(errOut)
		return fmt.Errorf("unknown subcommand %q", name)
	}
}

func runCreate(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	snapshot, err := svc.CreateApp(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, snapshot.UUID)
	return nil
}

func runSelectInfra(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("select-infra", flag.ContinueOnError)
	appID := fs.String("app", "", "application id")
	provider := fs.String("provider", "", "infrastructure provider (aws, azure)")
	region := fs.String("region", "", "region (required for aws)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsed, ok := app.ParseProvider(*provider)
	if !ok {
		return fmt.Errorf("unknown provider %q (valid: aws, azure)", *provider)
	}
	var infra app.Infrastructure
	switch parsed {
	case app.ProviderAWS:
		var err error
		infra, err = app.AWS(*region)
		if err != nil {
			return err
		}
	case app.ProviderAzure:
		if strings.TrimSpace(*region) != "" {
			return fmt.Errorf("provider %q does not take a region", parsed)
		}
		infra = app.Azure()
	}

	snapshot, err := svc.SelectInfrastructure(ctx, *appID, infra)
	if err != nil {
		return err
	}
	printSnapshot(out, snapshot)
	return nil
}

func runBuild(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	appID := fs.String("app", "", "application id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snapshot, err := svc.RequestBuild(ctx, *appID)
	if err != nil {
		return err
	}
	printSnapshot(out, snapshot)
	return nil
}

func runActivate(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	appID := fs.String("app", "", "application id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snapshot, err := svc.ActivateApp(ctx, *appID)
	if err != nil {
		return err
	}
	printSnapshot(out, snapshot)
	return nil
}

func runDelete(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	appID := fs.String("app", "", "application id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snapshot, err := svc.DeleteApp(ctx, *appID)
	if err != nil {
		return err
	}
	printSnapshot(out, snapshot)
	return nil
}

func runShow(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	appID := fs.String("app", "", "application id")
	asJSON := fs.Bool("json", false, "print the snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	snapshot, err := svc.GetApp(ctx, *appID)
	if err != nil {
		return err
	}
	if *asJSON {
		return printSnapshotJSON(out, snapshot)
	}
	printSnapshot(out, snapshot)
	return nil
}

func runList(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	apps, err := svc.ListApps(ctx)
	if err != nil {
		return err
	}
	for _, snapshot := range apps {
		printSnapshot(out, snapshot)
	}
	return nil
}

func runReplay(ctx context.Context, svc *service.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	appID := fs.String("app", "", "application id")
	untilSeq := fs.Uint64("until-seq", 0, "stop after this journal sequence (0 = full journal)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := svc.ReplayApp(ctx, *appID, *untilSeq)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "replayed %d events (last seq %d)\n", result.Applied, result.LastSeq)
	printSnapshot(out, result.Snapshot)
	return nil
}

func printSnapshot(out io.Writer, snapshot app.Snapshot) {
	infra := "-"
	if snapshot.Infra.Selected() {
		infra = string(snapshot.Infra.Provider())
		if region := snapshot.Infra.Region(); region != "" {
			infra += "/" + region
		}
	}
	fmt.Fprintf(out, "%s\t%s\t%s\tv%d\n", snapshot.UUID, snapshot.Status, infra, snapshot.Version)
}

func printSnapshotJSON(out io.Writer, snapshot app.Snapshot) error {
	view := struct {
		UUID     string `json:"uuid"`
		Status   string `json:"status"`
		Provider string `json:"provider,omitempty"`
		Region   string `json:"region,omitempty"`
		Version  uint64 `json:"version"`
	}{
		UUID:    snapshot.UUID,
		Status:  string(snapshot.Status),
		Version: snapshot.Version,
	}
	if snapshot.Infra.Selected() {
		view.Provider = string(snapshot.Infra.Provider())
		view.Region = snapshot.Infra.Region()
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(view)
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "usage: provision [-db path] <subcommand> [flags]")
	fmt.Fprintln(out, "subcommands:")
	fmt.Fprintln(out, "  create                                  create a new application")
	fmt.Fprintln(out, "  select-infra -app ID -provider P [-region R]  choose infrastructure")
	fmt.Fprintln(out, "  build -app ID                           request an infrastructure build")
	fmt.Fprintln(out, "  activate -app ID                        mark the application active")
	fmt.Fprintln(out, "  delete -app ID                          delete the application")
	fmt.Fprintln(out, "  show -app ID [-json]                    print one application")
	fmt.Fprintln(out, "  list                                    print all applications")
	fmt.Fprintln(out, "  replay -app ID [-until-seq N]           rebuild state from the journal")
}
