package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prepquest/prepquest-server/internal/config"
	"github.com/prepquest/prepquest-server/internal/database"
	"github.com/prepquest/prepquest-server/internal/database/postgres"
	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/localstore"
)

// Maintenance tool that wipes progression data. By default it resets only
// the local snapshot; -remote also deletes the identity's rows from the
// remote store. Useful for QA resets and for recovering from a corrupted
// snapshot.
func main() {
	dataDir := flag.String("data-dir", "data", "directory holding the local progression database")
	keepIdentity := flag.Bool("keep-identity", false, "preserve the attached identity across the reset")
	remote := flag.Bool("remote", false, "also delete the identity's rows from the remote store")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if !*yes {
		scope := "local progression"
		if *remote {
			scope = "local and remote progression"
		}
		fmt.Printf("This will erase all %s in %s. Continue? [y/N] ", scope, *dataDir)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	store, err := localstore.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open local store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := store.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read existing state: %v\n", err)
		os.Exit(1)
	}

	if *remote {
		if existing == nil || existing.Identity == "" {
			fmt.Fprintln(os.Stderr, "no identity attached, nothing to delete remotely")
			os.Exit(1)
		}
		if err := wipeRemote(ctx, existing.Identity); err != nil {
			fmt.Fprintf(os.Stderr, "failed to wipe remote rows: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Remote rows deleted for %s.\n", existing.Identity)
	}

	fresh := domain.NewProgressionState(domain.DateOf(time.Now()))
	if *keepIdentity && existing != nil {
		fresh.Identity = existing.Identity
	}

	if err := store.Save(ctx, fresh); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write fresh state: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Local progression reset.")
}

func wipeRemote(ctx context.Context, identity string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := database.NewPool(
		cfg.GetDBConnString(),
		config.DefaultDBMaxConns,
		time.Duration(config.DefaultDBMaxIdleMinutes)*time.Minute,
		time.Duration(config.DefaultDBMaxLifeMinutes)*time.Minute,
	)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	return postgres.NewRemoteRepository(pool).DeleteAll(ctx, identity)
}
