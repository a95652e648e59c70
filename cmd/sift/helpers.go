package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sift-money/sift/internal/dupdetect"
	"github.com/sift-money/sift/internal/learn"
	"github.com/sift-money/sift/internal/normalize"
	"github.com/sift-money/sift/internal/parser"
	"github.com/sift-money/sift/internal/session"
	"github.com/sift-money/sift/internal/storage"
	"github.com/sift-money/sift/internal/suggest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// openStorage opens (and migrates) the configured database.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".config", "sift", "sift.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// newProcessor assembles the import pipeline over the given store.
func newProcessor(store *storage.SQLiteStorage, strictDates bool) *session.Processor {
	return session.NewProcessor(session.Config{
		Parser:     parser.New(),
		Normalizer: normalize.NewNormalizer(normalize.Config{RejectUnparseableDates: strictDates}),
		Engine:     suggest.NewEngine(suggest.DefaultParams()),
		Detector:   dupdetect.NewDetector(store, nil, dupdetect.DefaultParams()),
		Feedback:   learn.NewStore(store, learn.DefaultParams()),
		Storage:    store,
	})
}

// resolveOwner returns the acting owner identity, preferring the command's
// --owner flag over the config file.
func resolveOwner(cmd *cobra.Command) (string, error) {
	if flag := cmd.Flag("owner"); flag != nil && flag.Value.String() != "" {
		return flag.Value.String(), nil
	}
	if owner := viper.GetString("owner"); owner != "" {
		return owner, nil
	}
	return "", fmt.Errorf("no owner set: pass --owner or set owner in config")
}
