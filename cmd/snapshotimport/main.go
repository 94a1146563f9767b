// Command snapshotimport loads a snapshot export into the MongoDB card
// collection named by MONGODB_URI.
//
//	snapshotimport [-collection pokemon_cards] [pokemon_cards_export.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	config "github.com/avvvet/card-catalog/configs"
	"github.com/avvvet/card-catalog/internal/cardsvc/store"
	"github.com/avvvet/card-catalog/internal/db"
	"github.com/avvvet/card-catalog/internal/migrate"
	log "github.com/sirupsen/logrus"
)

const defaultExport = "pokemon_cards_export.json"

const (
	exitOK = iota
	exitFailure
	exitUsage
)

func main() {
	config.ConsoleLogging(log.InfoLevel)
	config.LoadEnv("snapshotimport")
	os.Exit(run(context.Background(), os.Args[1:], os.Getenv("MONGODB_URI"), os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, mongoURI string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("snapshotimport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	collection := fs.String("collection", store.CardCollection, "target collection")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	path := defaultExport
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	if mongoURI == "" {
		fmt.Fprintln(stderr, "MONGODB_URI is not set")
		return exitUsage
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read '%s': %v\n", path, err)
		return exitFailure
	}
	defer f.Close()

	rows, err := migrate.ReadExport(f)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to parse %s: %v\n", path, err)
		return exitFailure
	}
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No rows in export file; nothing to migrate.")
		return exitOK
	}

	database, disconnect, err := db.ConnectToDB(mongoURI)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	defer disconnect()

	fmt.Fprintf(stdout, "Migrating %d rows into %s.%s ...\n", len(rows), database.Name(), *collection)
	res := migrate.NewMigrator(database.Collection(*collection)).Run(ctx, rows)
	fmt.Fprintf(stdout, "Migration complete. migrated=%d, skipped=%d\n", res.Migrated, res.Skipped)

	return exitOK
}
