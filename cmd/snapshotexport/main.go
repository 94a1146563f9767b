// Command snapshotexport dumps one table of a SQLite card snapshot to a
// pretty-printed JSON array.
//
//	snapshotexport <path-to-db> [output.json] [TABLE_NAME]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	config "github.com/avvvet/card-catalog/configs"
	"github.com/avvvet/card-catalog/internal/snapshot"
	log "github.com/sirupsen/logrus"
)

const (
	defaultOutput = "pokemon_cards_export.json"
	defaultTable  = "POKEMONCARD"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
	exitTableNotFound
	exitConnection
	exitWrite
)

func main() {
	config.ConsoleLogging(log.WarnLevel)
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("snapshotexport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: snapshotexport <path-to-db> [output.json] [TABLE_NAME]")
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	pos := fs.Args()
	if len(pos) < 1 || pos[0] == "" {
		fs.Usage()
		return exitUsage
	}
	dbPath, outPath, table := pos[0], defaultOutput, defaultTable
	if len(pos) > 1 && pos[1] != "" {
		outPath = pos[1]
	}
	if len(pos) > 2 && pos[2] != "" {
		table = pos[2]
	}

	if abs, err := filepath.Abs(outPath); err == nil {
		outPath = abs
	}

	res, err := snapshot.Export(ctx, dbPath, table, outPath)
	if err != nil {
		return report(stderr, table, err)
	}

	fmt.Fprintf(stdout, "Exported %d rows to %s\n", res.Rows, res.Path)
	return exitOK
}

func report(stderr io.Writer, table string, err error) int {
	var notFound *snapshot.TableNotFoundError
	switch {
	case errors.As(err, &notFound):
		fmt.Fprintf(stderr, "Table '%s' not found in the database. Available tables:\n", table)
		for _, name := range notFound.Available {
			fmt.Fprintf(stderr, "  - %s\n", name)
		}
		return exitTableNotFound
	case errors.Is(err, snapshot.ErrConnection):
		fmt.Fprintf(stderr, "Unable to open database: %v\n", err)
		return exitConnection
	case errors.Is(err, snapshot.ErrWrite):
		fmt.Fprintf(stderr, "Unable to write export: %v\n", err)
		return exitWrite
	default:
		fmt.Fprintf(stderr, "Export failed: %v\n", err)
		return exitFailure
	}
}
