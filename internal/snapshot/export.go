package snapshot

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Result summarizes one export run.
type Result struct {
	Table    string
	Rows     int
	Degraded int
	Path     string
}

// Export opens the database at dbPath, reads table in full and writes it to
// outPath. The connection is closed on every path out.
func Export(ctx context.Context, dbPath, table, outPath string) (Result, error) {
	db, err := Open(ctx, dbPath)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()

	s, err := ScanTable(ctx, db, table)
	if err != nil {
		return Result{}, err
	}

	records, err := s.Drain()
	if err != nil {
		return Result{}, err
	}

	res := Result{Table: s.Table(), Degraded: s.Degraded(), Path: outPath}
	if res.Degraded > 0 {
		log.Warnf("%d cells of %s could not be decoded and were exported as null", res.Degraded, res.Table)
	}

	res.Rows, err = WriteFile(records, outPath)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
