// Package csvfile reads the collision export and reads and writes the
// year-partitioned cache.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 4096

// Reader loads collisions from the raw CSV export.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a Reader for the export at path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

// Load parses every row of the export. A malformed timestamp on any row
// fails the whole load.
func (r *Reader) Load(ctx context.Context) ([]domain.Collision, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	records, err := ReadCollisions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	r.logger.Info("input loaded", "path", r.path, "records", len(records))
	return records, nil
}

// Name identifies the source in logs.
func (r *Reader) Name() string { return "csv" }

// ReadCollisions parses a raw export from in. Columns are located by header,
// so extra columns and any column order are accepted.
func ReadCollisions(ctx context.Context, in io.Reader) ([]domain.Collision, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", domain.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := domain.IndexColumns(header, domain.RawColumns())
	if err != nil {
		return nil, err
	}

	var out []domain.Collision
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec, err := domain.ParseRawRecord(idx.RawFromRow(row))
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
