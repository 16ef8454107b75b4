package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// CleanedFile is the cache file holding the whole cleaned set.
const CleanedFile = "cleaned_analytics_data.csv"

// ErrCacheMissing is returned when a cache file has not been written yet.
var ErrCacheMissing = errors.New("cache file missing")

// YearFile is the cache file holding the cleaned records of year y.
func YearFile(y int) string { return fmt.Sprintf("year_%d.csv", y) }

// CacheColumns returns the cache file header. The crash timestamp is a
// single column written with domain.CacheTimeLayout.
func CacheColumns() []string {
	cols := []string{domain.ColCrashTime, domain.ColBorough, domain.ColLatitude, domain.ColLongitude}
	for _, f := range domain.CasualtyFields() {
		cols = append(cols, f.Column())
	}
	return cols
}

// CacheOptions selects which cache files Save writes.
type CacheOptions struct {
	SaveYears   bool
	SaveCleaned bool
}

// Cache stores cleaned records as CSV files in one directory.
type Cache struct {
	dir    string
	opts   CacheOptions
	logger *slog.Logger
}

// NewCache creates a Cache rooted at dir.
func NewCache(dir string, opts CacheOptions, logger *slog.Logger) *Cache {
	return &Cache{dir: dir, opts: opts, logger: logger}
}

// Dir is the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Name identifies the cache when used as a source.
func (c *Cache) Name() string { return "cache" }

// Save writes the selected cache files, replacing earlier ones, and returns
// how many files it wrote.
func (c *Cache) Save(ctx context.Context, ds *domain.Dataset) (int, error) {
	if !c.opts.SaveYears && !c.opts.SaveCleaned {
		return 0, nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create cache dir: %w", err)
	}

	written := 0
	if c.opts.SaveYears {
		for _, y := range ds.Years.Years() {
			if err := ctx.Err(); err != nil {
				return written, err
			}
			if err := c.write(YearFile(y), ds.Year(y)); err != nil {
				return written, err
			}
			written++
		}
	}
	if c.opts.SaveCleaned {
		if err := c.write(CleanedFile, ds.Cleaned); err != nil {
			return written, err
		}
		written++
	}
	c.logger.Info("cache saved", "dir", c.dir, "files", written)
	return written, nil
}

// Load reads the cleaned cache file.
func (c *Cache) Load(ctx context.Context) ([]domain.Collision, error) {
	records, err := c.read(ctx, CleanedFile)
	if err != nil {
		return nil, err
	}
	c.logger.Info("cache loaded", "dir", c.dir, "records", len(records))
	return records, nil
}

// LoadYear reads the cache file of year y.
func (c *Cache) LoadYear(ctx context.Context, y int) ([]domain.Collision, error) {
	return c.read(ctx, YearFile(y))
}

// write replaces name atomically so an interrupted run never leaves a
// truncated cache file behind.
func (c *Cache) write(name string, records []domain.Collision) error {
	tmp, err := os.CreateTemp(c.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := WriteCollisions(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (c *Cache) read(ctx context.Context, name string) ([]domain.Collision, error) {
	path := filepath.Join(c.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	records, err := ReadCache(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteCollisions writes records in cache format.
func WriteCollisions(w io.Writer, records []domain.Collision) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CacheColumns()); err != nil {
		return err
	}
	row := make([]string, len(CacheColumns()))
	for _, rec := range records {
		row[0] = rec.CrashTime.Format(domain.CacheTimeLayout)
		row[1] = string(rec.Borough)
		row[2] = strconv.FormatFloat(rec.Latitude, 'f', -1, 64)
		row[3] = strconv.FormatFloat(rec.Longitude, 'f', -1, 64)
		for i, f := range domain.CasualtyFields() {
			row[4+i] = strconv.Itoa(rec.Casualties.Get(f))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCache parses a cache file. Cache files are written by this package,
// so any unparseable cell is an error.
func ReadCache(ctx context.Context, in io.Reader) ([]domain.Collision, error) {
	cr := csv.NewReader(in)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", domain.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := domain.IndexColumns(header, CacheColumns())
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
		rec, err := parseCacheRow(idx, row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseCacheRow(idx domain.ColumnIndex, row []string) (domain.Collision, error) {
	ts, err := domain.ParseCacheTime(idx.Cell(row, domain.ColCrashTime))
	if err != nil {
		return domain.Collision{}, err
	}
	rec := domain.Collision{CrashTime: ts}

	rec.Borough, _ = domain.ParseBorough(idx.Cell(row, domain.ColBorough))
	if rec.Latitude, err = strconv.ParseFloat(idx.Cell(row, domain.ColLatitude), 64); err != nil {
		return domain.Collision{}, fmt.Errorf("latitude: %w", err)
	}
	if rec.Longitude, err = strconv.ParseFloat(idx.Cell(row, domain.ColLongitude), 64); err != nil {
		return domain.Collision{}, fmt.Errorf("longitude: %w", err)
	}
	for _, f := range domain.CasualtyFields() {
		n, err := strconv.Atoi(idx.Cell(row, f.Column()))
		if err != nil || n < 0 {
			return domain.Collision{}, fmt.Errorf("%s: invalid count %q", f.Column(), idx.Cell(row, f.Column()))
		}
		rec.Casualties[f] = n
	}
	return rec, nil
}
