// Package export writes a run's report to a directory: one JSON file per
// artifact, a manifest, a GeoJSON reference layer and a text summary.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

// Fixed file names in the output directory.
const (
	ManifestFile = "manifest.json"
	GeoJSONFile  = "boroughs.geojson"
	SummaryFile  = "summary.txt"
)

// ManifestEntry describes one artifact file.
type ManifestEntry struct {
	ID       string         `json:"id"`
	Question int            `json:"question"`
	Kind     report.Kind    `json:"kind"`
	Title    string         `json:"title"`
	Year     int            `json:"year,omitempty"`
	Borough  domain.Borough `json:"borough,omitempty"`
	File     string         `json:"file"`
}

// Manifest indexes an output directory.
type Manifest struct {
	Run       domain.RunInfo    `json:"run"`
	Stats     domain.CleanStats `json:"stats"`
	Artifacts []ManifestEntry   `json:"artifacts"`
}

// NewManifest lists the artifacts of rep in catalog order.
func NewManifest(rep *report.Report) Manifest {
	m := Manifest{Run: rep.Run, Stats: rep.Stats, Artifacts: make([]ManifestEntry, 0, len(rep.Artifacts))}
	for _, a := range rep.Artifacts {
		m.Artifacts = append(m.Artifacts, ManifestEntry{
			ID:       a.ID,
			Question: a.Question,
			Kind:     a.Kind,
			Title:    a.Title,
			Year:     a.Year,
			Borough:  a.Borough,
			File:     a.FileName(),
		})
	}
	return m
}

// Writer is the file sink.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer that publishes into dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "file" }

// Publish writes every artifact, then the manifest, GeoJSON layer and
// summary. Existing files with the same names are replaced.
func (w *Writer) Publish(ctx context.Context, rep *report.Report) error {
	start := time.Now()
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, a := range rep.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(w.dir, a.FileName()), a); err != nil {
			return fmt.Errorf("write artifact %s: %w", a.ID, err)
		}
	}

	if err := writeJSON(filepath.Join(w.dir, ManifestFile), NewManifest(rep)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	layer, err := BoroughLayer(rep.Artifacts).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if err := writeFile(filepath.Join(w.dir, GeoJSONFile), layer); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}

	var summary bytes.Buffer
	if err := WriteSummary(&summary, rep); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if err := writeFile(filepath.Join(w.dir, SummaryFile), summary.Bytes()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	w.logger.Info("report exported",
		"dir", w.dir,
		"artifacts", len(rep.Artifacts),
		"duration", time.Since(start),
	)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644) //nolint:gosec // report files are meant to be shared
}
