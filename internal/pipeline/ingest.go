package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/internal/model"
	"energy-mix-pipeline/pkg/utils"
)

// SnapshotCache persists an immutable copy of a fetched source table, keyed
// by source id only. Staleness is the caller's problem: Force re-fetches.
type SnapshotCache interface {
	GetSnapshot(sourceID string) ([]byte, bool, error)
	SaveSnapshot(sourceID string, body []byte) error
}

// Loader obtains the upstream tabular datasets and exposes them as immutable
// in-memory tables.
type Loader struct {
	Client *http.Client
	Cache  SnapshotCache
	Force  bool
	Log    zerolog.Logger
}

// NewLoader builds a loader with a plain HTTP client.
func NewLoader(cache SnapshotCache, log zerolog.Logger) *Loader {
	return &Loader{
		Client: &http.Client{Timeout: 60 * time.Second},
		Cache:  cache,
		Log:    log,
	}
}

// Load fetches (or restores from snapshot) one source and parses it into a
// RawTable. Required columns missing yields a SchemaMismatchError; retrieval
// failure yields ErrSourceUnavailable. Rows with a non-positive year or an
// empty entity name are rejected here and never reach the resolver.
func (l *Loader) Load(ctx context.Context, src config.Source) (*model.RawTable, error) {
	body, cached, err := l.obtain(ctx, src)
	if err != nil {
		return nil, err
	}
	l.Log.Info().Str("source", src.ID).Bool("cached", cached).Int("bytes", len(body)).Msg("source obtained")

	table, rejected, err := parseTable(src, body)
	if err != nil {
		return nil, err
	}
	l.Log.Info().Str("source", src.ID).
		Int("records", len(table.Records)).
		Int("rejected", rejected).
		Msg("source parsed")
	return table, nil
}

// obtain returns the raw bytes of a source, preferring the snapshot unless
// Force is set. A fresh fetch is snapshotted before parsing so a re-run sees
// byte-identical input.
func (l *Loader) obtain(ctx context.Context, src config.Source) ([]byte, bool, error) {
	if !l.Force && l.Cache != nil {
		body, ok, err := l.Cache.GetSnapshot(src.ID)
		if err != nil {
			return nil, false, fmt.Errorf("read snapshot for %s: %w", src.ID, err)
		}
		if ok {
			return body, true, nil
		}
	}

	body, err := l.fetch(ctx, src.URL)
	if err != nil {
		return nil, false, fmt.Errorf("%w: source %s: %v", model.ErrSourceUnavailable, src.ID, err)
	}
	if l.Cache != nil {
		if err := l.Cache.SaveSnapshot(src.ID, body); err != nil {
			return nil, false, fmt.Errorf("save snapshot for %s: %w", src.ID, err)
		}
	}
	return body, false, nil
}

func (l *Loader) fetch(ctx context.Context, pathOrURL string) ([]byte, error) {
	if !strings.HasPrefix(pathOrURL, "http://") && !strings.HasPrefix(pathOrURL, "https://") {
		return os.ReadFile(pathOrURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", pathOrURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseTable decodes the CSV body into RawRecords. A quantity cell that is
// empty or non-numeric stays absent from the record's Quantities map.
func parseTable(src config.Source, body []byte) (*model.RawTable, int, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: source %s: read header: %v", model.ErrSourceUnavailable, src.ID, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.ReplaceAll(h, `"`, ""))] = i
	}

	entityIdx, ok := colIdx[src.EntityColumn]
	if !ok {
		return nil, 0, &model.SchemaMismatchError{SourceID: src.ID, Column: src.EntityColumn}
	}
	yearIdx, ok := colIdx[src.YearColumn]
	if !ok {
		return nil, 0, &model.SchemaMismatchError{SourceID: src.ID, Column: src.YearColumn}
	}
	qtyIdx := make(map[string]int, len(src.Columns))
	for field, column := range src.Columns {
		idx, ok := colIdx[column]
		if !ok {
			return nil, 0, &model.SchemaMismatchError{SourceID: src.ID, Column: column}
		}
		qtyIdx[field] = idx
	}

	table := &model.RawTable{SourceID: src.ID}
	seen := make(map[string]bool)
	rejected := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("source %s: read row: %w", src.ID, err)
		}

		entity := strings.TrimSpace(row[entityIdx])
		year, yearOK := utils.ParseYear(row[yearIdx])
		if entity == "" || !yearOK || year <= 0 {
			rejected++
			continue
		}

		key := fmt.Sprintf("%s\x00%d", entity, year)
		if seen[key] {
			return nil, 0, fmt.Errorf("source %s: duplicate record for entity %q year %d", src.ID, entity, year)
		}
		seen[key] = true

		quantities := make(map[string]float64, len(qtyIdx))
		for field, idx := range qtyIdx {
			if idx >= len(row) {
				continue
			}
			if v, ok := utils.ParseCell(row[idx]); ok {
				quantities[field] = v
			}
		}
		table.Records = append(table.Records, model.RawRecord{
			Entity:     entity,
			Year:       year,
			Quantities: quantities,
		})
	}
	return table, rejected, nil
}
