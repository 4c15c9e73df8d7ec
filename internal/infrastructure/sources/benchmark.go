package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/infrastructure/fetcher"
)

// BenchmarkAdapter reads a CSV benchmark feed with a header row. Score
// columns land in the model's Extra map so rule clauses can reference
// them by name.
type BenchmarkAdapter struct {
	client *resty.Client
	url    string
	retry  fetcher.Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewBenchmarkAdapter(client *resty.Client, url string, retry fetcher.Config, log zerolog.Logger) *BenchmarkAdapter {
	return &BenchmarkAdapter{
		client: client,
		url:    url,
		retry:  retry,
		log:    log.With().Str("source", "benchmark").Logger(),
		now:    time.Now,
	}
}

func (a *BenchmarkAdapter) Name() string { return "benchmark" }

func (a *BenchmarkAdapter) Fetch(ctx context.Context) ([]model.Model, error) {
	var body string
	err := fetcher.Do(ctx, a.retry, a.log, "benchmark fetch", func(ctx context.Context) error {
		resp, err := a.client.R().SetContext(ctx).Get(a.url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("benchmark feed returned status %d", resp.StatusCode())
		}
		body = resp.String()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transformBenchmarkCSV(body, a.now()), nil
}

// transformBenchmarkCSV parses the feed row by row; malformed rows are
// skipped, never fatal to the batch.
func transformBenchmarkCSV(body string, now time.Time) []model.Model {
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, column := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(column))
	}

	var models []model.Model
	for _, row := range rows[1:] {
		record, ok := benchmarkRecord(header, row, now)
		if ok {
			models = append(models, record)
		}
	}
	return models
}

func benchmarkRecord(header, row []string, now time.Time) (model.Model, bool) {
	fields := make(map[string]string, len(header))
	for i, column := range header {
		if i < len(row) {
			fields[column] = strings.TrimSpace(row[i])
		}
	}

	id := fields["model_id"]
	name := fields["name"]
	if id == "" && name == "" {
		return model.Model{}, false
	}
	if id == "" {
		id = name
	}
	if name == "" {
		name = id
	}

	extra := map[string]any{}
	for column, value := range fields {
		switch column {
		case "model_id", "name", "provider", "context_window", "release_date":
			continue
		}
		if value == "" {
			continue
		}
		if score, err := strconv.ParseFloat(value, 64); err == nil {
			extra[column] = score
		} else {
			extra[column] = value
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	contextWindow, _ := strconv.Atoi(fields["context_window"])
	releaseDate := fields["release_date"]

	return model.Model{
		ID:            id,
		Name:          name,
		Provider:      providerOrUnknown(fields["provider"], ""),
		ContextWindow: contextWindow,
		ReleaseDate:   releaseDate,
		IsNew:         model.ReleasedWithinWindow(releaseDate, now),
		Extra:         extra,
	}, true
}
