package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/infrastructure/fetcher"
)

// ModelsDevAdapter reads the models.dev pricing catalog: a JSON object
// of providers, each holding an object of models keyed by identifier.
type ModelsDevAdapter struct {
	client *resty.Client
	url    string
	retry  fetcher.Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewModelsDevAdapter(client *resty.Client, url string, retry fetcher.Config, log zerolog.Logger) *ModelsDevAdapter {
	return &ModelsDevAdapter{
		client: client,
		url:    url,
		retry:  retry,
		log:    log.With().Str("source", "models.dev").Logger(),
		now:    time.Now,
	}
}

func (a *ModelsDevAdapter) Name() string { return "models.dev" }

// Fetch retrieves the raw catalog and transforms it into canonical
// records. The transform never fails; fetch errors surface after the
// configured retries.
func (a *ModelsDevAdapter) Fetch(ctx context.Context) ([]model.Model, error) {
	var raw map[string]any
	err := fetcher.Do(ctx, a.retry, a.log, "models.dev fetch", func(ctx context.Context) error {
		resp, err := a.client.R().SetContext(ctx).SetResult(&raw).Get(a.url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("models.dev returned status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transformModelsDev(raw, a.now()), nil
}

// transformModelsDev is pure and total: malformed entries degrade to
// safe defaults rather than aborting the batch.
func transformModelsDev(raw map[string]any, now time.Time) []model.Model {
	var models []model.Model
	for providerKey, providerValue := range raw {
		provider := asMap(providerValue)
		if provider == nil {
			continue
		}
		providerName := firstString(provider, "id")
		if providerName == "" {
			providerName = providerKey
		}
		providerName = providerOrUnknown(providerName, "")

		for modelKey, modelValue := range asMap(provider["models"]) {
			entry := asMap(modelValue)
			if entry == nil {
				continue
			}
			models = append(models, modelsDevRecord(modelKey, providerName, entry, now))
		}
	}
	return models
}

func modelsDevRecord(key, provider string, entry map[string]any, now time.Time) model.Model {
	cost := firstMap(entry, "cost", "pricing")
	limit := firstMap(entry, "limit", "limits")
	modalities := firstMap(entry, "modalities")

	id := firstString(entry, "id")
	if id == "" {
		id = key
	}
	name := firstString(entry, "name", "display_name", "displayName")
	if name == "" {
		name = id
	}

	var capabilities []string
	if firstBool(entry, "tool_call", "toolCall") {
		capabilities = append(capabilities, "tools")
	}
	if firstBool(entry, "reasoning") {
		capabilities = append(capabilities, "reasoning")
	}

	releaseDate := firstString(entry, "release_date", "releaseDate")

	return model.Model{
		ID:                  id,
		Name:                name,
		Provider:            provider,
		ContextWindow:       int(firstFloat(limit, "context", "context_window", "contextWindow")),
		MaxOutputTokens:     int(firstFloat(limit, "output", "max_output_tokens", "maxOutputTokens")),
		InputCost:           firstFloat(cost, "input"),
		OutputCost:          firstFloat(cost, "output"),
		CacheReadCost:       firstFloat(cost, "cache_read", "cacheRead"),
		CacheWriteCost:      firstFloat(cost, "cache_write", "cacheWrite"),
		Modalities:          dedupeStrings(append(asStringSlice(modalities["input"]), asStringSlice(modalities["output"])...)),
		Capabilities:        capabilities,
		ReleaseDate:         releaseDate,
		LastUpdated:         firstString(entry, "last_updated", "lastUpdated"),
		Knowledge:           firstString(entry, "knowledge"),
		OpenWeights:         firstBool(entry, "open_weights", "openWeights"),
		SupportsTemperature: firstBool(entry, "temperature"),
		SupportsAttachments: firstBool(entry, "attachment", "attachments"),
		IsNew:               model.ReleasedWithinWindow(releaseDate, now),
	}
}
