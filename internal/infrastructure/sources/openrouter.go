package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"model-lens/services/catalog-api/internal/domain/model"
	"model-lens/services/catalog-api/internal/infrastructure/fetcher"
)

// tokensPerMillion converts OpenRouter's per-token prices to the
// canonical per-million-token unit.
const tokensPerMillion = 1_000_000

// OpenRouterAdapter reads the OpenRouter routing catalog: a JSON array
// under "data" where each entry carries a pricing sub-object with
// per-token string prices.
type OpenRouterAdapter struct {
	client *resty.Client
	url    string
	retry  fetcher.Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewOpenRouterAdapter(client *resty.Client, url string, retry fetcher.Config, log zerolog.Logger) *OpenRouterAdapter {
	return &OpenRouterAdapter{
		client: client,
		url:    url,
		retry:  retry,
		log:    log.With().Str("source", "openrouter").Logger(),
		now:    time.Now,
	}
}

func (a *OpenRouterAdapter) Name() string { return "openrouter" }

func (a *OpenRouterAdapter) Fetch(ctx context.Context) ([]model.Model, error) {
	var raw map[string]any
	err := fetcher.Do(ctx, a.retry, a.log, "openrouter fetch", func(ctx context.Context) error {
		resp, err := a.client.R().SetContext(ctx).SetResult(&raw).Get(a.url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("openrouter returned status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transformOpenRouter(raw, a.now()), nil
}

func transformOpenRouter(raw map[string]any, now time.Time) []model.Model {
	var models []model.Model
	for _, item := range asSlice(raw["data"]) {
		entry := asMap(item)
		if entry == nil {
			continue
		}
		models = append(models, openRouterRecord(entry, now))
	}
	return models
}

func openRouterRecord(entry map[string]any, now time.Time) model.Model {
	id := firstString(entry, "id")
	name := firstString(entry, "name", "display_name")
	if name == "" {
		name = id
	}

	pricing := firstMap(entry, "pricing")
	architecture := firstMap(entry, "architecture")
	topProvider := firstMap(entry, "top_provider", "topProvider")
	parameters := asStringSlice(entry["supported_parameters"])

	var capabilities []string
	if containsAny(parameters, "tools", "tool_choice") {
		capabilities = append(capabilities, "tools")
	}
	if containsAny(parameters, "reasoning", "include_reasoning") {
		capabilities = append(capabilities, "reasoning")
	}

	releaseDate := ""
	if created := asFloat(entry["created"]); created > 0 {
		releaseDate = time.Unix(int64(created), 0).UTC().Format("2006-01-02")
	}

	contextWindow := int(firstFloat(entry, "context_length", "contextLength"))
	if contextWindow == 0 && architecture != nil {
		contextWindow = int(firstFloat(architecture, "context_length"))
	}

	return model.Model{
		ID:                  id,
		Name:                name,
		Provider:            openRouterProvider(id, name),
		ContextWindow:       contextWindow,
		MaxOutputTokens:     int(firstFloat(topProvider, "max_completion_tokens", "maxCompletionTokens")),
		InputCost:           firstFloat(pricing, "prompt", "input") * tokensPerMillion,
		OutputCost:          firstFloat(pricing, "completion", "output") * tokensPerMillion,
		CacheReadCost:       firstFloat(pricing, "input_cache_read", "cache_read") * tokensPerMillion,
		CacheWriteCost:      firstFloat(pricing, "input_cache_write", "cache_write") * tokensPerMillion,
		Modalities:          dedupeStrings(append(asStringSlice(architecture["input_modalities"]), asStringSlice(architecture["output_modalities"])...)),
		Capabilities:        capabilities,
		ReleaseDate:         releaseDate,
		SupportsTemperature: containsAny(parameters, "temperature"),
		SupportsAttachments: containsAny(asStringSlice(architecture["input_modalities"]), "image", "file"),
		IsNew:               model.ReleasedWithinWindow(releaseDate, now),
	}
}

// openRouterProvider derives the provider from the "org/model" id
// prefix, falling back to Unknown for blank records.
func openRouterProvider(id, name string) string {
	if idx := strings.Index(id, "/"); idx > 0 {
		return id[:idx]
	}
	if strings.TrimSpace(id) == "" && strings.TrimSpace(name) == "" {
		return "Unknown"
	}
	return providerOrUnknown(id, "")
}

func containsAny(values []string, wanted ...string) bool {
	for _, v := range values {
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}
