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

// HuggingFaceAdapter reads the Hugging Face hub listing: a JSON array
// of open-weight models whose capabilities are inferred from tags.
type HuggingFaceAdapter struct {
	client *resty.Client
	url    string
	retry  fetcher.Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewHuggingFaceAdapter(client *resty.Client, url string, retry fetcher.Config, log zerolog.Logger) *HuggingFaceAdapter {
	return &HuggingFaceAdapter{
		client: client,
		url:    url,
		retry:  retry,
		log:    log.With().Str("source", "huggingface").Logger(),
		now:    time.Now,
	}
}

func (a *HuggingFaceAdapter) Name() string { return "huggingface" }

func (a *HuggingFaceAdapter) Fetch(ctx context.Context) ([]model.Model, error) {
	var raw []any
	err := fetcher.Do(ctx, a.retry, a.log, "huggingface fetch", func(ctx context.Context) error {
		resp, err := a.client.R().SetContext(ctx).SetResult(&raw).Get(a.url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("huggingface returned status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transformHuggingFace(raw, a.now()), nil
}

func transformHuggingFace(raw []any, now time.Time) []model.Model {
	var models []model.Model
	for _, item := range raw {
		entry := asMap(item)
		if entry == nil {
			continue
		}
		models = append(models, huggingFaceRecord(entry, now))
	}
	return models
}

func huggingFaceRecord(entry map[string]any, now time.Time) model.Model {
	id := firstString(entry, "id", "modelId", "model_id")
	tags := asStringSlice(entry["tags"])

	releaseDate := ""
	if created := firstString(entry, "createdAt", "created_at"); created != "" {
		if parsed, err := time.Parse(time.RFC3339, created); err == nil {
			releaseDate = parsed.UTC().Format("2006-01-02")
		}
	}

	extra := map[string]any{}
	if likes := asFloat(entry["likes"]); likes > 0 {
		extra["likes"] = likes
	}
	if downloads := asFloat(entry["downloads"]); downloads > 0 {
		extra["downloads"] = downloads
	}
	if pipeline := firstString(entry, "pipeline_tag", "pipelineTag"); pipeline != "" {
		extra["pipeline_tag"] = pipeline
	}
	if len(extra) == 0 {
		extra = nil
	}

	return model.Model{
		ID:                  id,
		Name:                huggingFaceName(id),
		Provider:            huggingFaceProvider(id),
		Modalities:          modalitiesFromTags(tags),
		Capabilities:        capabilitiesFromTags(tags),
		ReleaseDate:         releaseDate,
		OpenWeights:         true,
		SupportsTemperature: true,
		IsNew:               model.ReleasedWithinWindow(releaseDate, now),
		Extra:               extra,
	}
}

func huggingFaceProvider(id string) string {
	if idx := strings.Index(id, "/"); idx > 0 {
		return id[:idx]
	}
	return providerOrUnknown(id, "")
}

func huggingFaceName(id string) string {
	if idx := strings.Index(id, "/"); idx >= 0 && idx < len(id)-1 {
		return id[idx+1:]
	}
	return id
}

// capabilitiesFromTags infers the capability set from hub tags; the
// hub has no structured capability fields.
func capabilitiesFromTags(tags []string) []string {
	var capabilities []string
	for _, tag := range tags {
		lowered := strings.ToLower(tag)
		switch {
		case strings.Contains(lowered, "code"):
			capabilities = append(capabilities, "coding")
		case strings.Contains(lowered, "reasoning"):
			capabilities = append(capabilities, "reasoning")
		case strings.Contains(lowered, "tool"):
			capabilities = append(capabilities, "tools")
		case lowered == "conversational":
			capabilities = append(capabilities, "chat")
		}
	}
	return dedupeStrings(capabilities)
}

func modalitiesFromTags(tags []string) []string {
	modalities := []string{"text"}
	for _, tag := range tags {
		lowered := strings.ToLower(tag)
		switch {
		case strings.Contains(lowered, "image"), strings.Contains(lowered, "vision"):
			modalities = append(modalities, "image")
		case strings.Contains(lowered, "audio"), strings.Contains(lowered, "speech"):
			modalities = append(modalities, "audio")
		case strings.Contains(lowered, "video"):
			modalities = append(modalities, "video")
		}
	}
	return dedupeStrings(modalities)
}
