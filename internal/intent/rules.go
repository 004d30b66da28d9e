package intent

import (
	"context"
	"strings"

	"streamscout/internal/common/config"
)

// Rules is the local fallback classifier: an ordered keyword table where the
// first matching rule wins. It is deterministic, never errors, and assigns
// every result the same fixed confidence.
type Rules struct {
	rules      []config.IntentRule
	confidence float64
	streamers  []string
	games      []string
}

func NewRules(cfg config.IntentsConfig) *Rules {
	confidence := cfg.FallbackConfidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.6
	}
	return &Rules{
		rules:      cfg.Rules,
		confidence: confidence,
		streamers:  cfg.Streamers,
		games:      cfg.Games,
	}
}

func (r *Rules) Classify(_ context.Context, text string) (Result, error) {
	lowered := strings.ToLower(text)

	matched := IntentUnknown
	for _, rule := range r.rules {
		if containsAny(lowered, rule.Keywords) {
			matched = ParseIntent(rule.Intent)
			break
		}
	}

	return Result{
		Intent:     matched,
		Confidence: r.confidence,
		Entities:   r.extractEntities(text, lowered),
	}, nil
}

func containsAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// extractEntities pulls known slots out of the text: roster streamer names,
// game titles, platform hints, coarse time ranges. Matching is substring
// based; the roster and game list come from configuration.
func (r *Rules) extractEntities(original, lowered string) map[string]string {
	entities := make(map[string]string)

	for _, name := range r.streamers {
		if strings.Contains(lowered, strings.ToLower(name)) {
			entities[EntityStreamer] = name
			break
		}
	}

	for _, game := range r.games {
		if strings.Contains(lowered, strings.ToLower(game)) {
			entities[EntityGame] = game
			break
		}
	}

	switch {
	case strings.Contains(lowered, "虎牙") || strings.Contains(lowered, "huya"):
		entities[EntityPlatform] = "huya"
	case strings.Contains(lowered, "twitch"):
		entities[EntityPlatform] = "twitch"
	}

	switch {
	case strings.Contains(original, "今天") || strings.Contains(lowered, "today"):
		entities[EntityTimeRange] = "today"
	case strings.Contains(original, "本周") || strings.Contains(lowered, "this week"):
		entities[EntityTimeRange] = "week"
	case strings.Contains(original, "最近") || strings.Contains(lowered, "recent"):
		entities[EntityTimeRange] = "recent"
	}

	if len(entities) == 0 {
		return nil
	}
	return entities
}
