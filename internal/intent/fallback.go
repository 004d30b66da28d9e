package intent

import (
	"context"

	"streamscout/internal/common/logger"
	"streamscout/internal/common/metrics"
)

// withFallback composes two classifiers: try the primary, degrade to the
// fallback on any error or when confidence falls below the threshold. The
// "try classifier, else rules" policy lives here and nowhere else.
type withFallback struct {
	primary       Classifier
	fallback      Classifier
	minConfidence float64
	log           logger.Logger
}

// WithFallback wraps primary with fallback. A nil primary (classifier
// disabled) routes everything to the fallback directly.
func WithFallback(primary, fallback Classifier, minConfidence float64, log logger.Logger) Classifier {
	return &withFallback{
		primary:       primary,
		fallback:      fallback,
		minConfidence: minConfidence,
		log:           log,
	}
}

func (c *withFallback) Classify(ctx context.Context, text string) (Result, error) {
	if c.primary == nil {
		return c.fallback.Classify(ctx, text)
	}

	result, err := c.primary.Classify(ctx, text)
	if err != nil {
		metrics.ClassifierFallbacks.WithLabelValues("error").Inc()
		c.log.Warn("classifier unavailable, using rule fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return c.fallback.Classify(ctx, text)
	}

	if result.Confidence < c.minConfidence {
		metrics.ClassifierFallbacks.WithLabelValues("low_confidence").Inc()
		c.log.Debug("classifier confidence below threshold, using rule fallback", map[string]interface{}{
			"intent":     string(result.Intent),
			"confidence": result.Confidence,
			"threshold":  c.minConfidence,
		})
		return c.fallback.Classify(ctx, text)
	}

	return result, nil
}
