// Package intent classifies request text into a closed set of intents. The
// real classifier is an external service; a deterministic local rule table
// stands behind it so classification always produces an answer.
package intent

import "context"

// Intent is a typed tag from the closed intent set. New intents require a
// constant here plus entries in the rule table and handler mapping.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentStatusQuery    Intent = "status-query"
	IntentSummaryRequest Intent = "summary-request"
	IntentTrendQuery     Intent = "trend-query"
	IntentHealthQuery    Intent = "health-query"
	IntentUnknown        Intent = "unknown"
)

// ParseIntent maps a wire string onto the typed set; anything unrecognized
// becomes IntentUnknown rather than leaking arbitrary strings downstream.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentGreeting, IntentStatusQuery, IntentSummaryRequest,
		IntentTrendQuery, IntentHealthQuery:
		return Intent(s)
	default:
		return IntentUnknown
	}
}

// Result is one classification outcome. Confidence is in [0,1]; Entities
// carries extracted request slots such as the streamer name.
type Result struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// Entity keys shared between classifiers and handlers.
const (
	EntityStreamer  = "streamer"
	EntityGame      = "game"
	EntityPlatform  = "platform"
	EntityTimeRange = "time_range"
)

// Classifier turns request text into a Result. Implementations must be
// side-effect-free with respect to classification state so repeated calls
// with the same text agree.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}
