package livestatus

import "streamscout/internal/datasource"

// StatusPayload is the structured reply data: the normalized stream records
// plus provenance so the presentation layer can indicate staleness.
type StatusPayload struct {
	Streams   []datasource.StreamData `json:"streams"`
	SourceID  string                  `json:"source_id"`
	FromCache bool                    `json:"from_cache"`
}
