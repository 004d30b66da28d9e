package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAskRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantValid bool
	}{
		{
			name:      "minimal valid request",
			body:      `{"text": "Uzi直播了吗"}`,
			wantValid: true,
		},
		{
			name:      "full valid request",
			body:      `{"text": "生成今日简报", "session_id": "s-1", "user_id": "u-1"}`,
			wantValid: true,
		},
		{
			name:      "missing text",
			body:      `{"session_id": "s-1"}`,
			wantValid: false,
		},
		{
			name:      "empty text",
			body:      `{"text": ""}`,
			wantValid: false,
		},
		{
			name:      "unknown field rejected",
			body:      `{"text": "hi", "mode": "verbose"}`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := ValidateAskRequest([]byte(tt.body))
			require.NoError(t, err)
			if tt.wantValid {
				assert.Empty(t, violations)
			} else {
				assert.NotEmpty(t, violations)
			}
		})
	}
}

func TestValidateAskRequestMalformedJSON(t *testing.T) {
	_, err := ValidateAskRequest([]byte(`{"text": `))
	assert.Error(t, err)
}
