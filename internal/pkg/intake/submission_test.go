package intake

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionDecodesServicesVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "array", body: `{"services":["Lighting Design","Staging"]}`, want: []string{"Lighting Design", "Staging"}},
		{name: "comma string", body: `{"services":"Sound, Video ,"}`, want: []string{"Sound", "Video"}},
		{name: "services_needed", body: `{"services_needed":"Rigging, Power"}`, want: []string{"Rigging", "Power"}},
		{name: "array wins over services_needed", body: `{"services":["Staging"],"services_needed":"Rigging"}`, want: []string{"Staging"}},
		{name: "blank entries dropped", body: `{"services":[" ",""]}`, want: nil},
		{name: "null", body: `{"services":null}`, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s Submission
			require.NoError(t, json.Unmarshal([]byte(tc.body), &s))
			got := s.Normalized().Services
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, StringList(tc.want), got)
		})
	}
}

func TestSubmissionAudienceSizeAcceptsNumbers(t *testing.T) {
	var s Submission
	require.NoError(t, json.Unmarshal([]byte(`{"audience_size":250}`), &s))
	assert.Equal(t, FlexString("250"), s.AudienceSize)

	require.NoError(t, json.Unmarshal([]byte(`{"audience_size":"100-200"}`), &s))
	assert.Equal(t, FlexString("100-200"), s.AudienceSize)

	assert.Error(t, json.Unmarshal([]byte(`{"audience_size":{}}`), &s))
}

func TestSubmissionNormalizedTrims(t *testing.T) {
	s := Submission{
		Name:           "  Jane Doe ",
		Email:          " jane@example.com\n",
		Venue:          "\tOld Mill ",
		TurnstileToken: " tok ",
	}
	n := s.Normalized()
	assert.Equal(t, "Jane Doe", n.Name)
	assert.Equal(t, "jane@example.com", n.Email)
	assert.Equal(t, "Old Mill", n.Venue)
	assert.Equal(t, "tok", n.TurnstileToken)
	assert.Empty(t, n.Website)
}

func TestSubmissionIsBot(t *testing.T) {
	assert.False(t, Submission{}.IsBot())
	assert.True(t, Submission{Website: " "}.IsBot())
	assert.True(t, Submission{Honeypot: "\t"}.IsBot())
	assert.True(t, Submission{Website: "x"}.IsBot())
	assert.True(t, Submission{Honeypot: "x"}.IsBot())
}
