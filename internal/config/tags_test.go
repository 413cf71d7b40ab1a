package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []map[string]string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single pair", "Environment=prod", []map[string]string{{"Environment": "prod"}}},
		{
			"comma separated",
			"Environment=prod,Application=web-app",
			[]map[string]string{{"Environment": "prod"}, {"Application": "web-app"}},
		},
		{
			"space separated",
			"Environment=prod Application=web",
			[]map[string]string{{"Environment": "prod"}, {"Application": "web"}},
		},
		{
			"colon separator",
			"Environment:prod,Application:web",
			[]map[string]string{{"Environment": "prod"}, {"Application": "web"}},
		},
		{
			"surrounding whitespace",
			" Environment = prod , Team = core ",
			[]map[string]string{{"Environment": "prod"}, {"Team": "core"}},
		},
		{
			"trailing comma",
			"Environment=prod,",
			[]map[string]string{{"Environment": "prod"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTags(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTagsErrorsNameTheOffendingPair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pair  string
	}{
		{"no separator", "Environment", `"Environment"`},
		{"empty value", "Environment=", `"Environment="`},
		{"empty key", "=prod", `"=prod"`},
		{"bad pair among good", "Environment=prod,Broken", `"Broken"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTags(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid tag format")
			assert.Contains(t, err.Error(), tt.pair)
		})
	}
}

func TestWorkloadTagsRoundTrip(t *testing.T) {
	c := NewForTest(discard(), "", nil)

	require.NoError(t, c.SetWorkloadTagsFromString("Environment=prod,Team=payments"))
	assert.Equal(t, []map[string]string{{"Environment": "prod"}, {"Team": "payments"}}, c.WorkloadTags())

	c.ClearWorkloadTags()
	assert.Empty(t, c.WorkloadTags(), "cleared filter means all resources")
}

func TestSetWorkloadTagsRejectsMalformed(t *testing.T) {
	c := NewForTest(discard(), "", nil)

	err := c.SetWorkloadTagsFromString("Environment")
	require.Error(t, err)
	assert.Empty(t, c.WorkloadTags(), "failed parse leaves no filter behind")
}

func TestWorkloadTagsEmptyByDefault(t *testing.T) {
	c := NewForTest(discard(), "", nil)
	assert.Empty(t, c.WorkloadTags())
	assert.NotNil(t, c.WorkloadTags())
}
