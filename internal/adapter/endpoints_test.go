package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIConfig_URL(t *testing.T) {
	config := APIConfig{ProjectID: "p1", Dataset: "production", APIVersion: "v2024-01-29"}

	tests := []struct {
		name     string
		endpoint Endpoint
		want     string
	}{
		{
			name:     "global endpoint",
			endpoint: UsersMeEndpoint(),
			want:     "https://api.sanity.io/v2024-01-29/users/me",
		},
		{
			name:     "query",
			endpoint: DataQueryEndpoint("production"),
			want:     "https://p1.api.sanity.io/v2024-01-29/query/production",
		},
		{
			name:     "export escapes the type list",
			endpoint: DataExportEndpoint("production", []string{"post", "page"}),
			want:     "https://p1.api.sanity.io/v2024-01-29/data/export/production?types=post%2Cpage",
		},
		{
			name: "mutate keeps parameter order",
			endpoint: DataMutateEndpoint("production", MutateOptions{
				Tag:             "docmig run",
				ReturnIDs:       true,
				ReturnDocuments: true,
				Visibility:      VisibilitySync,
				DryRun:          true,
			}),
			want: "https://p1.api.sanity.io/v2024-01-29/data/mutate/production?tag=docmig+run&returnIds=true&returnDocuments=true&visibility=sync&dryRun=true",
		},
		{
			name:     "mutate without options",
			endpoint: DataMutateEndpoint("production", MutateOptions{}),
			want:     "https://p1.api.sanity.io/v2024-01-29/data/mutate/production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.URL(tt.endpoint)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIConfig_URL_BaseOverride(t *testing.T) {
	config := APIConfig{APIVersion: "2024-01-29", BaseURL: "http://127.0.0.1:9999/"}

	got, err := config.URL(DataQueryEndpoint("test"))

	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/v2024-01-29/query/test", got)
}

func TestAPIConfig_URL_Errors(t *testing.T) {
	_, err := APIConfig{ProjectID: "p"}.URL(UsersMeEndpoint())
	assert.ErrorContains(t, err, "api version")

	_, err = APIConfig{APIVersion: "1"}.URL(DataQueryEndpoint("d"))
	assert.ErrorContains(t, err, "project id")
}

func TestEndpointMethods(t *testing.T) {
	assert.Equal(t, "GET", UsersMeEndpoint().Method)
	assert.True(t, UsersMeEndpoint().Global)
	assert.Equal(t, "GET", DataExportEndpoint("d", nil).Method)
	assert.Equal(t, "POST", DataMutateEndpoint("d", MutateOptions{}).Method)
}
