package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratadoc/internal/config"
	"stratadoc/internal/ocr"
	"stratadoc/internal/ocr/openai"
	"stratadoc/internal/port"
)

func testProviderCfg() *config.OCRProviderConfig {
	return &config.OCRProviderConfig{
		Provider: "openai",
		APIKey:   "test-key",
	}
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestExtractPage(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(chatResponse(
			`{"text":"PARTICULARS OF SALE","confidence":0.88,"diagrams":[]}`,
		))
	}))
	defer server.Close()

	engine := openai.NewEngineWithEndpoint(testProviderCfg(), server.URL)
	insight, err := engine.ExtractPage(context.Background(), port.VisionInput{
		ImagePNG:   []byte("png-bytes"),
		PageNumber: 2,
		Focus:      "full_text",
	})

	require.NoError(t, err)
	assert.Equal(t, "PARTICULARS OF SALE", insight.Text)
	assert.Equal(t, 0.88, insight.Confidence)
	assert.Empty(t, insight.Diagrams)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Contains(t, gotBody, "response_format")
}

func TestExtractPage_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	engine := openai.NewEngineWithEndpoint(testProviderCfg(), server.URL)
	_, err := engine.ExtractPage(context.Background(), port.VisionInput{ImagePNG: []byte("x")})

	var rateErr *ocr.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, "openai", rateErr.Provider)
	assert.Equal(t, "5s", rateErr.RetryAfter.String())
}

func TestExtractPage_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	engine := openai.NewEngineWithEndpoint(testProviderCfg(), server.URL)
	_, err := engine.ExtractPage(context.Background(), port.VisionInput{ImagePNG: []byte("x")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestExtractPage_MalformedModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse("plain prose, not json"))
	}))
	defer server.Close()

	engine := openai.NewEngineWithEndpoint(testProviderCfg(), server.URL)
	_, err := engine.ExtractPage(context.Background(), port.VisionInput{ImagePNG: []byte("x")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing engine JSON output")
}
