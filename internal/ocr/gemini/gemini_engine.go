package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stratadoc/internal/config"
	"stratadoc/internal/ocr"
	"stratadoc/internal/port"
)

const (
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Engine implements port.VisionEngine and port.DiagramClassifier using
// Google's Gemini API.
type Engine struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewEngine creates a Gemini-based vision engine.
func NewEngine(cfg *config.OCRProviderConfig) *Engine {
	return newEngine(cfg, "")
}

// NewEngineWithEndpoint creates an engine pointing at a custom API endpoint (for testing).
func NewEngineWithEndpoint(cfg *config.OCRProviderConfig, endpoint string) *Engine {
	return newEngine(cfg, endpoint)
}

func newEngine(cfg *config.OCRProviderConfig, endpoint string) *Engine {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Engine{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) ExtractPage(ctx context.Context, input port.VisionInput) (*port.PageInsight, error) {
	prompt := ocr.BuildExtractionPrompt(input.PageNumber, input.Focus)

	text, err := e.generate(ctx, input.ImagePNG, prompt)
	if err != nil {
		return nil, err
	}

	var insight port.PageInsight
	if err := json.Unmarshal([]byte(stripFences(text)), &insight); err != nil {
		return nil, fmt.Errorf("parsing engine JSON output: %w (raw: %s)", err, truncate(text, 500))
	}
	return &insight, nil
}

func (e *Engine) ClassifyDiagrams(ctx context.Context, imagePNG []byte, pageNumber int) ([]port.DiagramHint, error) {
	prompt := ocr.BuildClassifierPrompt(pageNumber)

	text, err := e.generate(ctx, imagePNG, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Diagram []port.DiagramHint `json:"diagram"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing classifier JSON output: %w (raw: %s)", err, truncate(text, 500))
	}
	return parsed.Diagram, nil
}

func (e *Engine) generate(ctx context.Context, imagePNG []byte, prompt string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(imagePNG)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": "image/png",
							"data":      encoded,
						},
					},
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := ocr.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", ocr.NewRateLimitError("gemini", baseErr, retryAfter)
		}
		return "", baseErr
	}

	return extractCandidateText(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func extractCandidateText(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from API: no candidates")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API: no parts")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
