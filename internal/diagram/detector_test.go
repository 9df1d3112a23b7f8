package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stratadoc/internal/artifact"
	"stratadoc/internal/blob"
	"stratadoc/internal/config"
	"stratadoc/internal/domain"
	"stratadoc/internal/extract"
	"stratadoc/internal/port"
	"stratadoc/mocks"
)

func detectorKey() domain.ContentKey {
	return artifact.NewKey("hmac-doc", 1, nil)
}

// newTestDetector wires a detector against permissive artifact mocks and
// replaces the retry sleep with a recorder.
func newTestDetector(classifier port.DiagramClassifier, cfg config.PipelineConfig) (*Detector, *[]time.Duration) {
	repo := new(mocks.MockArtifactRepo)
	storage := new(mocks.MockObjectStorage)
	repo.On("GetDiagram", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound).Maybe()
	repo.On("CreateDiagram", mock.Anything, mock.Anything).Return(nil).Maybe()
	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil).Maybe()

	d := NewDetector(artifact.NewStore(repo, blob.NewService(storage, "test-bucket")), classifier, cfg)
	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }
	return d, &slept
}

// stubClassifier fails a scripted number of times before succeeding.
type stubClassifier struct {
	failures int
	calls    int
	hints    []port.DiagramHint
}

func (c *stubClassifier) ClassifyDiagrams(_ context.Context, _ []byte, _ int) ([]port.DiagramHint, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("classifier overloaded")
	}
	return c.hints, nil
}

// stubSource renders every page and reports images everywhere.
type stubSource struct{ pages int }

func (s *stubSource) PageCount() int                    { return s.pages }
func (s *stubSource) PageText(page int) (string, error) { return "", nil }
func (s *stubSource) RenderPNG(page int, _ float64) ([]byte, error) {
	return []byte(fmt.Sprintf("png-%d", page)), nil
}
func (s *stubSource) PageHasImages(int) bool { return true }
func (s *stubSource) Close() error           { return nil }

func extractionWithHints() *extract.Result {
	return &extract.Result{
		Pages: []extract.PageExtraction{
			{PageNumber: 1, Hints: []port.DiagramHint{{Type: "site_plan", Page: 1}}},
			{PageNumber: 2},
			{PageNumber: 3, Hints: []port.DiagramHint{
				{Type: "site_plan", Page: 3},
				{Type: "sewer_diagram", Page: 3},
			}},
		},
	}
}

func TestDetect_HintReuse(t *testing.T) {
	d, _ := newTestDetector(nil, config.PipelineConfig{ReuseDiagramHints: true})

	result, err := d.Detect(context.Background(), detectorKey(), extractionWithHints(), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalDiagrams)
	assert.Equal(t, []int{1, 3}, result.DiagramPages)
	assert.Equal(t, 2, result.DiagramTypes["site_plan"])
	assert.Equal(t, 1, result.DiagramTypes["sewer_diagram"])
	assert.Equal(t, "hint_reuse: 3 diagrams across 2 pages", result.DetectionSummary)
}

func TestDetect_HintReuse_UnknownTypeNormalized(t *testing.T) {
	d, _ := newTestDetector(nil, config.PipelineConfig{ReuseDiagramHints: true})

	extraction := &extract.Result{
		Pages: []extract.PageExtraction{
			{PageNumber: 1, Hints: []port.DiagramHint{{Type: "something_else", Page: 1}}},
		},
	}
	result, err := d.Detect(context.Background(), detectorKey(), extraction, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.DiagramTypes["unknown"])
}

func TestDetect_HintReuse_CachedExtractionReadsArtifacts(t *testing.T) {
	repo := new(mocks.MockArtifactRepo)
	storage := new(mocks.MockObjectStorage)
	meta, _ := json.Marshal(map[string]any{"hints": []port.DiagramHint{{Type: "flood_map", Page: 2}}})
	repo.On("ListDiagrams", mock.Anything, detectorKey()).Return([]domain.DiagramArtifact{
		{PageNumber: 2, DiagramKey: "page_render", DiagramMeta: meta},
	}, nil)

	d := NewDetector(artifact.NewStore(repo, blob.NewService(storage, "test-bucket")), nil, config.PipelineConfig{ReuseDiagramHints: true})

	result, err := d.Detect(context.Background(), detectorKey(), &extract.Result{FromCache: true}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalDiagrams)
	assert.Equal(t, []int{2}, result.DiagramPages)
	assert.Equal(t, 1, result.DiagramTypes["flood_map"])
}

func TestDetect_Dedicated_CapsCandidatePages(t *testing.T) {
	classifier := &stubClassifier{hints: []port.DiagramHint{{Type: "title_plan"}}}
	d, _ := newTestDetector(classifier, config.PipelineConfig{
		LowTextThreshold: 100,
		MaxDiagramPages:  2,
	})

	// Every page is low-text with images, so all four are candidates before
	// the cap.
	extraction := &extract.Result{
		Pages: []extract.PageExtraction{
			{PageNumber: 1}, {PageNumber: 2}, {PageNumber: 3}, {PageNumber: 4},
		},
	}
	result, err := d.Detect(context.Background(), detectorKey(), extraction, &stubSource{pages: 4})

	require.NoError(t, err)
	assert.Equal(t, 2, classifier.calls)
	assert.Equal(t, []int{1, 2}, result.DiagramPages)
}

func TestDetect_Dedicated_SkipsNonCandidatePages(t *testing.T) {
	classifier := &stubClassifier{hints: []port.DiagramHint{{Type: "site_plan"}}}
	d, _ := newTestDetector(classifier, config.PipelineConfig{
		LowTextThreshold: 10,
		MaxDiagramPages:  20,
	})

	// Page 1 has plenty of text: has_images alone is one signal, not enough.
	extraction := &extract.Result{
		Pages: []extract.PageExtraction{
			{PageNumber: 1, Text: "a long run of native text that clears the low text threshold"},
			{PageNumber: 2, Text: ""},
		},
	}
	_, err := d.Detect(context.Background(), detectorKey(), extraction, &stubSource{pages: 2})

	require.NoError(t, err)
	assert.Equal(t, 1, classifier.calls)
}

func TestClassifyWithRetry_BackoffDoubles(t *testing.T) {
	classifier := &stubClassifier{failures: 2, hints: []port.DiagramHint{{Type: "site_plan"}}}
	d, slept := newTestDetector(classifier, config.PipelineConfig{
		LowTextThreshold:   100,
		MaxDiagramPages:    5,
		DiagramMaxRetries:  3,
		DiagramBackoffSecs: 1,
	})

	extraction := &extract.Result{Pages: []extract.PageExtraction{{PageNumber: 1}}}
	result, err := d.Detect(context.Background(), detectorKey(), extraction, &stubSource{pages: 1})

	require.NoError(t, err)
	assert.Equal(t, 3, classifier.calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
	assert.Equal(t, 1, result.TotalDiagrams)
}

func TestDetect_Dedicated_ExhaustedRetriesSkipsPage(t *testing.T) {
	classifier := &stubClassifier{failures: 100}
	d, slept := newTestDetector(classifier, config.PipelineConfig{
		LowTextThreshold:   100,
		MaxDiagramPages:    5,
		DiagramMaxRetries:  3,
		DiagramBackoffSecs: 1,
	})

	extraction := &extract.Result{Pages: []extract.PageExtraction{{PageNumber: 1}, {PageNumber: 2}}}
	result, err := d.Detect(context.Background(), detectorKey(), extraction, &stubSource{pages: 2})

	// Exhaustion degrades to an empty result, it never fails the stage.
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalDiagrams)
	assert.Empty(t, result.DiagramPages)
	assert.Equal(t, 6, classifier.calls)
	assert.Len(t, *slept, 4)
}

func TestDetect_Dedicated_NoClassifier(t *testing.T) {
	d, _ := newTestDetector(nil, config.PipelineConfig{LowTextThreshold: 100})

	extraction := &extract.Result{Pages: []extract.PageExtraction{{PageNumber: 1}}}
	result, err := d.Detect(context.Background(), detectorKey(), extraction, &stubSource{pages: 1})

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalDiagrams)
	assert.Equal(t, "dedicated: 0 diagrams across 0 pages", result.DetectionSummary)
}
