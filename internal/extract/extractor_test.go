package extract_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratadoc/internal/artifact"
	"stratadoc/internal/config"
	"stratadoc/internal/domain"
	"stratadoc/internal/extract"
	"stratadoc/internal/port"
)

func pipelineCfg() config.PipelineConfig {
	return config.PipelineConfig{
		LowTextThreshold: 100,
		MinDocumentChars: 100,
		RenderZoom:       2.0,
	}
}

func extractKey() domain.ContentKey {
	return artifact.NewKey("hmac-doc", 1, map[string]any{"render_zoom": 2.0})
}

func richText(n int) string {
	return strings.Repeat("contract clause text ", n)
}

func TestExtract_NativeTextOnly_NoEngineCalls(t *testing.T) {
	engine := &fakeEngine{text: "ocr output"}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	src := &fakeSource{texts: []string{richText(10), richText(10)}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, 0, engine.callCount())
	assert.Equal(t, 2, result.Methods[string(domain.MethodNativeText)])
}

func TestExtract_SingleSignalDoesNotEscalate(t *testing.T) {
	engine := &fakeEngine{text: richText(20)}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	// Page has images but a healthy text layer and no keywords: one signal.
	src := &fakeSource{texts: []string{richText(10)}, images: []bool{true}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Equal(t, 0, engine.callCount())
	assert.Equal(t, domain.MethodNativeText, result.Pages[0].Method)
}

func TestExtract_TwoSignalsEscalate(t *testing.T) {
	engine := &fakeEngine{text: richText(20)}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	// Low text plus images: two signals, OCR runs and wins on length.
	src := &fakeSource{texts: []string{"scan"}, images: []bool{true}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Equal(t, 1, engine.callCount())
	assert.Equal(t, domain.MethodPrimaryOCR, result.Pages[0].Method)
	assert.Equal(t, engine.text, result.Pages[0].Text)
}

func TestExtract_OCRNeverRegresses(t *testing.T) {
	native := "Refer to the attached site plan and sewer diagram for lot boundaries."
	engine := &fakeEngine{text: "short"}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	// Keywords plus low text escalate, but the engine returns less text than
	// the native layer already holds.
	src := &fakeSource{texts: []string{native}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Equal(t, 1, engine.callCount())
	assert.Equal(t, domain.MethodNativeText, result.Pages[0].Method)
	assert.Equal(t, native, result.Pages[0].Text)
}

func TestExtract_SecondaryFallback(t *testing.T) {
	primary := &fakeEngine{text: "still short"}
	secondary := &fakeEngine{text: richText(20)}
	ex := extract.NewExtractor(newMemArtifactStore(), primary, secondary, pipelineCfg())

	src := &fakeSource{texts: []string{""}, images: []bool{true}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 1, secondary.callCount())
	assert.Equal(t, domain.MethodSecondaryOCR, result.Pages[0].Method)
}

func TestExtract_SecondarySkippedWhenPrimarySufficient(t *testing.T) {
	primary := &fakeEngine{text: richText(20)}
	secondary := &fakeEngine{text: richText(40)}
	ex := extract.NewExtractor(newMemArtifactStore(), primary, secondary, pipelineCfg())

	src := &fakeSource{texts: []string{""}, images: []bool{true}}
	_, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Equal(t, 0, secondary.callCount())
}

func TestExtract_PrimaryFailureKeepsNativeText(t *testing.T) {
	native := "See the flood certificate diagram on the following page."
	engine := &fakeEngine{err: errors.New("engine unavailable")}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	src := &fakeSource{texts: []string{native}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Equal(t, native, result.Pages[0].Text)
	assert.Equal(t, domain.MethodNativeText, result.Pages[0].Method)
}

func TestExtract_DocumentFloor(t *testing.T) {
	ex := extract.NewExtractor(newMemArtifactStore(), nil, nil, pipelineCfg())

	src := &fakeSource{texts: []string{strings.Repeat("a", 99)}}
	result, err := ex.Extract(context.Background(), extractKey(), src)
	require.NoError(t, err)
	assert.False(t, result.Success)

	src = &fakeSource{texts: []string{strings.Repeat("a", 100)}}
	result, err = ex.Extract(context.Background(), artifact.NewKey("hmac-other", 1, nil), src)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExtract_FloorCountsAcrossPages(t *testing.T) {
	ex := extract.NewExtractor(newMemArtifactStore(), nil, nil, pipelineCfg())

	src := &fakeSource{texts: []string{strings.Repeat("a", 60), strings.Repeat("b", 40)}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExtract_PageDelimiters(t *testing.T) {
	ex := extract.NewExtractor(newMemArtifactStore(), nil, nil, pipelineCfg())

	src := &fakeSource{texts: []string{richText(10), richText(10), richText(10)}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	assert.Contains(t, result.FullText, "--- Page 1 of 3 ---")
	assert.Contains(t, result.FullText, "--- Page 2 of 3 ---")
	assert.Contains(t, result.FullText, "--- Page 3 of 3 ---")
}

func TestExtract_EmptyDocument(t *testing.T) {
	ex := extract.NewExtractor(newMemArtifactStore(), nil, nil, pipelineCfg())

	_, err := ex.Extract(context.Background(), extractKey(), &fakeSource{})

	assert.ErrorIs(t, err, domain.ErrInsufficientText)
}

func TestExtract_SecondRunHitsCache(t *testing.T) {
	engine := &fakeEngine{text: richText(20)}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	src := &fakeSource{texts: []string{"scan", richText(10)}, images: []bool{true, false}}

	first, err := ex.Extract(context.Background(), extractKey(), src)
	require.NoError(t, err)
	require.True(t, first.Success)
	callsAfterFirst := engine.callCount()

	second, err := ex.Extract(context.Background(), extractKey(), src)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, engine.callCount())
	assert.True(t, second.FromCache)
	assert.Equal(t, first.FullText, second.FullText)
	assert.Equal(t, first.TotalPages, second.TotalPages)
	assert.Equal(t, first.TotalWords, second.TotalWords)
}

func TestExtract_FailedRunIsNotCached(t *testing.T) {
	ex := extract.NewExtractor(newMemArtifactStore(), nil, nil, pipelineCfg())

	src := &fakeSource{texts: []string{"too short"}}

	first, err := ex.Extract(context.Background(), extractKey(), src)
	require.NoError(t, err)
	require.False(t, first.Success)

	second, err := ex.Extract(context.Background(), extractKey(), src)
	require.NoError(t, err)
	assert.False(t, second.FromCache)
}

func TestExtract_DiagramHintsPersisted(t *testing.T) {
	engine := &fakeEngine{
		text:     richText(20),
		diagrams: []port.DiagramHint{{Type: "site_plan", Page: 1}},
	}
	ex := extract.NewExtractor(newMemArtifactStore(), engine, nil, pipelineCfg())

	src := &fakeSource{texts: []string{""}, images: []bool{true}}
	result, err := ex.Extract(context.Background(), extractKey(), src)

	require.NoError(t, err)
	require.Len(t, result.Pages[0].Hints, 1)
	assert.Equal(t, "site_plan", result.Pages[0].Hints[0].Type)
}
