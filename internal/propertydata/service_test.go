package propertydata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
	"stratadoc/internal/propertydata"
	"stratadoc/mocks"
)

func namedClient(name string) *mocks.MockPropertyDataClient {
	c := new(mocks.MockPropertyDataClient)
	c.On("Name").Return(name).Maybe()
	return c
}

func TestSuggestProperties_FirstProviderWins(t *testing.T) {
	primary := namedClient("domain")
	secondary := namedClient("corelogic")
	svc := propertydata.NewService(time.Minute, primary, secondary)

	want := []port.PropertySuggestion{{PropertyID: "p-1", Address: "1 Example St"}}
	primary.On("SuggestProperties", mock.Anything, "example").Return(want, nil)

	got, err := svc.SuggestProperties(context.Background(), "example")

	require.NoError(t, err)
	assert.Equal(t, want, got)
	secondary.AssertNotCalled(t, "SuggestProperties", mock.Anything, mock.Anything)
}

func TestSuggestProperties_FallsBackOnFailure(t *testing.T) {
	primary := namedClient("domain")
	secondary := namedClient("corelogic")
	svc := propertydata.NewService(time.Minute, primary, secondary)

	want := []port.PropertySuggestion{{PropertyID: "p-2", Address: "2 Example St"}}
	primary.On("SuggestProperties", mock.Anything, "example").Return(nil, errors.New("rate limited"))
	secondary.On("SuggestProperties", mock.Anything, "example").Return(want, nil)

	got, err := svc.SuggestProperties(context.Background(), "example")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSuggestProperties_AllProvidersFail(t *testing.T) {
	primary := namedClient("domain")
	svc := propertydata.NewService(time.Minute, primary)

	primary.On("SuggestProperties", mock.Anything, "example").Return(nil, errors.New("upstream down"))

	_, err := svc.SuggestProperties(context.Background(), "example")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestSuggestProperties_CachesResults(t *testing.T) {
	primary := namedClient("domain")
	svc := propertydata.NewService(time.Minute, primary)

	want := []port.PropertySuggestion{{PropertyID: "p-1"}}
	primary.On("SuggestProperties", mock.Anything, "example").Return(want, nil).Once()

	first, err := svc.SuggestProperties(context.Background(), "example")
	require.NoError(t, err)
	second, err := svc.SuggestProperties(context.Background(), "example")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	primary.AssertNumberOfCalls(t, "SuggestProperties", 1)
}

func TestSuggestProperties_ZeroTTLDisablesCache(t *testing.T) {
	primary := namedClient("domain")
	svc := propertydata.NewService(0, primary)

	primary.On("SuggestProperties", mock.Anything, "example").Return([]port.PropertySuggestion{}, nil)

	_, _ = svc.SuggestProperties(context.Background(), "example")
	_, _ = svc.SuggestProperties(context.Background(), "example")

	primary.AssertNumberOfCalls(t, "SuggestProperties", 2)
}

func TestGetValuation_FallbackAndCache(t *testing.T) {
	primary := namedClient("domain")
	secondary := namedClient("corelogic")
	svc := propertydata.NewService(time.Minute, primary, secondary)

	want := &port.Valuation{PropertyID: "p-9", EstimateMid: 1_250_000, Provider: "corelogic"}
	primary.On("GetValuation", mock.Anything, "p-9").Return(nil, errors.New("no coverage")).Once()
	secondary.On("GetValuation", mock.Anything, "p-9").Return(want, nil).Once()

	got, err := svc.GetValuation(context.Background(), "p-9")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Second call is served from cache: neither provider is hit again.
	got, err = svc.GetValuation(context.Background(), "p-9")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	primary.AssertNumberOfCalls(t, "GetValuation", 1)
	secondary.AssertNumberOfCalls(t, "GetValuation", 1)
}

func TestGetValuation_AllProvidersFail(t *testing.T) {
	primary := namedClient("domain")
	svc := propertydata.NewService(time.Minute, primary)

	primary.On("GetValuation", mock.Anything, "p-1").Return(nil, errors.New("upstream down"))

	_, err := svc.GetValuation(context.Background(), "p-1")

	assert.ErrorIs(t, err, domain.ErrNoValuationData)
}

func TestGetValuation_NoProvidersConfigured(t *testing.T) {
	svc := propertydata.NewService(time.Minute)

	_, err := svc.GetValuation(context.Background(), "p-1")

	assert.ErrorIs(t, err, domain.ErrNoValuationData)
}
