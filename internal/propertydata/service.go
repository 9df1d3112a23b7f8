package propertydata

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"stratadoc/internal/domain"
	"stratadoc/internal/port"
)

// Service composes the configured providers with first-success fallback and
// a TTL cache. Provider order is the preference order.
type Service struct {
	clients []port.PropertyDataClient
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// NewService creates a property data service over the given providers.
func NewService(ttl time.Duration, clients ...port.PropertyDataClient) *Service {
	return &Service{
		clients: clients,
		ttl:     ttl,
		cache:   map[string]cacheEntry{},
	}
}

// SuggestProperties returns address suggestions from the first provider that
// answers.
func (s *Service) SuggestProperties(ctx context.Context, query string) ([]port.PropertySuggestion, error) {
	cacheKey := "suggest:" + query
	if cached, ok := s.fromCache(cacheKey); ok {
		return cached.([]port.PropertySuggestion), nil
	}

	var lastErr error
	for _, c := range s.clients {
		suggestions, err := c.SuggestProperties(ctx, query)
		if err != nil {
			log.Printf("propertydata.Service: %s suggest failed, trying next provider: %v", c.Name(), err)
			lastErr = err
			continue
		}
		s.toCache(cacheKey, suggestions)
		return suggestions, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all providers failed: %w", lastErr)
	}
	return nil, domain.ErrNoValuationData
}

// GetValuation returns a valuation from the first provider that answers.
func (s *Service) GetValuation(ctx context.Context, propertyID string) (*port.Valuation, error) {
	cacheKey := "valuation:" + propertyID
	if cached, ok := s.fromCache(cacheKey); ok {
		return cached.(*port.Valuation), nil
	}

	var lastErr error
	for _, c := range s.clients {
		valuation, err := c.GetValuation(ctx, propertyID)
		if err != nil {
			log.Printf("propertydata.Service: %s valuation failed, trying next provider: %v", c.Name(), err)
			lastErr = err
			continue
		}
		s.toCache(cacheKey, valuation)
		return valuation, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoValuationData, lastErr)
	}
	return nil, domain.ErrNoValuationData
}

func (s *Service) fromCache(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok || time.Now().After(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.value, true
}

func (s *Service) toCache(key string, value any) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{value: value, expires: time.Now().Add(s.ttl)}
}
