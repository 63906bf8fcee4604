package provider

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Router manages multiple LLM providers and routes generation requests.
// Projects can be bound to a specific provider, with a fallback chain
// for when the primary is down mid-writing-session.
type Router struct {
	providers map[string]Provider
	bindings  map[string]string   // projectID -> providerID
	fallbacks map[string][]string // projectID -> fallback provider chain
	defaults  string              // default provider ID
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRouter creates a provider router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		providers: make(map[string]Provider),
		bindings:  make(map[string]string),
		fallbacks: make(map[string][]string),
		logger:    logger,
	}
}

// Register adds a provider. The first registered provider becomes the
// default.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
	if r.defaults == "" {
		r.defaults = p.ID()
	}
	r.logger.Info("registered provider", zap.String("id", p.ID()), zap.String("name", p.Name()))
}

// SetDefault sets the default provider.
func (r *Router) SetDefault(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = providerID
}

// Bind associates a project with a specific provider.
func (r *Router) Bind(projectID, providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[projectID] = providerID
}

// SetFallbacks configures fallback providers for a project.
func (r *Router) SetFallbacks(projectID string, providerIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[projectID] = providerIDs
}

// Route sends a chat request through the project's provider, falling
// back down the chain on failure.
func (r *Router) Route(ctx context.Context, projectID string, req *ChatRequest) (*ChatResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary := r.getProvider(projectID)
	if primary == nil {
		return nil, fmt.Errorf("no provider available for project %s", projectID)
	}

	resp, err := primary.Chat(ctx, req)
	if err == nil {
		return resp, nil
	}
	r.logger.Warn("primary provider failed, trying fallbacks",
		zap.String("project", projectID), zap.Error(err))

	for _, fbID := range r.fallbacks[projectID] {
		fb, ok := r.providers[fbID]
		if !ok {
			continue
		}
		resp, err = fb.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		r.logger.Warn("fallback provider failed", zap.String("provider", fbID), zap.Error(err))
	}

	return nil, fmt.Errorf("all providers failed for project %s: %w", projectID, err)
}

// RouteStream sends a streaming chat request through the project's
// primary provider.
func (r *Router) RouteStream(ctx context.Context, projectID string, req *ChatRequest) (<-chan *StreamChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary := r.getProvider(projectID)
	if primary == nil {
		return nil, fmt.Errorf("no provider available for project %s", projectID)
	}
	return primary.ChatStream(ctx, req)
}

func (r *Router) getProvider(projectID string) Provider {
	if pid, ok := r.bindings[projectID]; ok {
		if p, ok := r.providers[pid]; ok {
			return p
		}
	}
	if p, ok := r.providers[r.defaults]; ok {
		return p
	}
	return nil
}

// GetProvider returns a provider by ID.
func (r *Router) GetProvider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// ListProviders returns all registered providers.
func (r *Router) ListProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}
