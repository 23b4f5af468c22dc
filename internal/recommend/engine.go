// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tandemlabs/tandem/internal/cache"
	"github.com/tandemlabs/tandem/internal/catalog"
	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/metrics"
	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/schedule"
)

// ProfileReader provides the user profile the engine scores against.
// Implemented by *profile.Engine.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error)
}

// ItemLister provides the user's non-terminal scheduled items for
// pending-template exclusion. Implemented by *schedule.Scheduler.
type ItemLister interface {
	ActiveItems(ctx context.Context, userID string) ([]schedule.ScheduledItem, error)
}

// Engine generates ranked recommendations. Safe for concurrent use.
type Engine struct {
	profiles ProfileReader
	catalog  catalog.Provider
	items    ItemLister
	config   Config
	cache    *cache.TTL[[]Recommendation]
	logger   zerolog.Logger
}

// NewEngine creates a recommendation engine.
func NewEngine(profiles ProfileReader, cat catalog.Provider, items ItemLister, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	e := &Engine{
		profiles: profiles,
		catalog:  cat,
		items:    items,
		config:   cfg,
		logger:   logging.Logger().With().Str("component", "recommend").Logger(),
	}
	if cfg.CacheTTL > 0 {
		e.cache = cache.New[[]Recommendation](cfg.CacheTTL)
	}
	return e, nil
}

// Close stops the response cache's cleanup goroutine. Safe to call
// more than once, and when caching is disabled.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Stop()
	}
}

// Generate returns up to count recommendations for the user, ranked by
// descending score with ties broken by the lower template ID.
//
// A count of zero or less requests the configured default; counts above
// the configured maximum are capped. An empty catalog, or one fully
// excluded by cooldown and pending items, yields an empty result and no
// error. Catalog failures surface as catalog.ErrUnavailable so callers
// can distinguish them from profile-store failures.
func (e *Engine) Generate(ctx context.Context, userID string, count int) ([]Recommendation, error) {
	metrics.RecommendationRequests.Inc()
	timer := prometheus.NewTimer(metrics.RecommendationDuration)
	defer timer.ObserveDuration()

	if count <= 0 {
		count = e.config.DefaultCount
	}
	if count > e.config.MaxCount {
		count = e.config.MaxCount
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(userID); ok {
			return topN(cached, count), nil
		}
	}

	p, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	templates, err := e.catalog.Templates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	now := time.Now().UTC()
	cooled := e.cooledCategories(p, now)
	pending, err := e.pendingTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([]Recommendation, 0, len(templates))
	for _, tmpl := range templates {
		if cooled[tmpl.Category] {
			metrics.CandidatesExcluded.WithLabelValues("cooldown").Inc()
			continue
		}
		if pending[tmpl.ID] {
			metrics.CandidatesExcluded.WithLabelValues("pending").Inc()
			continue
		}
		candidates = append(candidates, Recommendation{
			ID:          uuid.NewString(),
			UserID:      userID,
			TemplateID:  tmpl.ID,
			Category:    tmpl.Category,
			Title:       tmpl.Title,
			Score:       e.score(p, tmpl),
			GeneratedAt: now,
			ExpiresAt:   now.Add(e.config.FreshnessTTL),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].TemplateID < candidates[j].TemplateID
	})

	if e.cache != nil {
		e.cache.Set(userID, candidates)
	}
	candidates = topN(candidates, count)

	metrics.RecommendationsReturned.Observe(float64(len(candidates)))
	e.logger.Debug().
		Str("user_id", userID).
		Int("requested", count).
		Int("returned", len(candidates)).
		Msg("recommendations generated")

	return candidates, nil
}

// topN returns the first n recommendations without mutating the input.
func topN(recs []Recommendation, n int) []Recommendation {
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs
}

// score blends the profile's category weight with trait affinity.
// Traits unseen by the profile read as the neutral midpoint, so new
// users rank purely on defaults until events arrive.
func (e *Engine) score(p *profile.UserProfile, tmpl catalog.Template) float64 {
	const neutral = 0.5

	categoryTerm := p.Weight(tmpl.Category, neutral)

	traitTerm := neutral
	if len(tmpl.Traits) > 0 {
		var sum, weight float64
		for name, v := range tmpl.Traits {
			sum += p.Trait(name, neutral) * v
			weight += v
		}
		if weight > 0 {
			traitTerm = sum / weight
		}
	}

	total := e.config.CategoryWeight + e.config.TraitWeight
	return (e.config.CategoryWeight*categoryTerm + e.config.TraitWeight*traitTerm) / total
}

// cooledCategories returns the categories touched within the cooldown
// window, read off the profile's recent-interaction window.
func (e *Engine) cooledCategories(p *profile.UserProfile, now time.Time) map[string]bool {
	if e.config.Cooldown <= 0 {
		return nil
	}
	cutoff := now.Add(-e.config.Cooldown)
	cooled := make(map[string]bool)
	for _, in := range p.Recent {
		if in.At.After(cutoff) {
			cooled[in.Category] = true
		}
	}
	return cooled
}

// pendingTemplates returns the template IDs with a non-terminal
// scheduled item, so already-scheduled activities are not resuggested.
func (e *Engine) pendingTemplates(ctx context.Context, userID string) (map[string]bool, error) {
	items, err := e.items.ActiveItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active items: %w", err)
	}
	pending := make(map[string]bool, len(items))
	for _, it := range items {
		pending[it.TemplateID] = true
	}
	return pending, nil
}
