// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline orchestrates the aggregation flow: list entities,
// fan out per-entity history retrieval, normalize, match, and assemble
// the timeline. A single entity's failure degrades the result set; only
// the entity listing itself is fatal.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/delendaest/commhub/internal/dialpad"
	"github.com/delendaest/commhub/internal/fanout"
	"github.com/delendaest/commhub/internal/timeline"
)

// DefaultLookbackDays is the lookback window when the caller supplies
// none (or an invalid one).
const DefaultLookbackDays = 30

// Pipeline aggregates communication history across all entities.
type Pipeline struct {
	dp          *dialpad.Client
	fanLimit    int
	defaultDays int
}

// Config holds the pipeline's collaborators and tunables.
type Config struct {
	Dialpad     *dialpad.Client
	FanOutLimit int // concurrent per-entity fetches, default 5
	DefaultDays int
}

// New creates an aggregation pipeline.
func New(cfg Config) *Pipeline {
	defaultDays := cfg.DefaultDays
	if defaultDays <= 0 {
		defaultDays = DefaultLookbackDays
	}
	return &Pipeline{
		dp:          cfg.Dialpad,
		fanLimit:    cfg.FanOutLimit,
		defaultDays: defaultDays,
	}
}

// Days clamps a caller-supplied lookback window to a positive value,
// defaulting silently on invalid input.
func (p *Pipeline) Days(days int) int {
	if days <= 0 {
		return p.defaultDays
	}
	return days
}

// fetchEvents retrieves and normalizes one entity's calls and texts.
func (p *Pipeline) fetchEvents(ctx context.Context, u dialpad.User, days int) ([]timeline.Event, error) {
	calls, err := p.dp.FetchStats(ctx, u.ID, dialpad.StatCalls, days)
	if err != nil {
		return nil, fmt.Errorf("calls for user %s: %w", u.ID, err)
	}
	texts, err := p.dp.FetchStats(ctx, u.ID, dialpad.StatTexts, days)
	if err != nil {
		return nil, fmt.Errorf("texts for user %s: %w", u.ID, err)
	}

	events := append(timeline.NormalizeCalls(calls), timeline.NormalizeTexts(texts)...)
	timeline.SortDesc(events)
	return events, nil
}

// aggregate lists all entities and fans out per-entity retrieval,
// applying transform to each entity's events. Entities whose transform
// returns no events are dropped when prune is set.
func (p *Pipeline) aggregate(ctx context.Context, days int, prune bool, transform func([]timeline.Event) []timeline.Event) ([]timeline.Group, error) {
	users, err := p.dp.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	groups, failures := fanout.Map(ctx, users, p.fanLimit, func(ctx context.Context, u dialpad.User) (timeline.Group, error) {
		events, err := p.fetchEvents(ctx, u, days)
		if err != nil {
			return timeline.Group{}, err
		}
		return timeline.Group{
			EntityID:   u.ID,
			EntityName: u.Name,
			Identity:   u.Email,
			Events:     transform(events),
		}, nil
	})

	for _, f := range failures {
		slog.Error("entity history fetch failed",
			"user", users[f.Index].ID,
			"error", f.Err,
		)
	}

	if prune {
		groups = timeline.PruneEmpty(groups)
	}
	return groups, nil
}

// AggregateAll returns every entity with its full history over the
// lookback window.
func (p *Pipeline) AggregateAll(ctx context.Context, days int) ([]timeline.Group, error) {
	return p.aggregate(ctx, p.Days(days), false, func(events []timeline.Event) []timeline.Event {
		return events
	})
}

// AggregateContact returns only the entities that interacted with the
// target identity, each restricted to its matching events. An optional
// text filter narrows events further by subject/body substring.
func (p *Pipeline) AggregateContact(ctx context.Context, identity string, days int, textFilter string) ([]timeline.Group, error) {
	matcher := timeline.NewMatcher(identity)
	return p.aggregate(ctx, p.Days(days), true, func(events []timeline.Event) []timeline.Event {
		return timeline.FilterText(timeline.MatchOnly(events, matcher), textFilter)
	})
}

// ContactTimeline returns one flat feed of the target identity's events
// across all entities, newest first.
func (p *Pipeline) ContactTimeline(ctx context.Context, identity string, days int) ([]timeline.Event, error) {
	groups, err := p.AggregateContact(ctx, identity, days, "")
	if err != nil {
		return nil, err
	}
	return timeline.Flatten(groups), nil
}
