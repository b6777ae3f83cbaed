// Package metricsstore assembles dashboard statistics from a fixed batch
// of independent counters. Counters run in parallel; one that fails is
// logged, reported in Stats.Failed and read as zero, so an overview never
// fails as a whole. Nothing is cached: every call recomputes.
package metricsstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxParallel bounds concurrent counter queries per Assemble call.
const maxParallel = 8

// Value is one counter result. Count counters fill N, money counters fill
// Amount.
type Value struct {
	N      int64
	Amount models.Money
}

// Counter is one independent sub-query.
type Counter struct {
	Name  string
	Fetch func(ctx context.Context) (Value, error)
}

// CountOf adapts a count query into a Counter.
func CountOf(name string, fn func(ctx context.Context) (int64, error)) Counter {
	return Counter{Name: name, Fetch: func(ctx context.Context) (Value, error) {
		n, err := fn(ctx)
		return Value{N: n}, err
	}}
}

// AmountOf adapts a money query into a Counter.
func AmountOf(name string, fn func(ctx context.Context) (models.Money, error)) Counter {
	return Counter{Name: name, Fetch: func(ctx context.Context) (Value, error) {
		m, err := fn(ctx)
		return Value{Amount: m}, err
	}}
}

// Stats holds every counter's value, keyed by name. Failed lists, sorted,
// the counters that were defaulted to zero.
type Stats struct {
	Values map[string]Value
	Failed []string
}

// N returns the count for name, zero when absent.
func (s Stats) N(name string) int64 { return s.Values[name].N }

// Amount returns the money value for name, zero when absent.
func (s Stats) Amount(name string) models.Money {
	v, ok := s.Values[name]
	if !ok {
		return models.MoneyFromInt(0)
	}
	return v.Amount
}

// Assemble runs every counter concurrently and folds the results. Each
// goroutine writes only its own slot. A counter that errors or panics is
// zeroed and named in Failed; the others are unaffected.
func Assemble(ctx context.Context, counters []Counter, logger *zap.Logger) Stats {
	if logger == nil {
		logger = zap.NewNop()
	}
	type slot struct {
		v   Value
		err error
	}
	slots := make([]slot, len(counters))

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, c := range counters {
		g.Go(func() error {
			v, err := safeFetch(ctx, c)
			slots[i] = slot{v: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := Stats{Values: make(map[string]Value, len(counters)), Failed: []string{}}
	for i, c := range counters {
		if err := slots[i].err; err != nil {
			logger.Warn("stats counter failed; using zero",
				zap.String("counter", c.Name), zap.Error(err))
			out.Values[c.Name] = Value{Amount: models.MoneyFromInt(0)}
			out.Failed = append(out.Failed, c.Name)
			continue
		}
		out.Values[c.Name] = slots[i].v
	}
	sort.Strings(out.Failed)
	return out
}

func safeFetch(ctx context.Context, c Counter) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("counter %s panicked: %v", c.Name, r)
		}
	}()
	return c.Fetch(ctx)
}
