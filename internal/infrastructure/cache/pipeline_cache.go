package cache

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

// Observer receives cache hit/miss signals. Implemented by the pipeline
// metrics; nil disables observation.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// PipelineCache maps (session, filename) keys to built pipelines. Entries
// never expire: a pipeline lives until the process exits. Builds for the
// same key are collapsed through singleflight so the builder runs at most
// once per key, and a failed build stores nothing, leaving the key free for
// a retry.
type PipelineCache struct {
	store    *gocache.Cache
	group    singleflight.Group
	observer Observer
}

func New(observer Observer) *PipelineCache {
	return &PipelineCache{
		store:    gocache.New(gocache.NoExpiration, 0),
		observer: observer,
	}
}

func (c *PipelineCache) GetOrBuild(
	ctx context.Context,
	key domain.CacheKey,
	build func(context.Context) (ports.Pipeline, error),
) (ports.Pipeline, error) {
	id := key.String()
	if cached, ok := c.store.Get(id); ok {
		c.hit()
		return cached.(ports.Pipeline), nil
	}

	built, err, _ := c.group.Do(id, func() (any, error) {
		// A concurrent caller may have finished the build while this one
		// waited on the flight group.
		if cached, ok := c.store.Get(id); ok {
			c.hit()
			return cached, nil
		}
		c.miss()
		pipeline, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if pipeline == nil {
			return nil, fmt.Errorf("pipeline builder returned nil for %s", id)
		}
		c.store.Set(id, pipeline, gocache.NoExpiration)
		return pipeline, nil
	})
	if err != nil {
		return nil, err
	}
	return built.(ports.Pipeline), nil
}

// Get resolves a key without building. Lookups count toward the hit/miss
// metrics the same way GetOrBuild lookups do.
func (c *PipelineCache) Get(key domain.CacheKey) (ports.Pipeline, bool) {
	cached, ok := c.store.Get(key.String())
	if !ok {
		c.miss()
		return nil, false
	}
	c.hit()
	return cached.(ports.Pipeline), true
}

func (c *PipelineCache) hit() {
	if c.observer != nil {
		c.observer.CacheHit()
	}
}

func (c *PipelineCache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss()
	}
}
