// Package query caches read results under composite keys and refetches them
// after writes invalidate the key's name.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Key identifies a read: the operation name plus its parameters.
// Invalidation works on the name and drops every parameterization at once.
type Key struct {
	Name   string
	Params []string
}

func NewKey(name string, params ...string) Key {
	return Key{Name: name, Params: params}
}

func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Name
	}
	escaped := make([]string, len(k.Params))
	for i, p := range k.Params {
		escaped[i] = url.QueryEscape(p)
	}
	return k.Name + "?" + strings.Join(escaped, "&")
}

type Options struct {
	Prefix       string
	StaleTime    time.Duration
	FetchTimeout time.Duration
}

type Client struct {
	store        Store
	group        singleflight.Group
	prefix       string
	staleTime    time.Duration
	fetchTimeout time.Duration
	log          *zap.Logger
}

func NewClient(store Store, opts Options, log *zap.Logger) *Client {
	if opts.Prefix == "" {
		opts.Prefix = "paperarchive:query"
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = 5 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	return &Client{
		store:        store,
		prefix:       opts.Prefix,
		staleTime:    opts.StaleTime,
		fetchTimeout: opts.FetchTimeout,
		log:          log,
	}
}

func (c *Client) generationKey(name string) string {
	return c.prefix + ":gen:" + name
}

func (c *Client) entryPrefix(name string, gen int64) string {
	return fmt.Sprintf("%s:%s:%d:", c.prefix, name, gen)
}

func (c *Client) generation(ctx context.Context, name string) (int64, error) {
	b, err := c.store.Get(ctx, c.generationKey(name))
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

// Invalidate makes every cached key under the given names stale. Results of
// fetches that started before the call are written under the old generation
// and are never read again.
func (c *Client) Invalidate(ctx context.Context, names ...string) error {
	var errs []error
	for _, name := range names {
		gen, err := c.store.Incr(ctx, c.generationKey(name))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", name, err))
			continue
		}
		// Entries of the previous generation are unreachable now. A fetch still
		// in flight may write one back; the stale time expires it.
		if _, err := c.store.DeletePrefix(ctx, c.entryPrefix(name, gen-1)); err != nil {
			c.log.Warn("dropping stale query entries failed", zap.String("name", name), zap.Error(err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.log.Error("query invalidation failed", zap.Strings("names", names), zap.Error(err))
		return err
	}
	return nil
}

// Fetch returns the cached value for key or runs fn to load it. Concurrent
// callers for the same key share a single fn call. fn runs detached from the
// caller's cancellation (bounded by the fetch timeout) so one caller giving up
// does not fail the others; that caller just stops waiting. Errors are not cached.
// The returned value may be shared between callers and must not be mutated.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	cacheable := true
	gen, err := c.generation(ctx, key.Name)
	if err != nil {
		cacheable = false
		c.log.Warn("query cache unavailable, reading through", zap.String("key", key.String()), zap.Error(err))
	}
	cacheKey := c.entryPrefix(key.Name, gen) + key.String()

	if cacheable {
		b, err := c.store.Get(ctx, cacheKey)
		switch {
		case err == nil:
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, nil
			}
			c.log.Warn("discarding undecodable cache entry", zap.String("key", cacheKey))
		case !errors.Is(err, ErrCacheMiss):
			c.log.Warn("query cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	ch := c.group.DoChan(cacheKey, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		v, err := fn(fctx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if b, err := json.Marshal(v); err != nil {
				c.log.Warn("query result not cacheable", zap.String("key", cacheKey), zap.Error(err))
			} else if err := c.store.Set(fctx, cacheKey, b, c.staleTime); err != nil {
				c.log.Warn("query cache write failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
