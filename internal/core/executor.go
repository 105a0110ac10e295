package core

// executor.go runs catalog queries through a read-through cache.
//
// Execution order for one call: resolve template, substitute integer-list
// parameters, append LIMIT (data queries only), bind remaining scalars by
// name, execute. The whole sequence sits behind a memoizing cache keyed by
// (kind, source, canonical parameters, limit); concurrent misses for the same
// key are collapsed with singleflight so the warehouse sees one query.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Executor binds parameters into catalog templates and executes them against
// the database capability.
type Executor struct {
	db           Database
	cache        QueryCache
	resolver     QueryResolver
	ttl          time.Duration
	queryTimeout time.Duration
	group        singleflight.Group
}

// NewExecutor creates an executor. ttl bounds the staleness window of cached
// results; there is no explicit invalidation. queryTimeout caps the run time
// of a single warehouse query; zero means no cap beyond the caller's context.
func NewExecutor(db Database, cache QueryCache, resolver QueryResolver, ttl, queryTimeout time.Duration) *Executor {
	return &Executor{
		db:           db,
		cache:        cache,
		resolver:     resolver,
		ttl:          ttl,
		queryTimeout: queryTimeout,
	}
}

// Execute runs the (kind, source) query with the given parameters.
// limit > 0 appends a LIMIT clause to data queries; count queries ignore it.
func (e *Executor) Execute(ctx context.Context, kind QueryKind, sourceKey string, params ParamMap, limit int) (*TabularResult, error) {
	key := cacheKey(kind, sourceKey, params, limit)

	if cached, err := e.cache.Get(ctx, key); err != nil {
		slog.Warn("query cache read failed", "key", key, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	result, err, _ := e.group.Do(key, func() (any, error) {
		return e.run(ctx, kind, sourceKey, params, limit, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*TabularResult), nil
}

// Count runs the count query and returns the estimated row count.
// An empty count result is treated as zero rows.
func (e *Executor) Count(ctx context.Context, sourceKey string, params ParamMap) (int64, error) {
	result, err := e.Execute(ctx, KindCount, sourceKey, params, 0)
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0, nil
	}
	return coerceInt64(result.Rows[0][0])
}

func (e *Executor) run(ctx context.Context, kind QueryKind, sourceKey string, params ParamMap, limit int, key string) (*TabularResult, error) {
	template, err := e.resolver.Query(sourceKey, kind)
	if err != nil {
		return nil, err
	}

	sql, scalars := ExpandListParams(template, params)

	if limit > 0 && kind == KindData {
		sql = fmt.Sprintf("%s LIMIT %d", sql, limit)
	}

	bound, args := BindNamed(sql, scalars)

	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	result, err := e.db.Query(ctx, bound, args...)
	if err != nil {
		return nil, err
	}

	if cacheErr := e.cache.Set(ctx, key, result, e.ttl); cacheErr != nil {
		slog.Warn("query cache write failed", "key", key, "error", cacheErr)
	}

	return result, nil
}

// cacheKey canonicalizes a query invocation. Parameter order is normalized by
// sorting keys so logically identical maps share an entry.
func cacheKey(kind QueryKind, sourceKey string, params ParamMap, limit int) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d", kind, sourceKey, limit)
	for _, name := range names {
		fmt.Fprintf(&b, "|%s=%v", name, params[name])
	}
	return b.String()
}

// coerceInt64 normalizes the count cell across drivers and the JSON round
// trip of the cache (numbers decode as float64).
func coerceInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		var out int64
		if _, err := fmt.Sscanf(n, "%d", &out); err != nil {
			return 0, fmt.Errorf("%w: non-numeric count value %q", ErrQueryFailed, n)
		}
		return out, nil
	default:
		return 0, fmt.Errorf("%w: unexpected count type %T", ErrQueryFailed, v)
	}
}
