package vocabulary

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Store is the persistence primitive behind the interner. It must return the
// same id for concurrent inserts of one (vocType, uri).
type Store interface {
	InternVocabulary(ctx context.Context, vocType, uri string) (int64, error)
}

// Interner maps vocabulary URIs to stable integer ids, inserting on first use.
// Ids never change once assigned, so cached entries are never invalidated.
type Interner struct {
	store Store
	cache *idCache
	group singleflight.Group
}

// NewInterner creates an interner caching up to cacheSize ids.
func NewInterner(store Store, cacheSize int) *Interner {
	return &Interner{
		store: store,
		cache: newIDCache(cacheSize),
	}
}

// InternOrLookup returns the id of (vocType, uri), creating the element if needed.
func (i *Interner) InternOrLookup(ctx context.Context, vocType, uri string) (int64, error) {
	if vocType == "" || strings.TrimSpace(uri) == "" {
		return 0, fmt.Errorf("vocabulary type and uri are required")
	}

	key := Key{Type: vocType, URI: uri}
	if id, ok := i.cache.get(key); ok {
		return id, nil
	}

	// Concurrent misses for one key share a single store round trip.
	result, err, _ := i.group.Do(vocType+"\x00"+uri, func() (interface{}, error) {
		if id, ok := i.cache.get(key); ok {
			return id, nil
		}

		id, err := i.store.InternVocabulary(ctx, vocType, uri)
		if err != nil {
			return nil, fmt.Errorf("intern %s %q: %w", vocType, uri, err)
		}
		i.cache.put(key, id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// InternOptional interns uri when it is set and returns nil otherwise.
func (i *Interner) InternOptional(ctx context.Context, vocType, uri string) (*int64, error) {
	if uri == "" {
		return nil, nil
	}
	id, err := i.InternOrLookup(ctx, vocType, uri)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// InternAll interns every uri and returns the ids in input order.
func (i *Interner) InternAll(ctx context.Context, vocType string, uris []string) ([]int64, error) {
	ids := make([]int64, 0, len(uris))
	for _, uri := range uris {
		id, err := i.InternOrLookup(ctx, vocType, uri)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Cached reports how many ids are currently held in memory.
func (i *Interner) Cached() int {
	return i.cache.len()
}
