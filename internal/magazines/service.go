package magazines

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
)

// Summary is one entry of the issue list.
type Summary struct {
	Index           uint64 `json:"index"`
	PublishDateText string `json:"publishDateText"`
	ThumbnailURL    string `json:"thumbnailURL"`
	TableOfContents string `json:"tableOfContents"`
}

// Service serves the magazine archive. Page sets are cached per issue.
type Service interface {
	List(ctx context.Context) ([]Summary, error)
	Pages(ctx context.Context, index uint64) (map[int]string, error)
}

type service struct {
	repo  Repository
	cache *lru.Cache
	ttl   time.Duration
	mu    sync.RWMutex
	now   func() time.Time
}

type pagesEntry struct {
	pages     map[int]string
	expiresAt time.Time
}

const defaultCacheTTL = 5 * time.Minute

func NewService(repo Repository, cacheSize int, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "magazine repository required")
	}
	if cacheSize <= 0 {
		cacheSize = 64
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &service{repo: repo, cache: cache, ttl: ttl, now: time.Now}, nil
}

func (s *service) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.repo.ListPublished(ctx, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list magazines")
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summary{
			Index:           row.ID,
			PublishDateText: row.PublishDateText,
			ThumbnailURL:    row.ThumbnailURL,
			TableOfContents: row.TableOfContents,
		})
	}
	return out, nil
}

// Pages returns page number to HTML for a published issue. Unknown or hidden
// issues return an empty map.
func (s *service) Pages(ctx context.Context, index uint64) (map[int]string, error) {
	now := s.now()
	if pages, ok := s.cached(index, now); ok {
		return pages, nil
	}

	rows, err := s.repo.ListPages(ctx, index, now.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list magazine pages")
	}
	pages := make(map[int]string, len(rows))
	for _, row := range rows {
		pages[row.PageNumber] = row.Content
	}

	s.mu.Lock()
	s.cache.Add(index, pagesEntry{pages: pages, expiresAt: now.Add(s.ttl)})
	s.mu.Unlock()
	return pages, nil
}

func (s *service) cached(index uint64, now time.Time) (map[int]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, found := s.cache.Get(index)
	if !found {
		return nil, false
	}
	entry := val.(pagesEntry)
	if now.After(entry.expiresAt) {
		s.cache.Remove(index)
		return nil, false
	}
	return entry.pages, true
}
