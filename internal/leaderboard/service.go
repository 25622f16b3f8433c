package leaderboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"github.com/GiantWizard/wiz/mutations/internal/catalog"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBoardTTL = time.Minute
	buildTimeout    = 30 * time.Second
)

// Service memoizes built boards per parameter set. Boards built while the
// price source was failing are not memoized. Concurrent requests for the
// same parameters share one build, which outlives any single caller's
// context.
type Service struct {
	cat    *catalog.Catalog
	src    bazaar.PriceSource
	boards *cache.Cache
	group  singleflight.Group
	log    *slog.Logger
}

func NewService(cat *catalog.Catalog, src bazaar.PriceSource, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultBoardTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cat:    cat,
		src:    src,
		boards: cache.New(ttl, 2*ttl),
		log:    log,
	}
}

func (s *Service) Board(ctx context.Context, params Params) (Board, error) {
	params = params.Normalize()
	key := params.key()
	if v, ok := s.boards.Get(key); ok {
		return v.(Board), nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()

		start := time.Now()
		board, err := Build(ctx, s.cat, s.src, params)
		if err != nil {
			return Board{}, err
		}
		if board.Warning == "" {
			s.boards.Set(key, board, cache.DefaultExpiration)
		} else {
			s.log.Warn("leaderboard built without prices", "params", key, "warning", board.Warning)
		}
		s.log.Debug("leaderboard built", "params", key, "entries", len(board.Entries), "took", time.Since(start))
		return board, nil
	})

	select {
	case <-ctx.Done():
		return Board{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Board{}, res.Err
		}
		return res.Val.(Board), nil
	}
}
