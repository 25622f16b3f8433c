// Package feed loads leaderboard boards from a running API and keeps only
// the most recently requested one.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
)

const (
	DefaultTimeout = 15 * time.Second
	maxErrBody     = 500
)

var (
	ErrTimeout    = errors.New("request timed out")
	ErrSuperseded = errors.New("superseded by a newer request")
	ErrFetch      = errors.New("failed to fetch leaderboard data")
)

type Fetcher interface {
	Fetch(ctx context.Context, params leaderboard.Params) (leaderboard.Board, error)
}

// HTTPSource reads boards from GET {base}/api/leaderboard.
type HTTPSource struct {
	base string
	http *http.Client
}

func NewHTTPSource(base string, hc *http.Client) *HTTPSource {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPSource{base: strings.TrimRight(base, "/"), http: hc}
}

func (s *HTTPSource) Fetch(ctx context.Context, params leaderboard.Params) (leaderboard.Board, error) {
	q := url.Values{}
	q.Set("plots", strconv.Itoa(params.Plots))
	q.Set("fortune", strconv.FormatFloat(params.Fortune, 'f', -1, 64))
	q.Set("gh_upgrade", strconv.Itoa(params.GreenhouseUpgrades))
	q.Set("unique_crops", strconv.Itoa(params.UniqueCrops))
	if params.SetupSide != "" {
		q.Set("setup_side", string(params.SetupSide))
	}
	if params.SellSide != "" {
		q.Set("sell_side", string(params.SellSide))
	}
	endpoint := s.base + "/api/leaderboard?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return leaderboard.Board{}, fmt.Errorf("creating request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return leaderboard.Board{}, fmt.Errorf("executing GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return leaderboard.Board{}, fmt.Errorf("%w: status %d: %s", ErrFetch, resp.StatusCode, strings.TrimSpace(string(sample)))
	}
	var board leaderboard.Board
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return leaderboard.Board{}, fmt.Errorf("decoding leaderboard: %w", err)
	}
	return board, nil
}

// State is what a dashboard renders. Board keeps the last good result
// while a newer request is loading or after it failed.
type State struct {
	Board   leaderboard.Board `json:"board"`
	Err     error             `json:"-"`
	Loading bool              `json:"loading"`
	Seq     uint64            `json:"seq"`
}

// Loader issues one fetch per parameter change. Starting a load cancels the
// previous one, and a result is published only if no newer load started
// after it.
type Loader struct {
	src     Fetcher
	timeout time.Duration
	log     *slog.Logger

	mu         sync.Mutex
	seq        uint64
	cancel     context.CancelFunc
	state      State
	superseded int
}

type LoaderOption func(*Loader)

func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

func NewLoader(src Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{src: src, timeout: DefaultTimeout, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the board for params and blocks until the fetch ends. It
// returns ErrSuperseded, without touching State, when another Load started
// in the meantime.
func (l *Loader) Load(ctx context.Context, params leaderboard.Params) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	l.cancel = cancel
	l.state.Loading = true
	l.state.Err = nil
	l.state.Seq = seq
	l.mu.Unlock()
	defer cancel()

	board, err := l.src.Fetch(ctx, params)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ErrTimeout
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		l.superseded++
		l.log.Debug("dropping stale leaderboard result", "seq", seq, "latest", l.seq)
		return ErrSuperseded
	}
	l.cancel = nil
	l.state.Loading = false
	if err != nil {
		l.state.Err = err
		l.log.Warn("leaderboard load failed", "seq", seq, "err", err)
		return err
	}
	l.state.Board = board
	return nil
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Superseded counts results dropped because a newer load had started.
func (l *Loader) Superseded() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.superseded
}
