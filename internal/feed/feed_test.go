package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context, params leaderboard.Params) (leaderboard.Board, error)

func (f fetchFunc) Fetch(ctx context.Context, params leaderboard.Params) (leaderboard.Board, error) {
	return f(ctx, params)
}

func boardFor(p leaderboard.Params) leaderboard.Board {
	return leaderboard.Board{Params: p, CycleTimeHours: 1.8}
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/leaderboard", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("plots"))
		assert.Equal(t, "2500", q.Get("fortune"))
		assert.Equal(t, "9", q.Get("gh_upgrade"))
		assert.Equal(t, "12", q.Get("unique_crops"))
		_ = json.NewEncoder(w).Encode(leaderboard.Board{
			CycleTimeHours: 1.8,
			Entries:        []leaderboard.Entry{{Mutation: "Ashwreath", ProfitPerBatch: 10}},
		})
	}))
	defer srv.Close()

	board, err := NewHTTPSource(srv.URL+"/", nil).Fetch(context.Background(), leaderboard.Params{
		Plots: 2, Fortune: 2500, GreenhouseUpgrades: 9, UniqueCrops: 12,
	})
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Ashwreath", board.Entries[0].Mutation)
}

func TestHTTPSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, nil).Fetch(context.Background(), leaderboard.DefaultParams())
	assert.ErrorIs(t, err, ErrFetch)
}

func TestLoaderPublishesResult(t *testing.T) {
	l := NewLoader(fetchFunc(func(ctx context.Context, p leaderboard.Params) (leaderboard.Board, error) {
		return boardFor(p), nil
	}))

	require.NoError(t, l.Load(context.Background(), leaderboard.Params{Plots: 3}))
	st := l.State()
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)
	assert.Equal(t, uint64(1), st.Seq)
	assert.Equal(t, 3, st.Board.Params.Plots)
}

func TestLoaderCancelsSupersededRequest(t *testing.T) {
	started := make(chan struct{})
	l := NewLoader(fetchFunc(func(ctx context.Context, p leaderboard.Params) (leaderboard.Board, error) {
		if p.Plots == 1 {
			close(started)
			<-ctx.Done()
			return leaderboard.Board{}, ctx.Err()
		}
		return boardFor(p), nil
	}))

	first := make(chan error, 1)
	go func() { first <- l.Load(context.Background(), leaderboard.Params{Plots: 1}) }()
	<-started

	require.NoError(t, l.Load(context.Background(), leaderboard.Params{Plots: 2}))
	assert.ErrorIs(t, <-first, ErrSuperseded)

	st := l.State()
	assert.Equal(t, 2, st.Board.Params.Plots)
	assert.Equal(t, uint64(2), st.Seq)
	assert.NoError(t, st.Err)
	assert.Equal(t, 1, l.Superseded())
}

func TestLoaderIgnoresLateStaleResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	l := NewLoader(fetchFunc(func(ctx context.Context, p leaderboard.Params) (leaderboard.Board, error) {
		if p.Plots == 1 {
			close(started)
			<-release
			return boardFor(p), nil
		}
		return boardFor(p), nil
	}))

	first := make(chan error, 1)
	go func() { first <- l.Load(context.Background(), leaderboard.Params{Plots: 1}) }()
	<-started

	require.NoError(t, l.Load(context.Background(), leaderboard.Params{Plots: 2}))
	close(release)
	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, 2, l.State().Board.Params.Plots)
}

func TestLoaderTimeout(t *testing.T) {
	l := NewLoader(fetchFunc(func(ctx context.Context, p leaderboard.Params) (leaderboard.Board, error) {
		<-ctx.Done()
		return leaderboard.Board{}, ctx.Err()
	}), WithTimeout(20*time.Millisecond))

	err := l.Load(context.Background(), leaderboard.DefaultParams())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.EqualError(t, l.State().Err, "request timed out")
	assert.False(t, l.State().Loading)
}

func TestLoaderKeepsLastBoardOnFailure(t *testing.T) {
	fail := false
	l := NewLoader(fetchFunc(func(ctx context.Context, p leaderboard.Params) (leaderboard.Board, error) {
		if fail {
			return leaderboard.Board{}, errors.New("connection refused")
		}
		return boardFor(p), nil
	}))

	require.NoError(t, l.Load(context.Background(), leaderboard.Params{Plots: 2}))
	fail = true
	require.Error(t, l.Load(context.Background(), leaderboard.Params{Plots: 3}))

	st := l.State()
	assert.EqualError(t, st.Err, "connection refused")
	assert.Equal(t, 2, st.Board.Params.Plots)

	fail = false
	require.NoError(t, l.Load(context.Background(), leaderboard.Params{Plots: 3}))
	assert.NoError(t, l.State().Err, "a new load clears the previous error")
}
