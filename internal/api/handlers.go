package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"github.com/GiantWizard/wiz/mutations/internal/fortune"
	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/GiantWizard/wiz/mutations/internal/prefs"
	"github.com/GiantWizard/wiz/mutations/internal/profit"
	"github.com/tidwall/gjson"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	board, err := s.Boards.Board(r.Context(), params)
	if err != nil {
		s.Log.Error("building leaderboard", "err", err)
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// paramsFromQuery starts from the defaults; absent parameters keep them.
func paramsFromQuery(q url.Values) (leaderboard.Params, error) {
	p := leaderboard.DefaultParams()
	ints := []struct {
		name string
		dst  *int
	}{
		{"plots", &p.Plots},
		{"gh_upgrade", &p.GreenhouseUpgrades},
		{"unique_crops", &p.UniqueCrops},
	}
	for _, f := range ints {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("invalid " + f.name)
		}
		*f.dst = n
	}
	if v := q.Get("fortune"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, errors.New("invalid fortune")
		}
		p.Fortune = f
	}
	if v := q.Get("setup_side"); v != "" {
		p.SetupSide = bazaar.Side(v)
	}
	if v := q.Get("sell_side"); v != "" {
		p.SellSide = bazaar.Side(v)
	}
	return p.Normalize(), nil
}

func (s *Server) handleASAP(w http.ResponseWriter, r *http.Request) {
	var in profit.ASAPInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, profit.ComputeASAP(in))
}

func (s *Server) handleAFK(w http.ResponseWriter, r *http.Request) {
	var in profit.AFKInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, profit.ComputeAFK(in))
}

func (s *Server) handleRebase(w http.ResponseWriter, r *http.Request) {
	var in profit.BatchRebaseInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"coinsPerMutation": profit.CoinsPerMutationFromBatch(in),
	})
}

type stagesRequest struct {
	Hours              float64 `json:"hours"`
	StageDurationHours float64 `json:"stageDurationHours"`
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	var req stagesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	stages := profit.HarvestStagesFromHours(req.Hours, req.StageDurationHours)
	writeJSON(w, http.StatusOK, map[string]any{
		"stages": stages,
		"hours":  profit.HoursForStages(stages, req.StageDurationHours),
	})
}

// scenarioRequest either carries a full scenario or names a mutation whose
// record is taken from the leaderboard built with Params. Strategy fields
// present in the request override the record's, zeros included.
type scenarioRequest struct {
	profit.Scenario
	Mutation string              `json:"mutation,omitempty"`
	Params   *leaderboard.Params `json:"params,omitempty"`
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	var req scenarioRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sc := req.Scenario
	if req.Mutation != "" {
		params := leaderboard.DefaultParams()
		if req.Params != nil {
			params = *req.Params
		}
		board, err := s.Boards.Board(r.Context(), params)
		if err != nil {
			s.Log.Error("building leaderboard for scenario", "err", err)
			writeError(w, http.StatusServiceUnavailable, "leaderboard unavailable")
			return
		}
		entry, ok := board.Entry(req.Mutation)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown mutation "+strconv.Quote(req.Mutation))
			return
		}
		sc = overlayScenario(board.Scenario(entry), req.Scenario, func(field string) bool {
			return gjson.GetBytes(body, field).Exists()
		})
	}
	writeJSON(w, http.StatusOK, profit.Evaluate(sc))
}

func overlayScenario(base, o profit.Scenario, sent func(field string) bool) profit.Scenario {
	fields := []struct {
		name string
		dst  *float64
		v    float64
	}{
		{"plots", &base.Plots, o.Plots},
		{"slotsPerPlot", &base.SlotsPerPlot, o.SlotsPerPlot},
		{"fortuneAsap", &base.FortuneASAP, o.FortuneASAP},
		{"fortuneAfk", &base.FortuneAFK, o.FortuneAFK},
		{"harvestStages", &base.HarvestStages, o.HarvestStages},
		{"harvestHours", &base.HarvestHours, o.HarvestHours},
		{"buffCostPerHour", &base.BuffCostPerHour, o.BuffCostPerHour},
		{"buffCostPerHarvest", &base.BuffCostPerHarvest, o.BuffCostPerHarvest},
		{"setupCost", &base.SetupCost, o.SetupCost},
		{"setupAmortizeHours", &base.SetupAmortizeHours, o.SetupAmortizeHours},
	}
	for _, f := range fields {
		if sent(f.name) {
			*f.dst = f.v
		}
	}
	return base
}

type toggleRequest struct {
	Linked bool           `json:"linked"`
	Fields fortune.Fields `json:"fields"`
}

func (s *Server) handleFortuneToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, fortune.SyncOnToggle(req.Linked, req.Fields))
}

type changeRequest struct {
	Target fortune.Target `json:"target"`
	Value  float64        `json:"value"`
	Linked bool           `json:"linked"`
	Fields fortune.Fields `json:"fields"`
}

func (s *Server) handleFortuneChange(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Target != fortune.TargetAFK && req.Target != fortune.TargetASAP {
		writeError(w, http.StatusBadRequest, "target must be afk or asap")
		return
	}
	writeJSON(w, http.StatusOK, fortune.ApplyChange(req.Target, req.Value, req.Linked, req.Fields))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Prefs.Settings(r.Context()))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in prefs.Settings
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	saved, err := s.Prefs.SaveSettings(r.Context(), in)
	if err != nil {
		s.Log.Error("saving settings", "err", err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	saved, err := s.Prefs.PatchSettings(r.Context(), body)
	if errors.Is(err, prefs.ErrInvalidPatch) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.Log.Error("patching settings", "err", err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetMaxed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Prefs.MaxedCrops(r.Context()))
}

func (s *Server) handlePutMaxed(w http.ResponseWriter, r *http.Request) {
	var crops []string
	if err := decodeJSON(r, &crops); err != nil {
		writeError(w, http.StatusBadRequest, "expected a json array of crop names")
		return
	}
	if err := s.Prefs.SaveMaxedCrops(r.Context(), crops); err != nil {
		s.Log.Error("saving maxed crops", "err", err)
		writeError(w, http.StatusInternalServerError, "could not save maxed crops")
		return
	}
	writeJSON(w, http.StatusOK, s.Prefs.MaxedCrops(r.Context()))
}
