package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/GiantWizard/wiz/mutations/internal/fortune"
	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/GiantWizard/wiz/mutations/internal/profit"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	KeyMaxedCrops = "maxedCrops"
	KeySettings   = "dashboardSettings"
)

// Settings is the dashboard's saved input bundle.
type Settings struct {
	Plots              int     `json:"plots"`
	FortuneAFK         float64 `json:"fortuneAfk"`
	FortuneASAP        float64 `json:"fortuneAsap"`
	LinkFortune        bool    `json:"linkFortune"`
	GreenhouseUpgrades int     `json:"ghUpgrade"`
	UniqueCrops        int     `json:"uniqueCrops"`
	HarvestStages      int     `json:"harvestStages"`
	HarvestHours       float64 `json:"harvestHours"`
	BuffCostPerHour    float64 `json:"buffCostPerHour"`
	BuffCostPerHarvest float64 `json:"buffCostPerHarvest"`
	SetupCost          float64 `json:"setupCost"`
	SetupAmortizeHours float64 `json:"setupAmortizeHours"`
}

func DefaultSettings() Settings {
	p := leaderboard.DefaultParams()
	return Settings{
		Plots:              p.Plots,
		FortuneAFK:         p.Fortune,
		FortuneASAP:        p.Fortune,
		LinkFortune:        true,
		GreenhouseUpgrades: p.GreenhouseUpgrades,
		UniqueCrops:        p.UniqueCrops,
	}
}

// Sanitize clamps every field into its domain and applies the fortune link.
func (s Settings) Sanitize() Settings {
	p := leaderboard.Params{
		Plots:              s.Plots,
		GreenhouseUpgrades: s.GreenhouseUpgrades,
		UniqueCrops:        s.UniqueCrops,
	}.Normalize()
	s.Plots = p.Plots
	s.GreenhouseUpgrades = p.GreenhouseUpgrades
	s.UniqueCrops = p.UniqueCrops
	if s.HarvestStages < 0 {
		s.HarvestStages = 0
	}
	s.HarvestHours = profit.NonNegative(s.HarvestHours)
	s.BuffCostPerHour = profit.NonNegative(s.BuffCostPerHour)
	s.BuffCostPerHarvest = profit.NonNegative(s.BuffCostPerHarvest)
	s.SetupCost = profit.NonNegative(s.SetupCost)
	s.SetupAmortizeHours = profit.NonNegative(s.SetupAmortizeHours)

	f := fortune.Fields{AFK: fortune.Sanitize(s.FortuneAFK), ASAP: fortune.Sanitize(s.FortuneASAP)}
	f = fortune.SyncOnToggle(s.LinkFortune, f)
	s.FortuneAFK, s.FortuneASAP = f.AFK, f.ASAP
	return s
}

func (s Settings) Fortunes() fortune.Fields {
	return fortune.Fields{AFK: s.FortuneAFK, ASAP: s.FortuneASAP}
}

// Preferences is the typed layer over a Store. Reads never fail: missing,
// corrupt or unreadable entries yield defaults.
type Preferences struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Preferences {
	if log == nil {
		log = slog.Default()
	}
	return &Preferences{store: store, log: log}
}

func (p *Preferences) load(ctx context.Context, key string) (gjson.Result, bool) {
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.log.Warn("reading preference", "key", key, "err", err)
		return gjson.Result{}, false
	}
	if !ok || !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	return gjson.Parse(raw), true
}

// MaxedCrops returns the saved crop names, sorted and deduplicated.
// Non-string array elements are dropped.
func (p *Preferences) MaxedCrops(ctx context.Context) []string {
	doc, ok := p.load(ctx, KeyMaxedCrops)
	if !ok || !doc.IsArray() {
		return []string{}
	}
	seen := make(map[string]bool)
	crops := []string{}
	for _, v := range doc.Array() {
		if v.Type != gjson.String {
			continue
		}
		name := strings.TrimSpace(v.Str)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		crops = append(crops, name)
	}
	sort.Strings(crops)
	return crops
}

func (p *Preferences) SaveMaxedCrops(ctx context.Context, crops []string) error {
	if crops == nil {
		crops = []string{}
	}
	data, err := json.Marshal(crops)
	if err != nil {
		return fmt.Errorf("encoding maxed crops: %w", err)
	}
	return p.store.Set(ctx, KeyMaxedCrops, string(data))
}

// Settings overlays the saved object onto the defaults. Fields of the wrong
// type discard the whole blob.
func (p *Preferences) Settings(ctx context.Context) Settings {
	def := DefaultSettings()
	doc, ok := p.load(ctx, KeySettings)
	if !ok || !doc.IsObject() {
		return def
	}
	s := def
	if err := json.Unmarshal([]byte(doc.Raw), &s); err != nil {
		p.log.Debug("discarding malformed settings", "err", err)
		return def
	}
	return s.Sanitize()
}

// SaveSettings stores the sanitized settings and returns what was stored.
func (p *Preferences) SaveSettings(ctx context.Context, s Settings) (Settings, error) {
	s = s.Sanitize()
	data, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("encoding settings: %w", err)
	}
	return s, p.store.Set(ctx, KeySettings, string(data))
}

var ErrInvalidPatch = errors.New("settings patch must be a JSON object")

// PatchSettings applies the fields present in patch over the current
// settings and saves the sanitized result. Unknown fields are ignored.
// Fortune fields go through fortune.ApplyChange, so while linked a change
// to either one sets both.
func (p *Preferences) PatchSettings(ctx context.Context, patch []byte) (Settings, error) {
	doc := gjson.ParseBytes(patch)
	if !gjson.ValidBytes(patch) || !doc.IsObject() {
		return Settings{}, ErrInvalidPatch
	}
	cur := p.Settings(ctx)
	merged, err := json.Marshal(cur)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding settings: %w", err)
	}
	doc.ForEach(func(key, value gjson.Result) bool {
		merged, err = sjson.SetRawBytes(merged, key.String(), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return Settings{}, fmt.Errorf("merging settings patch: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(merged, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	f := cur.Fortunes()
	if doc.Get("fortuneAsap").Exists() {
		f = fortune.ApplyChange(fortune.TargetASAP, s.FortuneASAP, s.LinkFortune, f)
	}
	if doc.Get("fortuneAfk").Exists() {
		f = fortune.ApplyChange(fortune.TargetAFK, s.FortuneAFK, s.LinkFortune, f)
	}
	s.FortuneAFK, s.FortuneASAP = f.AFK, f.ASAP
	return p.SaveSettings(ctx, s)
}
