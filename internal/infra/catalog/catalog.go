// Package catalog holds the static pod-type and growth-model lookup data
// plus the Birthright kit projection. This is content, not engine state:
// the reconciliation engine only consumes it through domain.StageResolver.
package catalog

import (
	"fmt"
	"time"

	"github.com/algotables/Eden-Pods-POC-v3/internal/domain"
)

// ─── Pod types ──────────────────────────────────────────────────────────────

// PodType describes one seed pod variety.
type PodType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var podTypes = []PodType{
	{ID: "kitchen-herb", Name: "Kitchen Herb Mix", Icon: "🌿", Color: "#22c55e", Description: "Basil, parsley, chive. Daily-harvest herbs for Zone 1."},
	{ID: "salad-green", Name: "Salad Greens", Icon: "🥬", Color: "#84cc16", Description: "Lettuce, rocket, mizuna. Fast growers, cut and come again."},
	{ID: "berry-shrub", Name: "Berry Shrub", Icon: "🫐", Color: "#6366f1", Description: "Currant and gooseberry. Weekly harvest once established."},
	{ID: "bee-flower", Name: "Bee Flower Mix", Icon: "🌻", Color: "#f59e0b", Description: "Phacelia, borage, calendula. Pollinator support."},
	{ID: "root-veg", Name: "Root Vegetables", Icon: "🥕", Color: "#f97316", Description: "Carrot, beet, radish. Seasonal harvest."},
	{ID: "ground-cover", Name: "Ground Cover", Icon: "🍀", Color: "#14b8a6", Description: "Clover and creeping thyme. Self-spreading soil builder."},
}

// PodTypes returns all known pod types.
func PodTypes() []PodType {
	out := make([]PodType, len(podTypes))
	copy(out, podTypes)
	return out
}

// FindPodType looks up a pod type by id.
func FindPodType(id string) (PodType, error) {
	for _, p := range podTypes {
		if p.ID == id {
			return p, nil
		}
	}
	return PodType{}, fmt.Errorf("pod type %q: %w", id, domain.ErrUnknownPodType)
}

// ─── Growth models ──────────────────────────────────────────────────────────

// Stage is one lifecycle stage within a growth model. StartDay is the day
// offset (inclusive) at which the stage begins.
type Stage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	StartDay int    `json:"startDay"`
}

// GrowthModel maps days-since-throw onto lifecycle stages.
type GrowthModel struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Stages       []Stage `json:"stages"`
	MaturityDays int     `json:"maturityDays"` // day at which progress reaches 100%
}

var growthModels = []GrowthModel{
	{
		ID: "temperate-herb", Name: "Temperate Herb", MaturityDays: 90,
		Stages: []Stage{
			{ID: "germination", Name: "Germination", Icon: "🌰", StartDay: 0},
			{ID: "sprout", Name: "Sprout", Icon: "🌱", StartDay: 7},
			{ID: "vegetative", Name: "Vegetative", Icon: "🌿", StartDay: 21},
			{ID: "flowering", Name: "Flowering", Icon: "🌸", StartDay: 45},
			{ID: "fruiting", Name: "Fruiting", Icon: "🍒", StartDay: 65},
			{ID: "spread", Name: "Spread", Icon: "🌳", StartDay: 90},
		},
	},
	{
		ID: "fast-green", Name: "Fast Salad Green", MaturityDays: 40,
		Stages: []Stage{
			{ID: "germination", Name: "Germination", Icon: "🌰", StartDay: 0},
			{ID: "sprout", Name: "Sprout", Icon: "🌱", StartDay: 4},
			{ID: "vegetative", Name: "Vegetative", Icon: "🥬", StartDay: 12},
			{ID: "fruiting", Name: "Harvestable", Icon: "🥗", StartDay: 25},
			{ID: "spread", Name: "Gone to Seed", Icon: "🌾", StartDay: 40},
		},
	},
	{
		ID: "woody-shrub", Name: "Woody Shrub", MaturityDays: 365,
		Stages: []Stage{
			{ID: "germination", Name: "Germination", Icon: "🌰", StartDay: 0},
			{ID: "sprout", Name: "Sprout", Icon: "🌱", StartDay: 14},
			{ID: "vegetative", Name: "Vegetative", Icon: "🌿", StartDay: 60},
			{ID: "flowering", Name: "Flowering", Icon: "🌸", StartDay: 180},
			{ID: "fruiting", Name: "Fruiting", Icon: "🫐", StartDay: 270},
			{ID: "spread", Name: "Spread", Icon: "🌳", StartDay: 365},
		},
	},
}

// Models returns all known growth models.
func Models() []GrowthModel {
	out := make([]GrowthModel, len(growthModels))
	copy(out, growthModels)
	return out
}

// FindModel looks up a growth model by id.
func FindModel(id string) (GrowthModel, error) {
	for _, m := range growthModels {
		if m.ID == id {
			return m, nil
		}
	}
	return GrowthModel{}, fmt.Errorf("growth model %q: %w", id, domain.ErrUnknownGrowthModel)
}

// ─── Stage resolution ───────────────────────────────────────────────────────

// Resolver implements domain.StageResolver against the static catalog.
type Resolver struct{}

// Resolve derives the current stage for a throw date.
func (Resolver) Resolve(throwDate time.Time, growthModelID string) (domain.StageInfo, bool) {
	return ResolveAt(throwDate, growthModelID, time.Now())
}

// ResolveAt is Resolve with an explicit reference time.
func ResolveAt(throwDate time.Time, growthModelID string, now time.Time) (domain.StageInfo, bool) {
	model, err := FindModel(growthModelID)
	if err != nil {
		return domain.StageInfo{}, false
	}

	days := int(now.Sub(throwDate).Hours() / 24)
	if days < 0 {
		days = 0
	}

	current := model.Stages[0]
	for _, s := range model.Stages {
		if days >= s.StartDay {
			current = s
		}
	}

	progress := days * 100 / model.MaturityDays
	if progress > 100 {
		progress = 100
	}

	return domain.StageInfo{
		StageID:         current.ID,
		StageName:       current.Name,
		Icon:            current.Icon,
		ProgressPercent: progress,
		DaysSince:       days,
	}, true
}

// ─── Birthright projection ──────────────────────────────────────────────────

// ProjectionYear is one row of the self-replication projection table.
type ProjectionYear struct {
	Year int    `json:"year"`
	Pods int    `json:"pods"`
	Area string `json:"area"`
}

// spreadFactor is the assumed yearly self-replication multiple for pods
// left to spread.
const spreadFactor = 3

// Projection returns the 7-year spread projection for a kit of the given
// size. Year 0 is the kit itself.
func Projection(kitSize int) []ProjectionYear {
	if kitSize < 1 {
		kitSize = 1
	}

	out := make([]ProjectionYear, 0, 8)
	pods := kitSize
	for year := 0; year <= 7; year++ {
		out = append(out, ProjectionYear{
			Year: year,
			Pods: pods,
			Area: formatArea(pods),
		})
		pods *= spreadFactor
	}
	return out
}

// formatArea estimates ground coverage at roughly 2 m² per plant.
func formatArea(pods int) string {
	m2 := pods * 2
	if m2 >= 10_000 {
		return fmt.Sprintf("%.1f ha", float64(m2)/10_000)
	}
	return fmt.Sprintf("%d m²", m2)
}
