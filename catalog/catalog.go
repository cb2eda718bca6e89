// Package catalog loads the static progression content (levels, achievements, badges,
// level benefits and challenges) from TOML and seeds it into the database.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"wellness-progression/models"

	"github.com/gosimple/slug"
	"github.com/pelletier/go-toml/v2"
)

//go:embed default.toml
var defaultCatalog []byte

type Catalog struct {
	Levels       []LevelEntry       `toml:"levels"`
	Achievements []AchievementEntry `toml:"achievements"`
	Badges       []BadgeEntry       `toml:"badges"`
	Benefits     []BenefitEntry     `toml:"benefits"`
	Challenges   []ChallengeEntry   `toml:"challenges"`
}

// LevelEntry omits max_points on the open-ended top tier.
type LevelEntry struct {
	Level     int    `toml:"level"`
	MinPoints int64  `toml:"min_points"`
	MaxPoints *int64 `toml:"max_points"`
	Title     string `toml:"title"`
}

type ConditionEntry struct {
	Kind        string `toml:"kind"`
	Value       int    `toml:"value"`
	Consecutive bool   `toml:"consecutive"`
}

type RequirementsEntry struct {
	Mode       string           `toml:"mode"`
	Conditions []ConditionEntry `toml:"conditions"`
}

type AchievementEntry struct {
	Code         string            `toml:"code"`
	Name         string            `toml:"name"`
	Description  string            `toml:"description"`
	Category     string            `toml:"category"`
	Points       int64             `toml:"points"`
	Icon         string            `toml:"icon"`
	Requirements RequirementsEntry `toml:"requirements"`
}

type BadgeEntry struct {
	Code             string `toml:"code"`
	Name             string `toml:"name"`
	Description      string `toml:"description"`
	Rarity           string `toml:"rarity"`
	Category         string `toml:"category"`
	Points           int64  `toml:"points"`
	RequirementCount int    `toml:"requirement_count"`
	IconURL          string `toml:"icon_url"`
}

type BenefitEntry struct {
	Code          string                 `toml:"code"`
	Name          string                 `toml:"name"`
	Description   string                 `toml:"description"`
	LevelRequired int                    `toml:"level_required"`
	BenefitType   string                 `toml:"benefit_type"`
	PointsCost    int64                  `toml:"points_cost"`
	ExpiresInDays int                    `toml:"expires_in_days"`
	Data          map[string]interface{} `toml:"data"`
	Inactive      bool                   `toml:"inactive"`
}

type ChallengeEntry struct {
	Code         string                 `toml:"code"`
	Title        string                 `toml:"title"`
	Description  string                 `toml:"description"`
	Points       int64                  `toml:"points"`
	Difficulty   string                 `toml:"difficulty"`
	Category     string                 `toml:"category"`
	DurationDays int                    `toml:"duration_days"`
	Requirements map[string]interface{} `toml:"requirements"`
	Inactive     bool                   `toml:"inactive"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.fillCodes(); err != nil {
		return nil, err
	}
	return &c, nil
}

// fillCodes derives missing codes from names and rejects duplicates per section.
func (c *Catalog) fillCodes() error {
	seen := map[string]map[string]bool{}
	claim := func(section, code, name string) (string, error) {
		if code == "" {
			code = slug.Make(name)
		}
		if code == "" {
			return "", fmt.Errorf("catalog %s entry %q has no code", section, name)
		}
		if seen[section] == nil {
			seen[section] = map[string]bool{}
		}
		if seen[section][code] {
			return "", fmt.Errorf("catalog %s: duplicate code %q", section, code)
		}
		seen[section][code] = true
		return code, nil
	}

	var err error
	for i := range c.Achievements {
		if c.Achievements[i].Code, err = claim("achievements", c.Achievements[i].Code, c.Achievements[i].Name); err != nil {
			return err
		}
	}
	for i := range c.Badges {
		if c.Badges[i].Code, err = claim("badges", c.Badges[i].Code, c.Badges[i].Name); err != nil {
			return err
		}
	}
	for i := range c.Benefits {
		if c.Benefits[i].Code, err = claim("benefits", c.Benefits[i].Code, c.Benefits[i].Name); err != nil {
			return err
		}
	}
	for i := range c.Challenges {
		if c.Challenges[i].Code, err = claim("challenges", c.Challenges[i].Code, c.Challenges[i].Title); err != nil {
			return err
		}
	}
	return nil
}

// LevelTable validates and returns the catalog's tiers. An empty section yields the
// built-in table.
func (c *Catalog) LevelTable() (models.LevelTable, error) {
	if len(c.Levels) == 0 {
		return models.DefaultLevelTable(), nil
	}
	levels := make([]models.Level, len(c.Levels))
	for i, e := range c.Levels {
		max := models.OpenEnded
		if e.MaxPoints != nil {
			max = *e.MaxPoints
		}
		levels[i] = models.Level{Level: e.Level, MinPoints: e.MinPoints, MaxPoints: max, Title: e.Title}
	}
	return models.NewLevelTable(levels)
}

func (e AchievementEntry) Model() (models.Achievement, error) {
	req := models.Requirements{Mode: models.MatchMode(e.Requirements.Mode)}
	switch req.Mode {
	case "":
		req.Mode = models.MatchAny
	case models.MatchAny, models.MatchAll:
	default:
		return models.Achievement{}, fmt.Errorf("achievement %s: unknown mode %q", e.Code, e.Requirements.Mode)
	}
	for _, cond := range e.Requirements.Conditions {
		r, err := models.NewRequirement(models.RequirementKind(cond.Kind), cond.Value, cond.Consecutive)
		if err != nil {
			return models.Achievement{}, fmt.Errorf("achievement %s: %w", e.Code, err)
		}
		req.Conditions = append(req.Conditions, r)
	}
	return models.Achievement{
		Code:         e.Code,
		Name:         e.Name,
		Description:  e.Description,
		Category:     e.Category,
		Points:       e.Points,
		Icon:         e.Icon,
		Requirements: req,
	}, nil
}

func (e BadgeEntry) Model() (models.Badge, error) {
	rarity := models.BadgeRarity(e.Rarity)
	if rarity == "" {
		rarity = models.RarityCommon
	}
	if !rarity.Valid() {
		return models.Badge{}, fmt.Errorf("badge %s: unknown rarity %q", e.Code, e.Rarity)
	}
	count := e.RequirementCount
	if count < 1 {
		count = 1
	}
	return models.Badge{
		Code:             e.Code,
		Name:             e.Name,
		Description:      e.Description,
		IconURL:          e.IconURL,
		Rarity:           rarity,
		Category:         e.Category,
		Points:           e.Points,
		RequirementCount: count,
	}, nil
}

// Model folds points_cost and expires_in_days into benefit_data, where the engine reads them.
func (e BenefitEntry) Model() (models.LevelBenefit, error) {
	data := map[string]interface{}{}
	for k, v := range e.Data {
		data[k] = v
	}
	if e.PointsCost > 0 {
		data["points_cost"] = e.PointsCost
	}
	if e.ExpiresInDays > 0 {
		data["expires_in_days"] = e.ExpiresInDays
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return models.LevelBenefit{}, fmt.Errorf("benefit %s: %w", e.Code, err)
	}
	level := e.LevelRequired
	if level < 1 {
		level = 1
	}
	return models.LevelBenefit{
		Code:          e.Code,
		Name:          e.Name,
		Description:   e.Description,
		LevelRequired: level,
		BenefitType:   e.BenefitType,
		BenefitData:   models.JSON(raw),
		IsActive:      !e.Inactive,
	}, nil
}

func (e ChallengeEntry) Model() (models.Challenge, error) {
	difficulty := models.ChallengeDifficulty(e.Difficulty)
	switch difficulty {
	case "":
		difficulty = models.DifficultyEasy
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return models.Challenge{}, fmt.Errorf("challenge %s: unknown difficulty %q", e.Code, e.Difficulty)
	}
	var reqs models.JSON
	if len(e.Requirements) > 0 {
		raw, err := json.Marshal(e.Requirements)
		if err != nil {
			return models.Challenge{}, fmt.Errorf("challenge %s: %w", e.Code, err)
		}
		reqs = models.JSON(raw)
	}
	duration := e.DurationDays
	if duration < 1 {
		duration = 7
	}
	return models.Challenge{
		Code:         e.Code,
		Title:        e.Title,
		Description:  e.Description,
		Points:       e.Points,
		Difficulty:   difficulty,
		Category:     e.Category,
		Requirements: reqs,
		DurationDays: duration,
		IsActive:     !e.Inactive,
	}, nil
}
