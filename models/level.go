package models

import (
	"errors"
	"fmt"
	"math"
)

// OpenEnded marks the MaxPoints of the final tier.
const OpenEnded int64 = math.MaxInt64

// Level is one tier of the level table: the inclusive point range [MinPoints, MaxPoints].
type Level struct {
	Level     int    `json:"level" toml:"level"`
	MinPoints int64  `json:"min_points" toml:"min_points"`
	MaxPoints int64  `json:"max_points" toml:"max_points"`
	Title     string `json:"title" toml:"title"`
}

func (l Level) Contains(points int64) bool {
	return points >= l.MinPoints && points <= l.MaxPoints
}

// LevelRow is the persisted form of a tier. A NULL max_points is the open-ended top tier.
type LevelRow struct {
	Level     int    `gorm:"primaryKey;autoIncrement:false" json:"level"`
	MinPoints int64  `gorm:"not null" json:"min_points"`
	MaxPoints *int64 `json:"max_points"`
	Title     string `gorm:"not null" json:"title"`
}

func (LevelRow) TableName() string { return "levels" }

func (r LevelRow) ToLevel() Level {
	max := OpenEnded
	if r.MaxPoints != nil {
		max = *r.MaxPoints
	}
	return Level{Level: r.Level, MinPoints: r.MinPoints, MaxPoints: max, Title: r.Title}
}

func LevelRowFrom(l Level) LevelRow {
	row := LevelRow{Level: l.Level, MinPoints: l.MinPoints, Title: l.Title}
	if l.MaxPoints != OpenEnded {
		max := l.MaxPoints
		row.MaxPoints = &max
	}
	return row
}

// LevelTable is an ordered, contiguous list of tiers ending in an open-ended tier.
// Construct with NewLevelTable; the zero value is not usable.
type LevelTable struct {
	levels []Level
}

var (
	ErrEmptyLevelTable = errors.New("level table is empty")
)

// NewLevelTable validates tiers: levels numbered 1..n in order, first tier starts at 0,
// each tier starts right after the previous one ends, last tier is open-ended.
func NewLevelTable(levels []Level) (LevelTable, error) {
	if len(levels) == 0 {
		return LevelTable{}, ErrEmptyLevelTable
	}
	out := make([]Level, len(levels))
	copy(out, levels)

	for i, l := range out {
		if l.Level != i+1 {
			return LevelTable{}, fmt.Errorf("level %d at position %d: levels must be numbered 1..n in order", l.Level, i)
		}
		if l.MaxPoints < l.MinPoints {
			return LevelTable{}, fmt.Errorf("level %d: max_points %d below min_points %d", l.Level, l.MaxPoints, l.MinPoints)
		}
		if i == 0 {
			if l.MinPoints != 0 {
				return LevelTable{}, fmt.Errorf("level 1 must start at 0 points, got %d", l.MinPoints)
			}
			continue
		}
		prev := out[i-1]
		if prev.MaxPoints == OpenEnded || l.MinPoints != prev.MaxPoints+1 {
			return LevelTable{}, fmt.Errorf("level %d: min_points %d does not follow level %d", l.Level, l.MinPoints, prev.Level)
		}
	}
	if out[len(out)-1].MaxPoints != OpenEnded {
		return LevelTable{}, fmt.Errorf("level %d: final tier must be open-ended", out[len(out)-1].Level)
	}
	return LevelTable{levels: out}, nil
}

// MustLevelTable is NewLevelTable for static tables; it panics on an invalid table.
func MustLevelTable(levels []Level) LevelTable {
	t, err := NewLevelTable(levels)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultLevels is the built-in tier list used when neither the database nor the catalog provide one.
var DefaultLevels = []Level{
	{Level: 1, MinPoints: 0, MaxPoints: 99, Title: "Nutrition Novice"},
	{Level: 2, MinPoints: 100, MaxPoints: 249, Title: "Healthy Beginner"},
	{Level: 3, MinPoints: 250, MaxPoints: 499, Title: "Wellness Explorer"},
	{Level: 4, MinPoints: 500, MaxPoints: 999, Title: "Balanced Eater"},
	{Level: 5, MinPoints: 1000, MaxPoints: 1999, Title: "Nutrition Enthusiast"},
	{Level: 6, MinPoints: 2000, MaxPoints: 3499, Title: "Health Champion"},
	{Level: 7, MinPoints: 3500, MaxPoints: 4999, Title: "Wellness Warrior"},
	{Level: 8, MinPoints: 5000, MaxPoints: 7499, Title: "Nutrition Expert"},
	{Level: 9, MinPoints: 7500, MaxPoints: 9999, Title: "Health Master"},
	{Level: 10, MinPoints: 10000, MaxPoints: OpenEnded, Title: "Wellness Legend"},
}

func DefaultLevelTable() LevelTable {
	return MustLevelTable(DefaultLevels)
}

func (t LevelTable) Levels() []Level {
	out := make([]Level, len(t.levels))
	copy(out, t.levels)
	return out
}

func (t LevelTable) MaxLevel() int {
	return t.levels[len(t.levels)-1].Level
}

// CalculateLevel returns the level whose range contains points.
// Negative totals (possible after spends) resolve to level 1.
func (t LevelTable) CalculateLevel(points int64) int {
	if points < 0 {
		return t.levels[0].Level
	}
	for _, l := range t.levels {
		if l.Contains(points) {
			return l.Level
		}
	}
	return t.MaxLevel()
}

// LevelInfo returns the tier for level, or the first tier when level is unknown.
func (t LevelTable) LevelInfo(level int) Level {
	for _, l := range t.levels {
		if l.Level == level {
			return l
		}
	}
	return t.levels[0]
}

// PointsForNextLevel is 0 at the top tier, otherwise the gap to the next tier's min_points.
func (t LevelTable) PointsForNextLevel(points int64) int64 {
	current := t.CalculateLevel(points)
	if current >= t.MaxLevel() {
		return 0
	}
	next := t.LevelInfo(current + 1)
	return next.MinPoints - points
}
