package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type RequirementKind string

const (
	KindLevel               RequirementKind = "level"
	KindMealsLogged         RequirementKind = "meals_logged"
	KindChallengesCompleted RequirementKind = "challenges_completed"
	KindDailyLogs           RequirementKind = "daily_logs"
	KindWaterGoalMet        RequirementKind = "water_goal_met"
)

// Requirement is a closed set of achievement conditions. Only the types in this file implement it.
type Requirement interface {
	Kind() RequirementKind
	Threshold() int
	isRequirement()
}

type LevelAtLeast struct{ Level int }
type MealsLoggedAtLeast struct{ Count int }
type ChallengesCompletedAtLeast struct{ Count int }

// StreakAtLeast compares the current streak when Consecutive is set, the longest streak otherwise.
type StreakAtLeast struct {
	Days        int
	Consecutive bool
}

// WaterGoalDaysAtLeast counts logs that reached WaterGoalCups.
type WaterGoalDaysAtLeast struct{ Days int }

func (LevelAtLeast) Kind() RequirementKind               { return KindLevel }
func (MealsLoggedAtLeast) Kind() RequirementKind         { return KindMealsLogged }
func (ChallengesCompletedAtLeast) Kind() RequirementKind { return KindChallengesCompleted }
func (StreakAtLeast) Kind() RequirementKind              { return KindDailyLogs }
func (WaterGoalDaysAtLeast) Kind() RequirementKind       { return KindWaterGoalMet }

func (r LevelAtLeast) Threshold() int               { return r.Level }
func (r MealsLoggedAtLeast) Threshold() int         { return r.Count }
func (r ChallengesCompletedAtLeast) Threshold() int { return r.Count }
func (r StreakAtLeast) Threshold() int              { return r.Days }
func (r WaterGoalDaysAtLeast) Threshold() int       { return r.Days }

func (LevelAtLeast) isRequirement()               {}
func (MealsLoggedAtLeast) isRequirement()         {}
func (ChallengesCompletedAtLeast) isRequirement() {}
func (StreakAtLeast) isRequirement()              {}
func (WaterGoalDaysAtLeast) isRequirement()       {}

// WaterGoalCups is the daily water intake that counts as meeting the goal.
const WaterGoalCups = 8

// ActivitySnapshot is the per-user activity an evaluation runs against.
type ActivitySnapshot struct {
	Level               int   `json:"level"`
	TotalPoints         int64 `json:"total_points"`
	MealsLogged         int   `json:"meals_logged"`
	ChallengesCompleted int   `json:"challenges_completed"`
	CurrentStreak       int   `json:"current_streak"`
	LongestStreak       int   `json:"longest_streak"`
	WaterGoalDays       int   `json:"water_goal_days"`
}

// Satisfies reports whether a single requirement holds for the snapshot.
func (s ActivitySnapshot) Satisfies(r Requirement) bool {
	switch req := r.(type) {
	case LevelAtLeast:
		return s.Level >= req.Level
	case MealsLoggedAtLeast:
		return s.MealsLogged >= req.Count
	case ChallengesCompletedAtLeast:
		return s.ChallengesCompleted >= req.Count
	case StreakAtLeast:
		if req.Consecutive {
			return s.CurrentStreak >= req.Days
		}
		return s.LongestStreak >= req.Days
	case WaterGoalDaysAtLeast:
		return s.WaterGoalDays >= req.Days
	default:
		panic(fmt.Sprintf("unhandled requirement %T", r))
	}
}

type MatchMode string

const (
	// MatchAny unlocks when any single condition holds.
	MatchAny MatchMode = "any"
	// MatchAll unlocks only when every condition holds.
	MatchAll MatchMode = "all"
)

// Requirements is the condition set of an achievement.
type Requirements struct {
	Mode       MatchMode
	Conditions []Requirement
}

func AnyOf(conds ...Requirement) Requirements {
	return Requirements{Mode: MatchAny, Conditions: conds}
}

func AllOf(conds ...Requirement) Requirements {
	return Requirements{Mode: MatchAll, Conditions: conds}
}

// Evaluate never unlocks an empty condition set.
func (r Requirements) Evaluate(s ActivitySnapshot) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	if r.Mode == MatchAll {
		for _, c := range r.Conditions {
			if !s.Satisfies(c) {
				return false
			}
		}
		return true
	}
	for _, c := range r.Conditions {
		if s.Satisfies(c) {
			return true
		}
	}
	return false
}

type conditionJSON struct {
	Kind        RequirementKind `json:"kind"`
	Value       int             `json:"value"`
	Consecutive bool            `json:"consecutive,omitempty"`
}

type requirementsJSON struct {
	Mode       MatchMode       `json:"mode"`
	Conditions []conditionJSON `json:"conditions"`
}

// legacyRequirements is the flat object form: every present field is one condition, OR'd.
type legacyRequirements struct {
	Level               *int  `json:"level"`
	MealsLogged         *int  `json:"meals_logged"`
	ChallengesCompleted *int  `json:"challenges_completed"`
	DailyLogs           *int  `json:"daily_logs"`
	Consecutive         *bool `json:"consecutive"`
	WaterGoalMet        *int  `json:"water_goal_met"`
}

func (l legacyRequirements) toRequirements() Requirements {
	r := Requirements{Mode: MatchAny}
	if l.Level != nil {
		r.Conditions = append(r.Conditions, LevelAtLeast{Level: *l.Level})
	}
	if l.MealsLogged != nil {
		r.Conditions = append(r.Conditions, MealsLoggedAtLeast{Count: *l.MealsLogged})
	}
	if l.ChallengesCompleted != nil {
		r.Conditions = append(r.Conditions, ChallengesCompletedAtLeast{Count: *l.ChallengesCompleted})
	}
	if l.DailyLogs != nil {
		r.Conditions = append(r.Conditions, StreakAtLeast{Days: *l.DailyLogs, Consecutive: l.Consecutive != nil && *l.Consecutive})
	}
	if l.WaterGoalMet != nil {
		r.Conditions = append(r.Conditions, WaterGoalDaysAtLeast{Days: *l.WaterGoalMet})
	}
	return r
}

// NewRequirement builds one condition from its kind and threshold.
func NewRequirement(kind RequirementKind, value int, consecutive bool) (Requirement, error) {
	return conditionFromJSON(conditionJSON{Kind: kind, Value: value, Consecutive: consecutive})
}

func conditionFromJSON(c conditionJSON) (Requirement, error) {
	switch c.Kind {
	case KindLevel:
		return LevelAtLeast{Level: c.Value}, nil
	case KindMealsLogged:
		return MealsLoggedAtLeast{Count: c.Value}, nil
	case KindChallengesCompleted:
		return ChallengesCompletedAtLeast{Count: c.Value}, nil
	case KindDailyLogs:
		return StreakAtLeast{Days: c.Value, Consecutive: c.Consecutive}, nil
	case KindWaterGoalMet:
		return WaterGoalDaysAtLeast{Days: c.Value}, nil
	}
	return nil, fmt.Errorf("unknown requirement kind %q", c.Kind)
}

func (r Requirements) MarshalJSON() ([]byte, error) {
	out := requirementsJSON{Mode: r.Mode, Conditions: make([]conditionJSON, 0, len(r.Conditions))}
	if out.Mode == "" {
		out.Mode = MatchAny
	}
	for _, c := range r.Conditions {
		cj := conditionJSON{Kind: c.Kind(), Value: c.Threshold()}
		if s, ok := c.(StreakAtLeast); ok {
			cj.Consecutive = s.Consecutive
		}
		out.Conditions = append(out.Conditions, cj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both {"mode":..,"conditions":[..]} and the flat legacy object.
func (r *Requirements) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = Requirements{Mode: MatchAny}
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("requirements: %w", err)
	}
	if _, ok := probe["conditions"]; !ok {
		var legacy legacyRequirements
		if err := json.Unmarshal(data, &legacy); err != nil {
			return fmt.Errorf("requirements: %w", err)
		}
		*r = legacy.toRequirements()
		return nil
	}

	var raw requirementsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("requirements: %w", err)
	}
	out := Requirements{Mode: raw.Mode}
	switch out.Mode {
	case "":
		out.Mode = MatchAny
	case MatchAny, MatchAll:
	default:
		return fmt.Errorf("requirements: unknown mode %q", raw.Mode)
	}
	for _, c := range raw.Conditions {
		cond, err := conditionFromJSON(c)
		if err != nil {
			return fmt.Errorf("requirements: %w", err)
		}
		out.Conditions = append(out.Conditions, cond)
	}
	*r = out
	return nil
}

func (r Requirements) Value() (driver.Value, error) {
	b, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Requirements) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = Requirements{Mode: MatchAny}
		return nil
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("unsupported requirements column type %T", value)
}
