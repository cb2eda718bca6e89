package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrBenefitNotUnlocked     = errors.New("level benefit not found or not unlocked")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrChallengeInProgress    = errors.New("challenge already in progress")
	ErrChallengeNotInProgress = errors.New("challenge not found or not in progress")
	ErrChallengeInactive      = errors.New("challenge is not active")
	ErrBadgeLocked            = errors.New("badge is not unlocked")
	ErrInvalidLog             = errors.New("invalid nutrition log")
)

// LevelRequirementError is returned when a user's level is below a benefit's requirement.
type LevelRequirementError struct {
	UserLevel     int
	RequiredLevel int
}

func (e *LevelRequirementError) Error() string {
	return fmt.Sprintf("user level %d is below required level %d", e.UserLevel, e.RequiredLevel)
}
