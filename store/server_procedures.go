package store

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed procedures.sql
var proceduresSQL string

// InstallServerProcedures creates or replaces the PL/pgSQL functions ServerProcedures calls.
func InstallServerProcedures(ctx context.Context, db *gorm.DB) error {
	for i, stmt := range strings.Split(proceduresSQL, "-- split") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install procedure %d: %w", i, err)
		}
	}
	log.Println("✅ [STORE] Server procedures installed")
	return nil
}

// ServerProcedures delegates to the functions installed by InstallServerProcedures.
// The level recomputation then uses the levels table, so it must be seeded.
type ServerProcedures struct {
	Location *time.Location
	Now      func() time.Time
}

func NewServerProcedures(loc *time.Location) *ServerProcedures {
	if loc == nil {
		loc = time.UTC
	}
	return &ServerProcedures{Location: loc, Now: time.Now}
}

func (p *ServerProcedures) today() string {
	return dayOf(p.Now(), p.Location).Format("2006-01-02")
}

func (p *ServerProcedures) RecordPointsTransaction(ctx context.Context, db *gorm.DB, params PointsTransactionParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	var id string
	err := db.WithContext(ctx).Raw(
		"SELECT record_points_transaction(?::text, ?::bigint, ?::text, ?::text, ?::text, ?::text, ?::jsonb)",
		params.UserID, params.Points, string(params.Type), params.Reason,
		params.ReferenceID, params.ReferenceType, params.Metadata,
	).Scan(&id).Error
	if err != nil {
		return "", fmt.Errorf("record_points_transaction: %w", err)
	}
	return id, nil
}

func (p *ServerProcedures) GetUserStreak(ctx context.Context, db *gorm.DB, userID, streakType string) (int, error) {
	var current int
	err := db.WithContext(ctx).Raw(
		"SELECT get_user_streak(?::text, ?::text, ?::date, ?::text)",
		userID, streakType, p.today(), p.Location.String(),
	).Scan(&current).Error
	if err != nil {
		return 0, fmt.Errorf("get_user_streak: %w", err)
	}
	return current, nil
}

func (p *ServerProcedures) UpdateUserStreak(ctx context.Context, db *gorm.DB, userID, streakType string) (bool, error) {
	var advanced bool
	err := db.WithContext(ctx).Raw(
		"SELECT update_user_streak(?::text, ?::text, ?::date, ?::text)",
		userID, streakType, p.today(), p.Location.String(),
	).Scan(&advanced).Error
	if err != nil {
		return false, fmt.Errorf("update_user_streak: %w", err)
	}
	return advanced, nil
}
