package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Query lines
		{
			ID: "001_query_lines",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&QueryLineRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("query_lines")
			},
		},

		// Migration 002: Recommendation audit records
		{
			ID: "002_recommendations",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&RecommendationRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("recommendations")
			},
		},

		// Migration 003: Interaction tracking (events, selections, engagements)
		{
			ID: "003_interaction_tracking",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&InteractionRow{}); err != nil {
					return err
				}
				if err := tx.AutoMigrate(&SelectionRow{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&EngagementRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("interactions", "selections", "engagements")
			},
		},

		// Migration 004: Structured-call cache
		{
			ID: "004_llm_call_cache",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&LLMCallRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("llm_calls")
			},
		},

		// Migration 005: Processed-content cache
		{
			ID: "005_content_cache",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&ContentRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("processed_content")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}
