// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package lead

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// FunctionName is the tool name the speech model calls to hand over a
// captured lead.
const FunctionName = "capture_lead"

// Lead is one contact captured during a conversation.
type Lead struct {
	ID        string `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	Name      string
	Phone     string
	Email     string
	Notes     string
	CreatedAt time.Time
}

// FromArguments builds a Lead from the model's function-call arguments
// payload. Missing fields are left empty; a lead with no contact detail at
// all is rejected.
func FromArguments(sessionID, arguments string) (*Lead, error) {
	var args struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
		Notes string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("malformed capture arguments: %w", err)
	}
	if args.Name == "" && args.Phone == "" && args.Email == "" {
		return nil, fmt.Errorf("capture arguments carry no contact details")
	}

	return &Lead{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Name:      args.Name,
		Phone:     args.Phone,
		Email:     args.Email,
		Notes:     args.Notes,
		CreatedAt: time.Now(),
	}, nil
}

// Store persists captured leads.
type Store interface {
	Create(ctx context.Context, l *Lead) error
	List(ctx context.Context) ([]Lead, error)
	Close() error
}

type sqliteStore struct {
	logger commons.Logger
	db     *gorm.DB
}

// NewStore opens (or creates) the sqlite database at path and migrates the
// lead schema. Use ":memory:" for an ephemeral store.
func NewStore(logger commons.Logger, path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open lead database: %w", err)
	}
	if err := db.AutoMigrate(&Lead{}); err != nil {
		return nil, fmt.Errorf("failed to migrate lead schema: %w", err)
	}
	return &sqliteStore{logger: logger, db: db}, nil
}

func (s *sqliteStore) Create(ctx context.Context, l *Lead) error {
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to persist lead: %w", err)
	}
	s.logger.Infow("Lead captured", "leadId", l.ID, "sessionId", l.SessionID)
	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]Lead, error) {
	var leads []Lead
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to resolve database handle: %w", err)
	}
	return sqlDB.Close()
}
