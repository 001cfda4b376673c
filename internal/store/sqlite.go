package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// userRecord is the users table row.
type userRecord struct {
	ID       string `gorm:"primarykey;size:36"`
	Username string `gorm:"size:100;not null"`
	Mail     string `gorm:"size:255;not null;uniqueIndex"`
	Password string `gorm:"size:100;not null"`
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Mail,
		CredentialHash: r.Password,
	}
}

// messageRecord is the messages table row.
type messageRecord struct {
	ID        uint   `gorm:"primarykey"`
	From      string `gorm:"column:from_user;size:100;not null"`
	Message   string `gorm:"not null"`
	Timestamp int64  `gorm:"not null;index"`
}

func (messageRecord) TableName() string { return "messages" }

// SQLite is a Gateway backed by GORM and SQLite.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "chat.db"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return NewSQLite(db)
}

// NewSQLite wraps an existing connection and migrates the schema.
func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&userRecord{}, &messageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *SQLite) FindUserByCredentialKey(ctx context.Context, email string) (*domain.User, error) {
	var rec userRecord
	err := s.db.WithContext(ctx).
		Where("mail = ?", strings.ToLower(email)).
		Limit(1).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by mail: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *SQLite) InsertUser(ctx context.Context, user *domain.User) (bool, error) {
	rec := userRecord{
		ID:       user.ID,
		Username: user.Username,
		Mail:     strings.ToLower(user.Email),
		Password: user.CredentialHash,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	return result.RowsAffected == 1, nil
}

func (s *SQLite) InsertMessage(ctx context.Context, msg domain.ChatMessage) (bool, error) {
	rec := messageRecord{
		From:      msg.From,
		Message:   msg.Body,
		Timestamp: msg.Timestamp,
	}
	result := s.db.WithContext(ctx).Create(&rec)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to create message: %w", err)
	}
	return result.RowsAffected == 1, nil
}

func (s *SQLite) FindRecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	var recs []messageRecord
	err := s.db.WithContext(ctx).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}

	msgs := make([]domain.ChatMessage, 0, len(recs))
	for _, r := range recs {
		msgs = append(msgs, domain.ChatMessage{From: r.From, Body: r.Message, Timestamp: r.Timestamp})
	}
	return msgs, nil
}

// Close releases the underlying sql.DB.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
