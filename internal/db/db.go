package db

import (
	"context"
	"errors"
	"fmt"

	"zugzwang/internal/config"
	"zugzwang/internal/models"
	"zugzwang/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to postgres and migrates the schema.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}

	conn, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info("database migration completed")

	DB = conn
	return conn, nil
}

// Migrate creates or updates every table, including the composite unique indexes
// that make reactions, blocks and bookmarks upserts.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.PostReaction{},
		&models.CommentReaction{},
		&models.Block{},
		&models.Bookmark{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

var defaultCategories = []models.Category{
	{Name: "general", Description: "Anything that fits nowhere else"},
	{Name: "questions", Description: "Ask the community"},
	{Name: "announcements", Description: "News from the moderators"},
	{Name: "off-topic", Description: "Casual chatter"},
}

// Seed creates the default categories and the optional admin account.
// It runs against any Store so the in-memory backend starts with the same data.
func Seed(ctx context.Context, s store.Store, cfg *config.Config, log *zap.Logger) error {
	existing, err := s.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, c := range defaultCategories {
			cat := c
			if err := s.CreateCategory(ctx, &cat); err != nil && !errors.Is(err, store.ErrDuplicate) {
				log.Warn("seed category failed", zap.String("name", cat.Name), zap.Error(err))
			}
		}
		log.Info("initial categories created")
	}

	if !cfg.SeedAdmin() {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Login:    cfg.AdminLogin,
		FullName: cfg.AdminLogin,
		Email:    cfg.AdminEmail,
		Password: string(hash),
		Status:   models.RoleAdmin,
	}
	switch err := s.CreateUser(ctx, &admin); {
	case errors.Is(err, store.ErrDuplicate):
		log.Info("admin already present, skipping", zap.String("login", cfg.AdminLogin))
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	default:
		log.Info("admin account created", zap.Uint("user_id", admin.ID))
	}
	return nil
}
