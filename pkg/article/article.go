// Package article serves the educational articles shown to internal clients.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cashmate/models"
	"cashmate/pkg/apperr"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Summary is the list shape of an article.
type Summary struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type CreateInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	out := []Summary{}
	err := s.db.WithContext(ctx).Model(&models.Article{}).Select("id", "title").Order("id").Scan(&out).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list articles: %w", err))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Article, error) {
	var a models.Article
	err := s.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Artikel tidak ditemukan")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get article %d: %w", id, err))
	}
	return &a, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if verr := apperr.ValidateStruct(in); verr != nil {
		return nil, verr.WithCode("article_incomplete")
	}
	a := models.Article{Title: in.Title, Content: in.Content}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("create article: %w", err))
	}
	s.log.Info("article created", "id", a.ID)
	return &a, nil
}

// Seed inserts the default articles when the table is empty. It reports how
// many rows were inserted.
func (s *Service) Seed(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	rows := make([]models.Article, len(defaultArticles))
	copy(rows, defaultArticles)
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("seed articles: %w", err)
	}
	s.log.Info("articles seeded", "count", len(rows))
	return len(rows), nil
}
