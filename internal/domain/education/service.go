package education

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chirohq/chiro/internal/platform/cache"
	"github.com/chirohq/chiro/internal/platform/db"
)

// DefaultCacheTTL bounds how stale the patient-facing content lists can be.
const DefaultCacheTTL = 10 * time.Minute

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ContentCache is the subset of the Redis cache the service needs.
// *cache.Cache satisfies it.
type ContentCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	articles  ArticleRepository
	exercises ExerciseRepository
	cache     ContentCache
	ttl       time.Duration
}

func NewService(articles ArticleRepository, exercises ExerciseRepository, contentCache ContentCache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{articles: articles, exercises: exercises, cache: contentCache, ttl: ttl}
}

// Cache keys are tenant-scoped: every organization has its own content.
func articlesKey(ctx context.Context) string {
	return fmt.Sprintf("education:%s:articles", db.TenantFromContext(ctx))
}

func exercisesKey(ctx context.Context) string {
	return fmt.Sprintf("education:%s:exercises", db.TenantFromContext(ctx))
}

// ListArticles serves the published list from Redis when possible. Cache
// failures fall through to the database; stale content beats an error page.
func (s *Service) ListArticles(ctx context.Context) ([]*Article, error) {
	key := articlesKey(ctx)

	var cached []*Article
	err := s.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("key", key).Msg("education cache read failed")
	}

	items, err := s.articles.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, items, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("education cache write failed")
	}
	return items, nil
}

func (s *Service) GetArticle(ctx context.Context, slug string) (*Article, error) {
	return s.articles.GetBySlug(ctx, slug)
}

func (s *Service) CreateArticle(ctx context.Context, a *Article) error {
	if err := validateArticle(a); err != nil {
		return err
	}
	if err := s.articles.Create(ctx, a); err != nil {
		return err
	}
	return s.invalidate(ctx, articlesKey(ctx))
}

func (s *Service) UpdateArticle(ctx context.Context, a *Article) error {
	if err := validateArticle(a); err != nil {
		return err
	}
	if err := s.articles.Update(ctx, a); err != nil {
		return err
	}
	return s.invalidate(ctx, articlesKey(ctx))
}

func (s *Service) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	if err := s.articles.Delete(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, articlesKey(ctx))
}

func validateArticle(a *Article) error {
	if !slugPattern.MatchString(a.Slug) {
		return fmt.Errorf("slug must be lowercase-hyphenated")
	}
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if a.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

func (s *Service) ListExercises(ctx context.Context) ([]*Exercise, error) {
	key := exercisesKey(ctx)

	var cached []*Exercise
	err := s.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("key", key).Msg("education cache read failed")
	}

	items, err := s.exercises.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, items, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("education cache write failed")
	}
	return items, nil
}

func (s *Service) GetExercise(ctx context.Context, slug string) (*Exercise, error) {
	return s.exercises.GetBySlug(ctx, slug)
}

func (s *Service) CreateExercise(ctx context.Context, e *Exercise) error {
	if err := validateExercise(e); err != nil {
		return err
	}
	if err := s.exercises.Create(ctx, e); err != nil {
		return err
	}
	return s.invalidate(ctx, exercisesKey(ctx))
}

func (s *Service) UpdateExercise(ctx context.Context, e *Exercise) error {
	if err := validateExercise(e); err != nil {
		return err
	}
	if err := s.exercises.Update(ctx, e); err != nil {
		return err
	}
	return s.invalidate(ctx, exercisesKey(ctx))
}

func (s *Service) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	if err := s.exercises.Delete(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, exercisesKey(ctx))
}

func validateExercise(e *Exercise) error {
	if !slugPattern.MatchString(e.Slug) {
		return fmt.Errorf("slug must be lowercase-hyphenated")
	}
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	if e.Sets < 0 || e.Reps < 0 {
		return fmt.Errorf("sets and reps must not be negative")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, key string) error {
	if err := s.cache.Delete(ctx, key); err != nil {
		// The entry will age out at the TTL anyway.
		log.Warn().Err(err).Str("key", key).Msg("education cache invalidation failed")
	}
	return nil
}
