package matching

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrEmptyMapping = errors.New("pattern and category are required")

// Mapping assigns Category to any description containing Pattern, case-insensitively.
type Mapping struct {
	ID        int64
	Pattern   string
	Category  string
	CreatedAt time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	// FindMatch returns the category of the longest pattern contained in
	// description, or "" when nothing matches.
	FindMatch(ctx context.Context, description string) (string, error)
	CreateMapping(ctx context.Context, pattern, category string) error
	ListMappings(ctx context.Context) ([]Mapping, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest tries to find a category for the given description.
// Returns empty string if no match found.
func (s *Service) Suggest(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", nil
	}

	return s.repo.FindMatch(ctx, description)
}

// Learn remembers a new mapping between a description pattern and a category.
func (s *Service) Learn(ctx context.Context, pattern, category string) error {
	pattern = strings.TrimSpace(pattern)
	category = strings.TrimSpace(category)

	if pattern == "" || category == "" {
		return ErrEmptyMapping
	}

	return s.repo.CreateMapping(ctx, pattern, category)
}

func (s *Service) Mappings(ctx context.Context) ([]Mapping, error) {
	return s.repo.ListMappings(ctx)
}

// BestMatch picks the category of the longest pattern contained in
// description. Ties go to the most recently created mapping. Stores without a
// query language use it to answer FindMatch.
func BestMatch(mappings []Mapping, description string) string {
	lower := strings.ToLower(description)

	var best *Mapping

	for i := range mappings {
		m := &mappings[i]
		if m.Pattern == "" || !strings.Contains(lower, strings.ToLower(m.Pattern)) {
			continue
		}

		if best == nil || len(m.Pattern) > len(best.Pattern) ||
			(len(m.Pattern) == len(best.Pattern) && m.CreatedAt.After(best.CreatedAt)) {
			best = m
		}
	}

	if best == nil {
		return ""
	}

	return best.Category
}
