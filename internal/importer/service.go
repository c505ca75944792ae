package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/campusfin/internal/importer/generic"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

// FallbackCategory is assigned to imported rows that have no category and no
// learned mapping.
const FallbackCategory = "Other"

// Suggester proposes a category for a description; "" means no suggestion.
type Suggester interface {
	Suggest(ctx context.Context, description string) (string, error)
}

type Service struct {
	genericImporter Importer
	suggester       Suggester
}

// NewService builds the import service. suggester may be nil.
func NewService(suggester Suggester) *Service {
	return &Service{
		genericImporter: generic.NewParser(),
		suggester:       suggester,
	}
}

// Import parses r and fills blank categories from learned mappings.
func (s *Service) Import(ctx context.Context, format Format, r io.Reader) ([]transaction.CreateParams, error) {
	var importer Importer

	switch format {
	case FormatGeneric, "":
		importer = s.genericImporter
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	params, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}

	for i := range params {
		if params[i].Category != "" {
			continue
		}

		params[i].Category = s.suggest(ctx, params[i].Description)
	}

	return params, nil
}

func (s *Service) suggest(ctx context.Context, description string) string {
	if s.suggester == nil {
		return FallbackCategory
	}

	category, err := s.suggester.Suggest(ctx, description)
	if err != nil {
		slog.Warn("category suggestion failed", "description", description, "error", err)
		return FallbackCategory
	}

	if category == "" {
		return FallbackCategory
	}

	return category
}
