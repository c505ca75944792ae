package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/campusfin/internal/importer"
)

type suggesterFunc func(ctx context.Context, description string) (string, error)

func (f suggesterFunc) Suggest(ctx context.Context, description string) (string, error) {
	return f(ctx, description)
}

const sample = `date,amount,category,description
2024-06-01,-4.20,,UBER EATS
2024-06-02,-12,Books & Supplies,Campus bookstore
2024-06-03,-3,,Vending machine
`

func TestService_Import(t *testing.T) {
	tests := []struct {
		name      string
		suggester importer.Suggester
		want      []string
	}{
		{
			name: "fills blanks from suggestions",
			suggester: suggesterFunc(func(_ context.Context, d string) (string, error) {
				if strings.Contains(d, "UBER") {
					return "Food & Groceries", nil
				}

				return "", nil
			}),
			want: []string{"Food & Groceries", "Books & Supplies", importer.FallbackCategory},
		},
		{
			name: "suggestion error falls back",
			suggester: suggesterFunc(func(context.Context, string) (string, error) {
				return "", errors.New("down")
			}),
			want: []string{importer.FallbackCategory, "Books & Supplies", importer.FallbackCategory},
		},
		{
			name: "no suggester",
			want: []string{importer.FallbackCategory, "Books & Supplies", importer.FallbackCategory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := importer.NewService(tt.suggester)

			params, err := svc.Import(context.Background(), importer.FormatGeneric, strings.NewReader(sample))
			require.NoError(t, err)
			require.Len(t, params, len(tt.want))

			for i, want := range tt.want {
				assert.Equal(t, want, params[i].Category)
			}
		})
	}
}

func TestService_Import_UnknownFormat(t *testing.T) {
	svc := importer.NewService(nil)

	_, err := svc.Import(context.Background(), "ofx", strings.NewReader(sample))
	assert.ErrorIs(t, err, importer.ErrUnknownFormat)
}
