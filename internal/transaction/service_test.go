package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_Create(t *testing.T) {
	type args struct {
		params transaction.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *transaction.MockRepository)
		wantErr   error
	}

	errDB := errors.New("db error")

	valid := transaction.CreateParams{
		Type:        transaction.TypeExpense,
		Amount:      amount("12.50"),
		Category:    "Food & Groceries",
		Description: "Weekly groceries",
		Date:        "2024-06-01",
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{params: valid},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						tx.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "RepoError",
			args: args{params: valid},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					Return(errDB)
			},
			wantErr: errDB,
		},
		{
			name: "ZeroAmount",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Amount = decimal.Zero
				return p
			}()},
			wantErr: transaction.ErrInvalidAmount,
		},
		{
			name: "SubCentAmount",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Amount = amount("12.345")
				return p
			}()},
			wantErr: transaction.ErrInvalidAmount,
		},
		{
			name: "TrailingZerosBeyondCents",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Amount = amount("12.500")
				return p
			}()},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name: "UnknownType",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Type = "transfer"
				return p
			}()},
			wantErr: transaction.ErrInvalidType,
		},
		{
			name: "BlankCategory",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Category = "  "
				return p
			}()},
			wantErr: transaction.ErrMissingCategory,
		},
		{
			name: "BlankDescription",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Description = ""
				return p
			}()},
			wantErr: transaction.ErrMissingDescription,
		},
		{
			name: "MalformedDate",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Date = "2024-13-45"
				return p
			}()},
			wantErr: transaction.ErrMalformedDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			got, err := svc.Create(context.Background(), tt.args.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			assert.NoError(t, err)
			require.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, "Food & Groceries", got.Category)
		})
	}
}

func TestService_List(t *testing.T) {
	income := transaction.TypeIncome

	stored := []*transaction.Transaction{
		{ID: uuid.New(), Type: transaction.TypeExpense, Amount: amount("1200"), Category: "Housing & Rent", Description: "Monthly rent", Date: "2024-06-01"},
		{ID: uuid.New(), Type: transaction.TypeIncome, Amount: amount("500"), Category: "Part-time Job", Description: "Campus bookstore cashier", Date: "2024-06-03"},
		{ID: uuid.New(), Type: transaction.TypeExpense, Amount: amount("50"), Category: "Transportation", Description: "Bus pass", Date: "2024-05-20"},
		{ID: uuid.New(), Type: transaction.TypeExpense, Amount: amount("300"), Category: "Food & Groceries", Description: "Weekly groceries", Date: "2024-06-02"},
	}

	type testCase struct {
		name      string
		filter    transaction.ListFilter
		wantDescs []string
	}

	tests := []testCase{
		{
			name:      "DefaultSortsNewestFirst",
			filter:    transaction.ListFilter{},
			wantDescs: []string{"Campus bookstore cashier", "Weekly groceries", "Monthly rent", "Bus pass"},
		},
		{
			name:      "SortByAmount",
			filter:    transaction.ListFilter{SortBy: transaction.SortByAmount},
			wantDescs: []string{"Monthly rent", "Campus bookstore cashier", "Weekly groceries", "Bus pass"},
		},
		{
			name:      "TypeFilter",
			filter:    transaction.ListFilter{Type: &income},
			wantDescs: []string{"Campus bookstore cashier"},
		},
		{
			name:      "SearchMatchesCategoryCaseInsensitive",
			filter:    transaction.ListFilter{Search: "GROCERIES"},
			wantDescs: []string{"Weekly groceries"},
		},
		{
			name:      "SearchMatchesDescription",
			filter:    transaction.ListFilter{Search: "bus"},
			wantDescs: []string{"Bus pass"},
		},
		{
			name: "DateRange",
			filter: transaction.ListFilter{
				StartDate: new(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
				EndDate:   new(time.Date(2024, 6, 2, 23, 59, 59, 0, time.UTC)),
			},
			wantDescs: []string{"Weekly groceries", "Monthly rent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			repo.EXPECT().ListTransactions(gomock.Any()).Return(stored, nil)

			svc := transaction.NewService(repo)
			got, err := svc.List(context.Background(), tt.filter)
			require.NoError(t, err)

			descs := make([]string, len(got))
			for i, tx := range got {
				descs[i] = tx.Description
			}

			assert.Equal(t, tt.wantDescs, descs)
		})
	}

	t.Run("Error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := transaction.NewMockRepository(ctrl)
		repo.EXPECT().ListTransactions(gomock.Any()).Return(nil, errors.New("list error"))

		svc := transaction.NewService(repo)
		_, err := svc.List(context.Background(), transaction.ListFilter{})
		assert.Error(t, err)
	})
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	in := []*transaction.Transaction{
		{Description: "a", Date: "2024-01-01"},
		nil,
		{Description: "b", Date: "2024-02-01"},
	}

	out := transaction.Apply(in, transaction.ListFilter{})

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Description)
	assert.Equal(t, "a", in[0].Description)
}

func TestService_Update_Validates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	err := svc.Update(context.Background(), &transaction.Transaction{
		ID:          uuid.New(),
		Type:        transaction.TypeExpense,
		Amount:      amount("-3"),
		Category:    "Travel",
		Description: "Train",
		Date:        "2024-01-01",
	})
	assert.ErrorIs(t, err, transaction.ErrInvalidAmount)
}

func coffee(date transaction.Date) transaction.CreateParams {
	return transaction.CreateParams{
		Type:        transaction.TypeExpense,
		Amount:      amount("10.00"),
		Category:    "Food & Groceries",
		Description: "Coffee",
		Date:        date,
	}
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo)

	params := []transaction.CreateParams{coffee("2024-01-15")}

	repo.EXPECT().BeginImport(gomock.Any(), transaction.Date("2024-01-15"), transaction.Date("2024-01-15")).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo)

	lunch := coffee("2024-01-20")
	lunch.Description = "Lunch"
	lunch.Amount = amount("20")

	params := []transaction.CreateParams{coffee("2024-01-15"), lunch}

	existing := &transaction.Transaction{
		ID:          uuid.New(),
		Type:        transaction.TypeExpense,
		Amount:      amount("10"),
		Category:    "Food & Groceries",
		Description: "Coffee",
		Date:        "2024-01-15",
	}

	repo.EXPECT().BeginImport(gomock.Any(), transaction.Date("2024-01-15"), transaction.Date("2024-01-20")).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), params).Return([]*transaction.Transaction{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.New, 1)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, params[0], result.Conflicts[0].Incoming)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_InvalidRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	bad := coffee("not-a-date")

	_, err := svc.ImportBatch(context.Background(), []transaction.CreateParams{coffee("2024-01-15"), bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, transaction.ErrMalformedDate)
	assert.Contains(t, err.Error(), "row 2")
}

func TestService_ImportBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	result, err := svc.ImportBatch(context.Background(), []transaction.CreateParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_CreateBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	itx := transaction.NewMockImportTx(ctrl)
	svc := transaction.NewService(repo)

	params := []transaction.CreateParams{coffee("2024-01-15")}

	repo.EXPECT().BeginImport(gomock.Any(), transaction.Date("2024-01-15"), transaction.Date("2024-01-15")).Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Any()).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	txs, err := svc.CreateBatch(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "10", txs[0].Amount.String())
	assert.Equal(t, transaction.TypeExpense, txs[0].Type)
}

func TestDate_Time(t *testing.T) {
	got, err := transaction.Date("2024-02-29").Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	_, err = transaction.Date("2023-02-29").Time()
	assert.ErrorIs(t, err, transaction.ErrMalformedDate)

	_, err = transaction.Date("").Time()
	assert.ErrorIs(t, err, transaction.ErrMalformedDate)
}
