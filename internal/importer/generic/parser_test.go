package generic_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/campusfin/internal/importer/generic"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

func TestParser_Typed(t *testing.T) {
	csv := `date,type,amount,category,description,tags
2024-06-01,income,500.00,Part-time Job,Library shift,work|campus
2024-06-02,expense,1200,Housing & Rent,June rent,
2024-06-03,EXPENSE,-4.50,Food & Groceries,Coffee,
`

	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, transaction.Date("2024-06-01"), txs[0].Date)
	assert.Equal(t, transaction.TypeIncome, txs[0].Type)
	assert.Equal(t, "500", txs[0].Amount.String())
	assert.Equal(t, "Part-time Job", txs[0].Category)
	assert.Equal(t, "Library shift", txs[0].Description)
	assert.Equal(t, []string{"work", "campus"}, txs[0].Tags)

	assert.Equal(t, transaction.TypeExpense, txs[1].Type)
	assert.Nil(t, txs[1].Tags)

	assert.Equal(t, transaction.TypeExpense, txs[2].Type)
	assert.Equal(t, "4.5", txs[2].Amount.String())
}

func TestParser_SemicolonSigned(t *testing.T) {
	csv := `Description;Amount;Date
Pingo Doce;-23,40;05-06-2024
Bolsa;1.250,00;01-06-2024
`

	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, transaction.Date("2024-06-05"), txs[0].Date)
	assert.Equal(t, transaction.TypeExpense, txs[0].Type)
	assert.Equal(t, "23.4", txs[0].Amount.String())
	assert.Empty(t, txs[0].Category)

	assert.Equal(t, transaction.TypeIncome, txs[1].Type)
	assert.Equal(t, "1250", txs[1].Amount.String())
}

func TestParser_UntypedRowUsesSign(t *testing.T) {
	csv := `date,type,amount,category,description
2024-06-01,,-15,Transportation,Bus pass
`

	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, transaction.TypeExpense, txs[0].Type)
	assert.Equal(t, "15", txs[0].Amount.String())
}

func TestParser_DebitCredit(t *testing.T) {
	csv := `date;description;debit;credit
2024-06-10;Bookstore;32,90;
2024-06-11;Refund;;10,00
2024-06-12;Nothing;;
`

	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, transaction.TypeExpense, txs[0].Type)
	assert.Equal(t, "32.9", txs[0].Amount.String())
	assert.Equal(t, transaction.TypeIncome, txs[1].Type)
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "date;amount;description\n2024-06-01;-10,00;CAFÉ CENTRAL\n"

	encoder := charmap.Windows1252.NewEncoder()
	latin1Bytes, err := encoder.Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := generic.NewParser()
	txs, err := p.Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "CAFÉ CENTRAL", txs[0].Description)
}

func TestParser_HeaderAfterPreamble(t *testing.T) {
	csv := `Exported by my bank
Account,123

date,amount,description
2024-06-01,-1,Snack
`

	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Snack", txs[0].Description)
}

func TestParser_SkipsUnparseableRows(t *testing.T) {
	csv := `date,amount,description
2024-06-01,-10,Valid
not a date,-10,Footer
2024-06-02,abc,Bad amount
2024-06-03,0,Zero
Total,,
`

	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Valid", txs[0].Description)
}

func TestParser_EmptyFile(t *testing.T) {
	p := generic.NewParser()
	_, err := p.Parse(strings.NewReader(""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no matching CSV layout")
}

func TestParser_HeaderOnly(t *testing.T) {
	p := generic.NewParser()
	txs, err := p.Parse(strings.NewReader("date,type,amount,category,description\n"))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestParser_MissingDescription(t *testing.T) {
	csv := `date,amount,description
2024-06-01,-10,
`

	p := generic.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "row 2: missing description")
}

func TestParser_LargeAmounts(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"comma decimal", "date;amount;description\n2024-06-01;-1.234.567,89;Big\n", "1234567.89"},
		{"dot decimal", "date,amount,description\n2024-06-01,\"-1,234,567.89\",Big\n", "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := generic.NewParser().Parse(strings.NewReader(tt.csv))
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, tt.want, txs[0].Amount.String())
		})
	}
}
