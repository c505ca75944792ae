package generic

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/campusfin/internal/encoding"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

// dateLayouts are tried in order for the date column.
var dateLayouts = []string{time.DateOnly, "02-01-2006", "02/01/2006"}

// Parser reads CSV exports with a header naming the columns date, type,
// amount, category, description and tags, in any order. The separator is
// either ',' or ';'.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	decoded, err := enc.Detect(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	slog.Debug("decoding csv", "charset", decoded.Charset)

	content, err := io.ReadAll(decoded.Reader)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectSeparator(content)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching CSV layout found: expected date, amount and description columns")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// detectSeparator picks ';' when the first non-blank line has more semicolons
// than commas.
func detectSeparator(content []byte) rune {
	for line := range bytes.SplitSeq(content, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
			return ';'
		}

		return ','
	}

	return ','
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts transactions from data rows using the matched profile.
// Rows with an unparseable date or amount are skipped.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]transaction.CreateParams, error) {
	var txs []transaction.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		date, ok := parseDate(cellValue(row, cols, colDate))
		if !ok {
			continue
		}

		desc := cellValue(row, cols, colDescription)
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, txType, ok := parseRowAmount(p, cols, row)
		if !ok {
			continue
		}

		txs = append(txs, transaction.CreateParams{
			Type:        txType,
			Amount:      amount,
			Category:    cellValue(row, cols, colCategory),
			Description: desc,
			Date:        date,
			Tags:        parseTags(cellValue(row, cols, colTags)),
		})
	}

	return txs, nil
}

func parseDate(s string) (transaction.Date, bool) {
	if s == "" {
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return transaction.DateOf(t), true
		}
	}

	return "", false
}

func parseRowAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, transaction.Type, bool) {
	switch p.AmountMode {
	case amountTyped:
		txType := transaction.Type(strings.ToLower(cellValue(row, cols, colType)))
		if txType == "" {
			return parseSignedAmount(cellValue(row, cols, colAmount))
		}

		amount, err := parseAmount(cellValue(row, cols, colAmount))
		if err != nil || amount.IsZero() {
			return decimal.Zero, "", false
		}

		return amount.Abs(), txType, true
	case amountSigned:
		return parseSignedAmount(cellValue(row, cols, colAmount))
	case amountSplit:
		return parseSplitAmount(cellValue(row, cols, colDebit), cellValue(row, cols, colCredit))
	}

	return decimal.Zero, "", false
}

func parseSignedAmount(s string) (decimal.Decimal, transaction.Type, bool) {
	if s == "" {
		return decimal.Zero, "", false
	}

	amount, err := parseAmount(s)
	if err != nil || amount.IsZero() {
		return decimal.Zero, "", false
	}

	if amount.IsNegative() {
		return amount.Neg(), transaction.TypeExpense, true
	}

	return amount, transaction.TypeIncome, true
}

func parseSplitAmount(debit, credit string) (decimal.Decimal, transaction.Type, bool) {
	if debit != "" {
		amount, err := parseAmount(debit)
		if err == nil && !amount.IsZero() {
			return amount.Abs(), transaction.TypeExpense, true
		}
	}

	if credit != "" {
		amount, err := parseAmount(credit)
		if err == nil && !amount.IsZero() {
			return amount.Abs(), transaction.TypeIncome, true
		}
	}

	return decimal.Zero, "", false
}

func parseTags(s string) []string {
	if s == "" {
		return nil
	}

	var tags []string

	for tag := range strings.SplitSeq(s, "|") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, cols colIndex, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
