package generic

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountTyped means an explicit type column next to an unsigned amount.
	amountTyped amountMode = iota
	// amountSigned means one signed amount column; a leading minus is an expense.
	amountSigned
	// amountSplit means separate debit and credit columns.
	amountSplit
)

const (
	colDate        = "date"
	colType        = "type"
	colAmount      = "amount"
	colCategory    = "category"
	colDescription = "description"
	colTags        = "tags"
	colDebit       = "debit"
	colCredit      = "credit"
)

// Profile describes a column layout the parser understands. Category and tags
// are optional in every layout.
type Profile struct {
	Name       string
	AmountMode amountMode
}

func (p Profile) requiredCols() []string {
	cols := []string{colDate, colDescription}

	switch p.AmountMode {
	case amountTyped:
		cols = append(cols, colType, colAmount)
	case amountSigned:
		cols = append(cols, colAmount)
	case amountSplit:
		cols = append(cols, colDebit, colCredit)
	}

	return cols
}

// profiles are tried in order; more specific layouts come first.
var profiles = []Profile{
	{Name: "typed", AmountMode: amountTyped},
	{Name: "split", AmountMode: amountSplit},
	{Name: "signed", AmountMode: amountSigned},
}
