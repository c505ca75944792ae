// Package importer turns uploaded CSV exports into transaction parameters.
package importer

import (
	"errors"
	"io"

	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

var ErrUnknownFormat = errors.New("unknown format")

// Format names a CSV layout. The empty format means generic.
type Format string

const (
	FormatGeneric Format = "generic"
)

// Formats lists the layouts offered to users, default first.
var Formats = []Format{FormatGeneric}

// Importer parses one layout. Implementations leave categories they cannot
// read blank; the service fills them in.
type Importer interface {
	Parse(r io.Reader) ([]transaction.CreateParams, error)
}
