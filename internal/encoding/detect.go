// Package encoding normalises uploaded CSV exports to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

// Charset names reported by Detect.
const (
	CharsetUTF8    = "UTF-8"
	CharsetUTF16LE = "UTF-16LE"
	CharsetUTF16BE = "UTF-16BE"
	CharsetCP1252  = "windows-1252"
)

type bom struct {
	prefix  []byte
	charset string
	decoder encoding.Encoding
}

// UTF-16 BOMs are left in place; the decoder consumes them.
var boms = []bom{
	{prefix: []byte{0xEF, 0xBB, 0xBF}, charset: CharsetUTF8},
	{prefix: []byte{0xFF, 0xFE}, charset: CharsetUTF16LE, decoder: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{prefix: []byte{0xFE, 0xFF}, charset: CharsetUTF16BE, decoder: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// Single-byte charsets chardet may report for spreadsheet exports.
var legacy = map[string]encoding.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	CharsetCP1252:  charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
	"windows-1250": charmap.Windows1250,
}

// Result is the decoded stream together with the charset it was read as.
type Result struct {
	Charset string
	Reader  io.Reader
}

// Detect sniffs the start of r and returns a reader yielding UTF-8.
//
// A BOM wins, then valid UTF-8 passes through, then chardet gets a vote.
// Anything chardet cannot place is read as Windows-1252, which is what most
// spreadsheet tools write when they are not writing UTF-8.
func Detect(r io.Reader) (Result, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return Result{}, fmt.Errorf("sniffing input: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(head, b.prefix) {
			continue
		}

		if b.decoder == nil {
			_, _ = br.Discard(len(b.prefix))
			return Result{Charset: b.charset, Reader: br}, nil
		}

		return Result{Charset: b.charset, Reader: transform.NewReader(br, b.decoder.NewDecoder())}, nil
	}

	if utf8.Valid(trimPartialRune(head)) {
		return Result{Charset: CharsetUTF8, Reader: br}, nil
	}

	charset := CharsetCP1252
	if best, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if best.Charset == CharsetUTF8 {
			return Result{Charset: CharsetUTF8, Reader: br}, nil
		}

		if _, ok := legacy[best.Charset]; ok {
			charset = best.Charset
		}
	}

	return Result{Charset: charset, Reader: transform.NewReader(br, legacy[charset].NewDecoder())}, nil
}

// trimPartialRune drops a multi-byte sequence cut off by the sniff window so
// that valid UTF-8 is not mistaken for a legacy charset.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}

			break
		}
	}

	return b
}
