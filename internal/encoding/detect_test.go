package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/campusfin/internal/encoding"
)

func TestDetect(t *testing.T) {
	const header = "date;description;amount\n2024-06-02;Café Ñandú;-4,50\n"

	tests := []struct {
		name        string
		input       []byte
		wantCharset string
		want        string
	}{
		{
			name:        "utf-8 passthrough",
			input:       []byte(header),
			wantCharset: encoding.CharsetUTF8,
			want:        header,
		},
		{
			name:        "utf-8 bom stripped",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, header...),
			wantCharset: encoding.CharsetUTF8,
			want:        header,
		},
		{
			name:        "utf-16le with bom",
			input:       []byte{0xFF, 0xFE, 'o', 0, 'k', 0, '\n', 0},
			wantCharset: encoding.CharsetUTF16LE,
			want:        "ok\n",
		},
		{
			name:        "utf-16be with bom",
			input:       []byte{0xFE, 0xFF, 0, 'o', 0, 'k'},
			wantCharset: encoding.CharsetUTF16BE,
			want:        "ok",
		},
		{
			// "Propinas;Matrícula\n" with í = 0xED.
			name:  "single byte legacy",
			input: []byte{'P', 'r', 'o', 'p', 'i', 'n', 'a', 's', ';', 'M', 'a', 't', 'r', 0xED, 'c', 'u', 'l', 'a', '\n'},
			want:  "Propinas;Matrícula\n",
		},
		{
			name:        "empty",
			input:       nil,
			wantCharset: encoding.CharsetUTF8,
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := encoding.Detect(bytes.NewReader(tt.input))
			require.NoError(t, err)

			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, res.Charset)
			}

			got, err := io.ReadAll(res.Reader)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDetect_RuneSplitAtSniffWindow(t *testing.T) {
	// "é" is two bytes; place it across the 4096 byte boundary.
	input := strings.Repeat("a", 4095) + "é" + "\n"

	res, err := encoding.Detect(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.CharsetUTF8, res.Charset)

	got, err := io.ReadAll(res.Reader)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}
