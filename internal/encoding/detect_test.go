package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/expensa/internal/encoding"
)

func TestNewUTF8Reader(t *testing.T) {
	type testCase struct {
		name  string
		input []byte
		want  string
	}

	tests := []testCase{
		{
			name:  "UTF8Passthrough",
			input: []byte("category,item,price\nBeverages,Café latte,45.00\n"),
			want:  "category,item,price\nBeverages,Café latte,45.00\n",
		},
		{
			name:  "UTF8BOMStripped",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("item;preço\n")...),
			want:  "item;preço\n",
		},
		{
			// Windows-1252: ç = 0xE7, ã = 0xE3
			name: "Latin1",
			input: []byte{
				'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o', ';',
				'p', 'r', 'e', 0xE7, 'o', '\n',
			},
			want: "Descrição;preço\n",
		},
		{
			name:  "UTF16LE",
			input: []byte{0xFF, 0xFE, 'o', 0, 'k', 0},
			want:  "ok",
		},
		{
			name:  "Empty",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
