package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

type bom struct {
	mark    []byte
	decoder xenc.Encoding
}

var boms = []bom{
	{mark: []byte{0xEF, 0xBB, 0xBF}},
	{mark: []byte{0xFF, 0xFE}, decoder: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{mark: []byte{0xFE, 0xFF}, decoder: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// charsets maps chardet names to decoders for the single-byte encodings
// spreadsheet exports commonly use.
var charsets = map[string]xenc.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
}

// NewUTF8Reader returns a reader yielding the content of r as UTF-8.
// A UTF-8 BOM is stripped, UTF-16 with BOM is decoded, valid UTF-8 passes
// through, and anything else is decoded from the charset chardet guesses,
// falling back to Windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(buf, b.mark) {
			continue
		}

		if b.decoder == nil {
			_, _ = br.Discard(len(b.mark))
			return br, nil
		}

		return transform.NewReader(br, b.decoder.NewDecoder()), nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	return transform.NewReader(br, guess(buf).NewDecoder()), nil
}

func guess(buf []byte) xenc.Encoding {
	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		if enc, ok := charsets[result.Charset]; ok {
			return enc
		}
	}

	return charmap.Windows1252
}
