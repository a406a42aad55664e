package reader

// encoding.go normalizes raw spreadsheet bytes to UTF-8 before CSV
// parsing. Dealer management systems export in a mix of encodings:
// UTF-8 with or without BOM, UTF-16 from Excel "Unicode Text" saves, and
// Latin-1 from older systems.

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeToUTF8 detects the encoding of the input, strips any BOM, and
// returns UTF-8 bytes along with the detected encoding name.
func decodeToUTF8(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, "utf-8", nil
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[3:], "utf-8-bom", nil

	case bytes.HasPrefix(data, bomUTF16LE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(data[2:])
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 LE decode failed: %w", err)
		}
		return out, "utf-16le", nil

	case bytes.HasPrefix(data, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(data[2:])
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 BE decode failed: %w", err)
		}
		return out, "utf-16be", nil

	case utf8.Valid(data):
		return data, "utf-8", nil

	default:
		// Latin-1 maps every byte to a code point, so decoding cannot fail.
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, "", fmt.Errorf("Latin-1 decode failed: %w", err)
		}
		return out, "latin-1", nil
	}
}
