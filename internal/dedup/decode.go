package dedup

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// The export tool is not consistent about encodings: files arrive as UTF-8
// with a BOM, as UTF-16 in either byte order, and occasionally as a
// single-byte Windows export. Candidates are tried in order and the first
// one whose output parses as JSON wins.
var candidateDecoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8-sig", unicode.UTF8BOM},
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)},
	{"utf-16-le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"utf-16-be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

func decodePayload(raw []byte) (*exportPayload, error) {
	for _, candidate := range candidateDecoders {
		decoded, err := candidate.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		var payload exportPayload
		if err := json.Unmarshal(decoded, &payload); err != nil {
			continue
		}
		return &payload, nil
	}

	// Last resort: a permissive single-byte decode that cannot itself fail.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	var payload exportPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	return &payload, nil
}
