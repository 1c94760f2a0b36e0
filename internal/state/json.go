package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
)

// Fingerprint returns a canonical serialization of v used for change
// detection. Object keys are sorted (encoding/json marshals map keys in
// order), so two structurally identical items produce the same fingerprint
// regardless of field ordering in the source document.
func Fingerprint(v any) string {
	data, err := MarshalASCII(v)
	if err != nil {
		// Payloads come from decoded JSON, so this only fires on exotic
		// values injected by callers.
		return fmt.Sprintf("!unfingerprintable:%v", err)
	}
	return string(data)
}

// MarshalASCII marshals v as compact JSON with all non-ASCII runes escaped.
func MarshalASCII(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return escapeNonASCII(data), nil
}

// MarshalIndentASCII marshals v as indented JSON with all non-ASCII runes escaped.
func MarshalIndentASCII(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return escapeNonASCII(data), nil
}

// escapeNonASCII rewrites runes above 0x7F to \uXXXX escapes. Runes outside
// the BMP become surrogate pairs. Input must be valid JSON, so multi-byte
// runes only appear inside strings where the escapes are legal.
func escapeNonASCII(data []byte) []byte {
	ascii := true
	for _, b := range data {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for _, r := range string(data) {
		if r < 0x80 {
			buf.WriteByte(byte(r))
			continue
		}
		if r > 0xFFFF {
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&buf, `\u%04x`, r)
	}
	return buf.Bytes()
}
