package sources

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/japanese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeLocal turns file bytes into text trying UTF-8, UTF-8 with BOM and
// Shift_JIS in that order, then falls back to lossy UTF-8.
func decodeLocal(data []byte) string {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM))
	}
	if text, ok := decodeShiftJIS(data); ok {
		return text
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// decodeRemote decodes a response body using the Content-Type charset,
// in-document declarations and content sniffing.
func decodeRemote(body []byte, contentType string) string {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "shift_jis") || strings.Contains(ct, "sjis") || strings.Contains(ct, "windows-31j") {
		if text, ok := decodeShiftJIS(body); ok {
			return text
		}
	}

	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		if utf8.Valid(body) {
			return string(bytes.TrimPrefix(body, utf8BOM))
		}
		return decodeLocal(body)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return decodeLocal(body)
	}
	return string(decoded)
}

func decodeShiftJIS(data []byte) (string, bool) {
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	text := string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", false
	}
	return text, true
}
