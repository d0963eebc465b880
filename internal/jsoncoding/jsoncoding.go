// Package jsoncoding is the JSON codec shared by the API client and server.
//
// Decoding converts snake_case object keys to lowerCamelCase before matching
// struct fields, so a payload may use either convention. Encoding does the
// reverse. Dates travel as ISO-8601 strings.
package jsoncoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DecodingError wraps a failure to turn a payload into the target type.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return "decode: " + e.Err.Error()
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// Decode unmarshals data into v after converting snake_case keys.
func Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &DecodingError{Err: errors.New("empty body")}
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return &DecodingError{Err: err}
	}

	converted, err := json.Marshal(convertKeys(raw, SnakeToCamel))
	if err != nil {
		return &DecodingError{Err: err}
	}
	if err := json.Unmarshal(converted, v); err != nil {
		return &DecodingError{Err: err}
	}
	return nil
}

// Encode marshals v and rewrites object keys to snake_case.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return json.Marshal(convertKeys(raw, CamelToSnake))
}

func convertKeys(v any, conv func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[conv(k)] = convertKeys(val, conv)
		}
		return out
	case []any:
		for i := range t {
			t[i] = convertKeys(t[i], conv)
		}
		return t
	default:
		return v
	}
}

// SnakeToCamel converts "company_full_name" to "companyFullName" and
// "USER_ID" to "userId". The first word is lowercased and later words are
// capitalized. Leading and trailing underscores are preserved, keys without
// an underscore are returned unchanged.
func SnakeToCamel(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}

	lead := len(s) - len(strings.TrimLeft(s, "_"))
	trail := len(s) - len(strings.TrimRight(s, "_"))
	if lead == len(s) {
		return s
	}
	core := s[lead : len(s)-trail]

	var b strings.Builder
	b.WriteString(s[:lead])
	first := true
	for _, word := range strings.Split(core, "_") {
		if word == "" {
			continue
		}
		word = strings.ToLower(word)
		if !first {
			r, size := utf8.DecodeRuneInString(word)
			word = string(unicode.ToUpper(r)) + word[size:]
		}
		b.WriteString(word)
		first = false
	}
	b.WriteString(s[len(s)-trail:])
	return b.String()
}

// CamelToSnake converts "companyFullName" to "company_full_name".
// Runs of capitals are treated as one word: "newsID" becomes "news_id".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Time is a time.Time that accepts the ISO-8601 variants servers emit.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses s using the accepted ISO-8601 layouts. Zone-less values
// are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 time %q", s)
}

// MarshalJSON writes the time in RFC 3339 UTC.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// UnmarshalJSON accepts a string in any supported layout, or null.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
