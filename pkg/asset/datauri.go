package asset

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// IsDataURI reports whether ref carries its payload inline.
func IsDataURI(ref string) bool {
	return len(ref) >= 5 && strings.EqualFold(ref[:5], "data:")
}

// DecodeDataURI returns the payload of a data: reference.
// Both base64 and percent-encoded payloads are accepted.
func DecodeDataURI(ref string) ([]byte, error) {
	if !IsDataURI(ref) {
		return nil, ErrMalformedDataURI
	}
	header, payload, ok := strings.Cut(ref[5:], ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing ',' separator", ErrMalformedDataURI)
	}

	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some producers drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
		}
		return data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
	}
	return []byte(text), nil
}

// EncodeDataURI builds a base64 data: reference for data.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
