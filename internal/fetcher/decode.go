package fetcher

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Below this chardet confidence the sniffed guess is kept
const minDetectConfidence = 50

// Matches the prefix length the html charset prescan inspects
const sniffLen = 1024

var errInvalidUTF8 = errors.New("body is not valid utf-8")

// declaredCharset returns the charset parameter of a Content-Type header
func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

// decodeBody returns body as UTF-8 together with the name of the encoding used.
//
// A charset declared in the headers is authoritative. colly has already
// converted non-UTF-8 declarations by the time the body reaches us, so a
// declared UTF-8 body only needs validating. Without a declaration the
// encoding is sniffed from BOMs and meta tags, then chardet.
func decodeBody(body []byte, contentType string) ([]byte, string, error) {
	if declared := declaredCharset(contentType); declared != "" {
		enc, name := charset.Lookup(declared)
		if enc == nil {
			return nil, "", fmt.Errorf("unsupported charset %q", declared)
		}
		if name == "utf-8" && !utf8.Valid(body) {
			return nil, "", errInvalidUTF8
		}
		return body, name, nil
	}

	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && name == "windows-1252" && !hasCharsetHint(body) {
		if detected := detectCharset(body); detected != "" {
			if e, n := charset.Lookup(detected); e != nil {
				enc, name = e, n
			}
		}
	}

	if name == "utf-8" {
		return body, name, nil
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", name, err)
	}
	return decoded, name, nil
}

// hasCharsetHint reports whether the document head mentions a charset, in
// which case the meta prescan result is kept.
func hasCharsetHint(body []byte) bool {
	head := body
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("charset"))
}

func detectCharset(body []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil || result.Confidence < minDetectConfidence {
		return ""
	}
	return result.Charset
}
