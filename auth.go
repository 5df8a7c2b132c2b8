package deepcrawl

import (
	"encoding/json"
	"os"
	"strings"
)

// Cookie is a single browser cookie. The JSON tags match the cookie-file
// schema accepted by --cookies.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// CookieResult is the outcome of parsing cookie input. A zero-length
// Cookies slice means "absent". Warning carries a parse problem the
// caller may surface; parse problems never fail a run.
type CookieResult struct {
	Cookies []Cookie
	Warning string
}

// HeaderResult is the outcome of parsing an auth header string.
// A nil Headers map means "absent".
type HeaderResult struct {
	Headers map[string]string
	Warning string
}

// cookieInputKind classifies --cookies input before dispatching to the
// matching parser.
type cookieInputKind int

const (
	cookieInputEmpty cookieInputKind = iota
	cookieInputFile
	cookieInputInline
)

func classifyCookieInput(input string) cookieInputKind {
	if input == "" {
		return cookieInputEmpty
	}
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		return cookieInputFile
	}
	return cookieInputInline
}

// ParseCookies parses --cookies input, which is either a path to a JSON
// file holding an array of cookies, or an inline "name=value; name=value"
// string. Malformed files yield an absent result with a warning rather
// than an error.
func ParseCookies(input string) CookieResult {
	switch classifyCookieInput(input) {
	case cookieInputEmpty:
		return CookieResult{}
	case cookieInputFile:
		return parseCookieFile(input)
	default:
		return parseCookieString(input)
	}
}

func parseCookieFile(path string) CookieResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return CookieResult{Warning: "could not read cookie file " + path}
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return CookieResult{Warning: "could not parse cookie file " + path}
	}

	return CookieResult{Cookies: cookies}
}

func parseCookieString(input string) CookieResult {
	var cookies []Cookie
	for _, segment := range strings.Split(input, ";") {
		name, value, ok := strings.Cut(segment, "=")
		if !ok {
			// Segments without '=' are silently skipped.
			continue
		}
		cookies = append(cookies, Cookie{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: "", // Set by the browser.
			Path:   "/",
		})
	}
	return CookieResult{Cookies: cookies}
}

// ParseAuthHeader parses an "Key: value" auth header string into a
// single-entry header map. A string without ':' yields an absent result
// with a warning.
func ParseAuthHeader(input string) HeaderResult {
	if input == "" {
		return HeaderResult{}
	}

	key, value, ok := strings.Cut(input, ":")
	if !ok {
		return HeaderResult{Warning: "invalid auth header format: " + input}
	}

	return HeaderResult{Headers: map[string]string{
		strings.TrimSpace(key): strings.TrimSpace(value),
	}}
}
