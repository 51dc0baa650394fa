package helpers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	goaway "github.com/TwiN/go-away"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	RefreshTokenMaxAge = 3600 * 24 * 30
)

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	numberRe  = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[@$!%*?&]`)
)

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowerRe.MatchString(password) &&
		upperRe.MatchString(password) &&
		numberRe.MatchString(password) &&
		specialRe.MatchString(password)
}

// StringTrim trims whitespace and surrounding quotes, which show up when
// clients template ids into URLs.
func StringTrim(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'")
}

// CensorText masks profane words with asterisks.
func CensorText(text string) string {
	return goaway.Censor(text)
}

func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// NormalizePostalCode strips spaces, upper-cases and keeps the first six
// characters ("m5v 2t6" -> "M5V2T6").
func NormalizePostalCode(code string) string {
	code = strings.ToUpper(strings.ReplaceAll(code, " ", ""))
	if len(code) > 6 {
		code = code[:6]
	}
	return code
}

// TotalPages is ceil(total/pageSize); zero items is zero pages.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// SplitList parses a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
