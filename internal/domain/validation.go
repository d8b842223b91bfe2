package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxGameNameLength = 16
	MinGameNameLength = 3
	MaxTagLineLength  = 5
	MinTagLineLength  = 3
)

// platform routing value -> regional cluster
var platformClusters = map[string]string{
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"kr":   "asia",
	"jp1":  "asia",
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"me1":  "europe",
	"oc1":  "sea",
	"ph2":  "sea",
	"sg2":  "sea",
	"th2":  "sea",
	"tw2":  "sea",
	"vn2":  "sea",
}

// RegionalCluster maps a platform (e.g. "euw1") to the regional cluster
// serving account and match endpoints.
func RegionalCluster(platform string) (string, bool) {
	cluster, ok := platformClusters[strings.ToLower(platform)]
	return cluster, ok
}

// RiotID is a validated lookup request.
type RiotID struct {
	GameName string
	TagLine  string
	Region   string
}

func (r RiotID) String() string {
	return r.GameName + "#" + r.TagLine
}

func ValidateRiotID(gameName, tagLine, region string) (RiotID, error) {
	gameName = sanitize(gameName)
	tagLine = strings.TrimPrefix(sanitize(tagLine), "#")
	region = strings.ToLower(sanitize(region))

	if gameName == "" {
		return RiotID{}, &ValidationError{Field: "gameName", Message: "gameName is required"}
	}
	if n := utf8.RuneCountInString(gameName); n < MinGameNameLength || n > MaxGameNameLength {
		return RiotID{}, &ValidationError{
			Field:   "gameName",
			Message: fmt.Sprintf("gameName must be between %d and %d characters", MinGameNameLength, MaxGameNameLength),
		}
	}
	if strings.Contains(gameName, "  ") {
		return RiotID{}, &ValidationError{Field: "gameName", Message: "gameName cannot contain consecutive spaces"}
	}

	if tagLine == "" {
		return RiotID{}, &ValidationError{Field: "tagLine", Message: "tagLine is required"}
	}
	if n := utf8.RuneCountInString(tagLine); n < MinTagLineLength || n > MaxTagLineLength {
		return RiotID{}, &ValidationError{
			Field:   "tagLine",
			Message: fmt.Sprintf("tagLine must be between %d and %d characters", MinTagLineLength, MaxTagLineLength),
		}
	}
	for _, r := range tagLine {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return RiotID{}, &ValidationError{Field: "tagLine", Message: "tagLine contains invalid characters"}
		}
	}

	if region == "" {
		return RiotID{}, &ValidationError{Field: "region", Message: "region is required"}
	}
	if _, ok := platformClusters[region]; !ok {
		return RiotID{}, &ValidationError{Field: "region", Message: fmt.Sprintf("unknown region %q", region)}
	}

	return RiotID{GameName: gameName, TagLine: tagLine, Region: region}, nil
}

// sanitize drops control characters and trims surrounding whitespace.
func sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
