package traveler

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Season 表示北半球的季节。
type Season string

const (
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
	Winter Season = "Winter"
)

var (
	introPattern = regexp.MustCompile(`(?i)(?:I'm|I\s+am|my\s+name\s+is)\s+([a-zA-Z]+)`)
	forPattern   = regexp.MustCompile(`(?i)for\s+([a-zA-Z]+)`)
)

// ExtractName 从 "I'm Jane"、"my name is Jane" 或 "for Jane" 这类表达中提取旅行者名字。
// 自我介绍优先于 "for" 形式。
func ExtractName(message string) (string, bool) {
	if match := introPattern.FindStringSubmatch(message); match != nil {
		return capitalize(match[1]), true
	}
	if match := forPattern.FindStringSubmatch(message); match != nil {
		return capitalize(match[1]), true
	}
	return "", false
}

// SeasonOf 根据月份返回北半球季节。
func SeasonOf(t time.Time) Season {
	switch month := t.Month(); {
	case month >= time.March && month <= time.May:
		return Spring
	case month >= time.June && month <= time.August:
		return Summer
	case month >= time.September && month <= time.November:
		return Autumn
	default:
		return Winter
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	first, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(first)) + lower[size:]
}
