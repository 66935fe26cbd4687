package services

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun      = regexp.MustCompile(`\s+`)
	identifierDisallow = regexp.MustCompile(`[^a-z0-9_]`)
)

const fallbackIdentifier = "question"

// BaseIdentifier derives a slug from a question title: lower case, whitespace
// runs become underscores, anything outside [a-z0-9_] is dropped.
func BaseIdentifier(title string) string {
	base := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "_")
	base = identifierDisallow.ReplaceAllString(base, "")
	if base == "" {
		return fallbackIdentifier
	}
	return base
}

// UniqueIdentifier appends _N to the base slug when any existing identifier
// starts with it. N is one past the highest numeric suffix seen, minimum 1.
func UniqueIdentifier(title string, existing []string) string {
	base := BaseIdentifier(title)
	matched := false
	next := 1
	for _, identifier := range existing {
		if !strings.HasPrefix(identifier, base) {
			continue
		}
		matched = true
		pieces := strings.Split(identifier, "_")
		suffix, err := strconv.Atoi(pieces[len(pieces)-1])
		if err == nil && suffix >= next {
			next = suffix + 1
		}
	}
	if !matched {
		return base
	}
	return base + "_" + strconv.Itoa(next)
}
