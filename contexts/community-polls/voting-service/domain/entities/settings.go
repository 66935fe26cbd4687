package entities

import "strings"

type DuplicatePolicy string

const (
	// DuplicatePolicySingle allows one vote per (voter, question) unless the
	// voter holds the admin override.
	DuplicatePolicySingle    DuplicatePolicy = "single"
	DuplicatePolicyUnlimited DuplicatePolicy = "unlimited"
)

func ParseDuplicatePolicy(raw string) DuplicatePolicy {
	if DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))) == DuplicatePolicyUnlimited {
		return DuplicatePolicyUnlimited
	}
	return DuplicatePolicySingle
}

type GroupingMode string

const (
	GroupByAnswerOption   GroupingMode = "answer_option"
	GroupBySelectedOption GroupingMode = "selected_option"
)

func ParseGroupingMode(raw string) GroupingMode {
	if GroupingMode(strings.ToLower(strings.TrimSpace(raw))) == GroupBySelectedOption {
		return GroupBySelectedOption
	}
	return GroupByAnswerOption
}

// Settings mirrors the site-level voting switches. SingleAnswerOptionPerQuestion
// only makes sense with GroupBySelectedOption; under answer-option grouping a
// lone option always tallies to 100%.
type Settings struct {
	VotingEnabled                 bool
	ShowResults                   bool
	AllowAnonymous                bool
	SingleAnswerOptionPerQuestion bool
	DuplicatePolicy               DuplicatePolicy
	GroupingMode                  GroupingMode
}

func DefaultSettings() Settings {
	return Settings{
		VotingEnabled:                 true,
		ShowResults:                   true,
		AllowAnonymous:                false,
		SingleAnswerOptionPerQuestion: false,
		DuplicatePolicy:               DuplicatePolicySingle,
		GroupingMode:                  GroupByAnswerOption,
	}
}
