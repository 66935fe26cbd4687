package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pollster/contexts/community-polls/voting-service/domain/entities"
)

// Tally groups votes by the configured mode. Groups keep the order in which
// their key first appears in votes, so callers must pass votes in a stable
// order (creation time, then id) to get reproducible output.
func Tally(
	questionID string,
	votes []entities.Vote,
	mode entities.GroupingMode,
	labels map[string]string,
) entities.ResultSet {
	result := entities.ResultSet{
		QuestionID: questionID,
		Mode:       mode,
		Groups:     make([]entities.ResultGroup, 0),
	}
	index := make(map[string]int)
	for _, vote := range votes {
		key, label := groupKey(vote, mode, labels)
		position, ok := index[key]
		if !ok {
			position = len(result.Groups)
			index[key] = position
			result.Groups = append(result.Groups, entities.ResultGroup{Key: key, Label: label})
		}
		result.Groups[position].Count++
		result.TotalVotes++
	}
	if result.TotalVotes == 0 {
		return result
	}
	for i := range result.Groups {
		result.Groups[i].Percentage = Percentage(result.Groups[i].Count, result.TotalVotes)
	}
	return result
}

// Percentage returns 0 instead of NaN when total is zero.
func Percentage(count int, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// HighestRated picks the group with the maximum count; ties resolve to the
// group that appears first.
func HighestRated(result entities.ResultSet) (entities.HighestRated, bool) {
	if len(result.Groups) == 0 {
		return entities.HighestRated{}, false
	}
	best := result.Groups[0]
	for _, group := range result.Groups[1:] {
		if group.Count > best.Count {
			best = group
		}
	}
	return entities.HighestRated{Key: best.Key, Label: best.Label, Count: best.Count}, true
}

// UserVotes reduces one voter's ledger rows to one entry per question,
// keeping the first answer seen and counting repeats.
func UserVotes(votes []entities.Vote) []entities.UserVote {
	items := make([]entities.UserVote, 0)
	index := make(map[string]int)
	for _, vote := range votes {
		if position, ok := index[vote.QuestionID]; ok {
			items[position].VoteCount++
			continue
		}
		index[vote.QuestionID] = len(items)
		items = append(items, entities.UserVote{
			QuestionID:     vote.QuestionID,
			AnswerOptionID: vote.AnswerOptionID,
			VoteCount:      1,
		})
	}
	return items
}

func groupKey(vote entities.Vote, mode entities.GroupingMode, labels map[string]string) (string, string) {
	if mode == entities.GroupBySelectedOption {
		key := strings.ToLower(strings.TrimSpace(vote.SelectedOption))
		return key, capitalize(key)
	}
	key := vote.AnswerOptionID
	if label, ok := labels[key]; ok && strings.TrimSpace(label) != "" {
		return key, label
	}
	return key, key
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	first, size := utf8.DecodeRuneInString(value)
	return string(unicode.ToUpper(first)) + value[size:]
}
