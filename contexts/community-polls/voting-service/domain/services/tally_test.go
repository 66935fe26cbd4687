package services

import (
	"math"
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
)

func vote(id string, answerID string, tag string) entities.Vote {
	return entities.Vote{
		VoteID:         id,
		UserID:         "user-" + id,
		QuestionID:     "q1",
		AnswerOptionID: answerID,
		SelectedOption: tag,
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestTallyZeroVotesHasNoPercentages(t *testing.T) {
	result := Tally("q1", nil, entities.GroupByAnswerOption, nil)
	if result.TotalVotes != 0 {
		t.Fatalf("expected zero total, got %d", result.TotalVotes)
	}
	if len(result.Groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(result.Groups))
	}
	if len(result.Percentages()) != 0 {
		t.Fatalf("expected empty percentages, got %v", result.Percentages())
	}
	if Percentage(3, 0) != 0 {
		t.Fatalf("expected zero percentage for empty total")
	}
}

func TestTallyByAnswerOption(t *testing.T) {
	result := Tally("q1", []entities.Vote{
		vote("v1", "a1", ""),
		vote("v2", "a2", ""),
	}, entities.GroupByAnswerOption, map[string]string{"a1": "Yes"})

	if result.TotalVotes != 2 {
		t.Fatalf("expected total 2, got %d", result.TotalVotes)
	}
	percentages := result.Percentages()
	if percentages["a1"] != 50 || percentages["a2"] != 50 {
		t.Fatalf("expected 50/50 split, got %v", percentages)
	}
	if result.Groups[0].Label != "Yes" || result.Groups[1].Label != "a2" {
		t.Fatalf("unexpected labels: %+v", result.Groups)
	}
}

func TestTallyBySelectedOptionNormalizesCase(t *testing.T) {
	result := Tally("q1", []entities.Vote{
		vote("v1", "a1", "Title"),
		vote("v2", "a1", "title"),
		vote("v3", "a1", "Image"),
	}, entities.GroupBySelectedOption, nil)

	counts := result.Counts()
	if len(counts) != 2 || counts["title"] != 2 || counts["image"] != 1 {
		t.Fatalf("expected {title:2, image:1}, got %v", counts)
	}
	if result.Groups[0].Label != "Title" || result.Groups[1].Label != "Image" {
		t.Fatalf("expected capitalized labels, got %+v", result.Groups)
	}
}

func TestTallyPercentagesSumToHundred(t *testing.T) {
	votes := []entities.Vote{
		vote("v1", "a1", ""),
		vote("v2", "a2", ""),
		vote("v3", "a3", ""),
		vote("v4", "a1", ""),
		vote("v5", "a2", ""),
		vote("v6", "a1", ""),
		vote("v7", "a3", ""),
	}
	result := Tally("q1", votes, entities.GroupByAnswerOption, nil)
	sum := 0.0
	for _, value := range result.Percentages() {
		sum += value
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("expected percentages to sum to 100, got %f", sum)
	}
}

func TestHighestRatedTieIsStable(t *testing.T) {
	var votes []entities.Vote
	for i, answer := range []string{"a2", "a1", "a2", "a1", "a2", "a1"} {
		votes = append(votes, vote(string(rune('a'+i)), answer, ""))
	}
	for i := 0; i < 5; i++ {
		best, found := HighestRated(Tally("q1", votes, entities.GroupByAnswerOption, nil))
		if !found {
			t.Fatalf("expected highest rated group")
		}
		if best.Key != "a2" || best.Count != 3 {
			t.Fatalf("expected first-seen a2 with 3 votes, got %+v", best)
		}
	}

	if _, found := HighestRated(Tally("q1", nil, entities.GroupByAnswerOption, nil)); found {
		t.Fatalf("expected no highest rated group without votes")
	}
}

func TestUserVotesCountsRepeats(t *testing.T) {
	items := UserVotes([]entities.Vote{
		{VoteID: "v1", QuestionID: "q1", AnswerOptionID: "a1"},
		{VoteID: "v2", QuestionID: "q2", AnswerOptionID: "a9"},
		{VoteID: "v3", QuestionID: "q1", AnswerOptionID: "a2"},
	})
	if len(items) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(items))
	}
	if items[0].QuestionID != "q1" || items[0].AnswerOptionID != "a1" || items[0].VoteCount != 2 {
		t.Fatalf("unexpected first entry: %+v", items[0])
	}
	if items[1].VoteCount != 1 {
		t.Fatalf("unexpected second entry: %+v", items[1])
	}
}
