package entities

type ResultGroup struct {
	Key        string
	Label      string
	Count      int
	Percentage float64
}

type ResultSet struct {
	QuestionID string
	Mode       GroupingMode
	Groups     []ResultGroup
	TotalVotes int
}

// Counts returns the raw group map carried by result notifications.
func (r ResultSet) Counts() map[string]int {
	counts := make(map[string]int, len(r.Groups))
	for _, group := range r.Groups {
		counts[group.Key] = group.Count
	}
	return counts
}

// Percentages is empty when no votes exist.
func (r ResultSet) Percentages() map[string]float64 {
	percentages := make(map[string]float64, len(r.Groups))
	if r.TotalVotes == 0 {
		return percentages
	}
	for _, group := range r.Groups {
		percentages[group.Key] = group.Percentage
	}
	return percentages
}

type HighestRated struct {
	Key   string
	Label string
	Count int
}

type UserVote struct {
	QuestionID     string
	AnswerOptionID string
	VoteCount      int
}
