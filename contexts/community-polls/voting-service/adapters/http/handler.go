package httpadapter

import (
	"context"
	"log/slog"

	"pollster/contexts/community-polls/voting-service/application/commands"
	"pollster/contexts/community-polls/voting-service/application/queries"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	httptransport "pollster/contexts/community-polls/voting-service/transport/http"
)

// Handler maps transport DTOs onto the voting use cases. It knows nothing
// about net/http; the platform server owns routing and status codes.
type Handler struct {
	Votes         commands.VoteRecorder
	Results       queries.ResultsAggregator
	Questions     queries.QuestionQueries
	Auth          queries.APIKeyAuthenticator
	QuestionAdmin commands.QuestionUseCase
	AnswerAdmin   commands.AnswerOptionUseCase
	APIKeyAdmin   commands.APIKeyUseCase
	Settings      entities.Settings
	Logger        *slog.Logger
}

func (h Handler) AuthenticateAPIKey(ctx context.Context, key string) error {
	_, err := h.Auth.Authenticate(ctx, key)
	return err
}

func (h Handler) SubmitVoteHandler(
	ctx context.Context,
	voter entities.Voter,
	req httptransport.SubmitVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Votes.Submit(ctx, commands.SubmitVoteCommand{
		Voter:          voter,
		QuestionID:     req.QuestionID,
		AnswerOptionID: req.AnswerOptionID,
		SelectedOption: req.SelectedOption,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(result.Vote), nil
}

func (h Handler) ListQuestionsHandler(ctx context.Context, voter entities.Voter) (httptransport.QuestionListResponse, error) {
	items, err := h.Questions.ListQuestions(ctx, voter)
	if err != nil {
		return httptransport.QuestionListResponse{}, err
	}
	response := httptransport.QuestionListResponse{Items: make([]httptransport.QuestionResponse, 0, len(items))}
	for _, item := range items {
		response.Items = append(response.Items, mapQuestion(item))
	}
	return response, nil
}

func (h Handler) GetQuestionHandler(
	ctx context.Context,
	voter entities.Voter,
	questionID string,
) (httptransport.QuestionDetailResponse, error) {
	detail, err := h.Questions.GetQuestion(ctx, voter, questionID)
	if err != nil {
		return httptransport.QuestionDetailResponse{}, err
	}
	response := httptransport.QuestionDetailResponse{
		Question:      mapQuestion(detail.Question),
		AnswerOptions: make([]httptransport.AnswerOptionResponse, 0, len(detail.AnswerOptions)),
	}
	for _, option := range detail.AnswerOptions {
		response.AnswerOptions = append(response.AnswerOptions, mapAnswerOption(option))
	}
	return response, nil
}

// ResultsVisible reports whether voter may see aggregated results.
func (h Handler) ResultsVisible(voter entities.Voter) bool {
	return h.Settings.ShowResults || voter.Admin
}

func (h Handler) ResultsHandler(ctx context.Context, questionID string) (httptransport.ResultsResponse, error) {
	summary, err := h.Results.Summarize(ctx, questionID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	result := summary.Results
	response := httptransport.ResultsResponse{
		QuestionID:  result.QuestionID,
		Mode:        string(result.Mode),
		TotalVotes:  result.TotalVotes,
		Groups:      make([]httptransport.ResultGroupResponse, 0, len(result.Groups)),
		Counts:      result.Counts(),
		Percentages: result.Percentages(),
	}
	for _, group := range result.Groups {
		response.Groups = append(response.Groups, httptransport.ResultGroupResponse{
			Key:        group.Key,
			Label:      group.Label,
			Count:      group.Count,
			Percentage: group.Percentage,
		})
	}
	if summary.HasHighest {
		response.HighestRated = &httptransport.HighestRatedResponse{
			Key:   summary.Highest.Key,
			Label: summary.Highest.Label,
			Count: summary.Highest.Count,
		}
	}
	return response, nil
}

func (h Handler) UserVotesHandler(ctx context.Context, voter entities.Voter) (httptransport.UserVotesResponse, error) {
	userID := voter.EffectiveUserID()
	items, err := h.Results.UserVotes(ctx, userID)
	if err != nil {
		return httptransport.UserVotesResponse{}, err
	}
	response := httptransport.UserVotesResponse{
		UserID: userID,
		Items:  make([]httptransport.UserVoteResponse, 0, len(items)),
	}
	for _, item := range items {
		response.Items = append(response.Items, httptransport.UserVoteResponse{
			QuestionID:     item.QuestionID,
			AnswerOptionID: item.AnswerOptionID,
			VoteCount:      item.VoteCount,
		})
	}
	return response, nil
}

func (h Handler) CreateQuestionHandler(ctx context.Context, req httptransport.QuestionRequest) (httptransport.QuestionResponse, error) {
	question, err := h.QuestionAdmin.CreateQuestion(ctx, commands.CreateQuestionCommand{
		Title:       req.Title,
		Identifier:  req.Identifier,
		Visible:     visibleOrDefault(req.Visible),
		ActivatesAt: req.ActivatesAt,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return httptransport.QuestionResponse{}, err
	}
	return mapQuestion(question), nil
}

func (h Handler) UpdateQuestionHandler(
	ctx context.Context,
	questionID string,
	req httptransport.QuestionRequest,
) (httptransport.QuestionResponse, error) {
	question, err := h.QuestionAdmin.UpdateQuestion(ctx, commands.UpdateQuestionCommand{
		QuestionID:  questionID,
		Title:       req.Title,
		Identifier:  req.Identifier,
		Visible:     visibleOrDefault(req.Visible),
		ActivatesAt: req.ActivatesAt,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return httptransport.QuestionResponse{}, err
	}
	return mapQuestion(question), nil
}

func (h Handler) DeleteQuestionHandler(ctx context.Context, questionID string) error {
	return h.QuestionAdmin.DeleteQuestion(ctx, questionID)
}

func (h Handler) CreateAnswerOptionHandler(
	ctx context.Context,
	req httptransport.AnswerOptionRequest,
) (httptransport.AnswerOptionResponse, error) {
	option, err := h.AnswerAdmin.CreateAnswerOption(ctx, commands.CreateAnswerOptionCommand{
		QuestionID:  req.QuestionID,
		Title:       req.Title,
		ImageRef:    req.ImageRef,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.AnswerOptionResponse{}, err
	}
	return mapAnswerOption(option), nil
}

func (h Handler) UpdateAnswerOptionHandler(
	ctx context.Context,
	answerOptionID string,
	req httptransport.AnswerOptionRequest,
) (httptransport.AnswerOptionResponse, error) {
	option, err := h.AnswerAdmin.UpdateAnswerOption(ctx, commands.UpdateAnswerOptionCommand{
		AnswerOptionID: answerOptionID,
		Title:          req.Title,
		ImageRef:       req.ImageRef,
		Description:    req.Description,
	})
	if err != nil {
		return httptransport.AnswerOptionResponse{}, err
	}
	return mapAnswerOption(option), nil
}

func (h Handler) DeleteAnswerOptionHandler(ctx context.Context, answerOptionID string) error {
	return h.AnswerAdmin.DeleteAnswerOption(ctx, answerOptionID)
}

func (h Handler) GenerateAPIKeyHandler(ctx context.Context) (httptransport.APIKeyResponse, error) {
	key, err := h.APIKeyAdmin.GenerateAPIKey(ctx)
	if err != nil {
		return httptransport.APIKeyResponse{}, err
	}
	return mapAPIKey(key), nil
}

func (h Handler) ListAPIKeysHandler(ctx context.Context) (httptransport.APIKeyListResponse, error) {
	keys, err := h.APIKeyAdmin.ListAPIKeys(ctx)
	if err != nil {
		return httptransport.APIKeyListResponse{}, err
	}
	response := httptransport.APIKeyListResponse{Items: make([]httptransport.APIKeyResponse, 0, len(keys))}
	for _, key := range keys {
		response.Items = append(response.Items, mapAPIKey(key))
	}
	return response, nil
}

func (h Handler) DeleteAPIKeyHandler(ctx context.Context, apiKeyID string) error {
	return h.APIKeyAdmin.DeleteAPIKey(ctx, apiKeyID)
}

func visibleOrDefault(value *bool) bool {
	if value == nil {
		return true
	}
	return *value
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:         vote.VoteID,
		QuestionID:     vote.QuestionID,
		AnswerOptionID: vote.AnswerOptionID,
		UserID:         vote.UserID,
		SelectedOption: vote.SelectedOption,
		CreatedAt:      vote.CreatedAt,
	}
}

func mapQuestion(question entities.Question) httptransport.QuestionResponse {
	return httptransport.QuestionResponse{
		QuestionID:  question.QuestionID,
		Title:       question.Title,
		Identifier:  question.Identifier,
		Visible:     question.Visible,
		ActivatesAt: question.ActivatesAt,
		ExpiresAt:   question.ExpiresAt,
		CreatedAt:   question.CreatedAt,
		UpdatedAt:   question.UpdatedAt,
	}
}

func mapAnswerOption(option entities.AnswerOption) httptransport.AnswerOptionResponse {
	return httptransport.AnswerOptionResponse{
		AnswerOptionID: option.AnswerOptionID,
		QuestionID:     option.QuestionID,
		Title:          option.Title,
		ImageRef:       option.ImageRef,
		Description:    option.Description,
		CreatedAt:      option.CreatedAt,
		UpdatedAt:      option.UpdatedAt,
	}
}

func mapAPIKey(key entities.APIKey) httptransport.APIKeyResponse {
	return httptransport.APIKeyResponse{
		APIKeyID:  key.APIKeyID,
		Key:       key.Key,
		CreatedAt: key.CreatedAt,
	}
}
