package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	votingerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	votinghttp "pollster/contexts/community-polls/voting-service/transport/http"
)

type voterHandler func(w http.ResponseWriter, r *http.Request, voter entities.Voter)

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{Code: code, Message: message})
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrMismatch):
		writeVotingError(w, http.StatusBadRequest, "answer_mismatch", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidSelectedOption):
		writeVotingError(w, http.StatusBadRequest, "invalid_selected_option", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidInput):
		writeVotingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, votingerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, votingerrors.ErrIdentifierTaken):
		writeVotingError(w, http.StatusConflict, "identifier_taken", err.Error())
	case errors.Is(err, votingerrors.ErrAnswerOptionExists):
		writeVotingError(w, http.StatusConflict, "answer_option_exists", err.Error())
	case errors.Is(err, votingerrors.ErrQuestionInUse),
		errors.Is(err, votingerrors.ErrAnswerOptionInUse):
		writeVotingError(w, http.StatusConflict, "in_use", err.Error())
	case errors.Is(err, votingerrors.ErrNotFound):
		writeVotingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, votingerrors.ErrVotingDisabled):
		writeVotingError(w, http.StatusForbidden, "voting_disabled", err.Error())
	case errors.Is(err, votingerrors.ErrQuestionClosed):
		writeVotingError(w, http.StatusForbidden, "question_closed", err.Error())
	case errors.Is(err, votingerrors.ErrForbidden):
		writeVotingError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, votingerrors.ErrAnonymousVotingDisabled):
		writeVotingError(w, http.StatusUnauthorized, "anonymous_voting_disabled", err.Error())
	case errors.Is(err, votingerrors.ErrUnauthorized):
		writeVotingError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func bearerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// withVoter checks the API key, then resolves the voter from X-Voter-Token.
func (s *Server) withVoter(next voterHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			writeVotingError(w, http.StatusUnauthorized, "invalid_api_key", "Authorization bearer api key is required")
			return
		}
		if err := s.voting.Handler.AuthenticateAPIKey(r.Context(), key); err != nil {
			if errors.Is(err, votingerrors.ErrUnauthorized) {
				writeVotingError(w, http.StatusUnauthorized, "invalid_api_key", "api key is not valid")
				return
			}
			writeVotingDomainError(w, err)
			return
		}

		voter, err := s.tokens.Voter(r.Header.Get("X-Voter-Token"))
		if err != nil {
			s.logger.Warn("voter token rejected",
				"event", "http_voter_token_rejected",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"path", r.URL.Path,
			)
			writeVotingError(w, http.StatusUnauthorized, "invalid_voter_token", err.Error())
			return
		}
		next(w, r, voter)
	}
}

func (s *Server) withAdmin(next voterHandler) http.HandlerFunc {
	return s.withVoter(func(w http.ResponseWriter, r *http.Request, voter entities.Voter) {
		if !voter.Admin {
			writeVotingError(w, http.StatusForbidden, "forbidden", "admin role is required")
			return
		}
		next(w, r, voter)
	})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request, voter entities.Voter) {
	resp, err := s.voting.Handler.ListQuestionsHandler(r.Context(), voter)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request, voter entities.Voter) {
	resp, err := s.voting.Handler.GetQuestionHandler(r.Context(), voter, r.PathValue("question_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, voter entities.Voter) {
	if !s.voting.Handler.ResultsVisible(voter) {
		writeVotingError(w, http.StatusForbidden, "results_hidden", "results are not published")
		return
	}
	questionID := r.PathValue("question_id")
	if !voter.Admin {
		// Hidden questions stay invisible to non-admins on every route.
		if _, err := s.voting.Handler.GetQuestionHandler(r.Context(), voter, questionID); err != nil {
			writeVotingDomainError(w, err)
			return
		}
	}
	resp, err := s.voting.Handler.ResultsHandler(r.Context(), questionID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request, voter entities.Voter) {
	var req votinghttp.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.SubmitVoteHandler(r.Context(), voter, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUserVotes(w http.ResponseWriter, r *http.Request, voter entities.Voter) {
	if voter.IsAnonymous() {
		writeVotingError(w, http.StatusUnauthorized, "voter_token_required", "X-Voter-Token is required")
		return
	}
	resp, err := s.voting.Handler.UserVotesHandler(r.Context(), voter)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	var req votinghttp.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CreateQuestionHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	var req votinghttp.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.UpdateQuestionHandler(r.Context(), r.PathValue("question_id"), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	if err := s.voting.Handler.DeleteQuestionHandler(r.Context(), r.PathValue("question_id")); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAnswerOption(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	var req votinghttp.AnswerOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CreateAnswerOptionHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateAnswerOption(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	var req votinghttp.AnswerOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.UpdateAnswerOptionHandler(r.Context(), r.PathValue("answer_id"), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAnswerOption(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	if err := s.voting.Handler.DeleteAnswerOptionHandler(r.Context(), r.PathValue("answer_id")); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateAPIKey(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	resp, err := s.voting.Handler.GenerateAPIKeyHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	resp, err := s.voting.Handler.ListAPIKeysHandler(r.Context())
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request, _ entities.Voter) {
	if err := s.voting.Handler.DeleteAPIKeyHandler(r.Context(), r.PathValue("api_key_id")); err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
