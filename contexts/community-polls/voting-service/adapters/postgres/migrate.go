package postgresadapter

import (
	"context"
	"fmt"

	"pollster/contexts/community-polls/voting-service/domain/entities"
)

const voteUniqueIndex = "ux_votes_question_user"

// Migrate creates the voting tables. With uniqueVotes set it also creates the
// partial unique index that makes InsertVote reject a second vote by the same
// user, anonymous and admin override votes excepted; otherwise the index is
// dropped.
func (r *Repository) Migrate(ctx context.Context, uniqueVotes bool) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&questionModel{},
		&answerOptionModel{},
		&voteModel{},
		&apiKeyModel{},
		&outboxModel{},
		&eventDedupModel{},
	); err != nil {
		return r.logError("voting_repo_migrate_failed", err)
	}

	statement := fmt.Sprintf("DROP INDEX IF EXISTS %s", voteUniqueIndex)
	if uniqueVotes {
		statement = fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS %s ON votes (question_id, user_id) WHERE user_id <> '%s' AND admin_override = false",
			voteUniqueIndex,
			entities.AnonymousUserID,
		)
	}
	if err := db.Exec(statement).Error; err != nil {
		return r.logError("voting_repo_migrate_vote_index_failed", err, "unique_votes", uniqueVotes)
	}
	r.logger.Info("voting schema migrated",
		"event", "voting_repo_migrated",
		"module", moduleName,
		"layer", "adapter",
		"unique_votes", uniqueVotes,
	)
	return nil
}
