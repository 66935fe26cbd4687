// Package votingservice implements poll-style voting inside the
// community-polls context.
//
// The module owns question and answer option administration, single-vote
// recording with a configurable duplicate policy, and live result tallies
// derived from the vote ledger. Vote and result notifications fan out to
// audit, metrics, and outbox observers; the outbox is relayed to the event
// bus by the worker process.
package votingservice
