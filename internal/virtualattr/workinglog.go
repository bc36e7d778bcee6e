package virtualattr

import (
	"context"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/workinglog"
)

// FromWorkingLog builds the blame-derived VA for pathspecs, then overlays
// the working log's INITIAL seed and checkpoints on top of it (later
// checkpoints replace earlier ones, file by file, since each checkpoint
// records a full snapshot of its files' attributions rather than a diff),
// merging the result favoring the checkpoint-derived state via
// MergeFavoringPrimary against the current working-tree content
// (spec §4.4, from_working_log).
func FromWorkingLog(ctx context.Context, repo *gitutil.Repo, store *workinglog.Store, baseCommit string, pathspecs []string, workingTreeContents map[string]string, ts time.Time) (*VA, error) {
	blameVA, err := FromBlame(ctx, repo, baseCommit, pathspecs, ts)
	if err != nil {
		return nil, err
	}

	seedFiles, seedPrompts, err := store.ReadInitialAttributions()
	if err != nil {
		return nil, err
	}
	checkpoints, err := store.ReadAllCheckpoints()
	if err != nil {
		return nil, err
	}

	fileLineAttrs := make(map[string][]attribution.LineAttribution, len(seedFiles))
	for path, attrs := range seedFiles {
		fileLineAttrs[path] = attrs
	}
	checkpointPrompts := seedPrompts.Clone()
	if checkpointPrompts == nil {
		checkpointPrompts = prompt.Table{}
	}

	for _, cp := range checkpoints {
		for path, attrs := range cp.Entries {
			fileLineAttrs[path] = attrs
		}
		if cp.AgentID != nil {
			hash := cp.AgentID.Hash()
			checkpointPrompts[hash] = checkpointRecord(checkpointPrompts[hash], *cp.AgentID, cp.Transcript)
		}
	}

	checkpointCharAttrs := make(map[string][]attribution.Attribution, len(fileLineAttrs))
	for path, lineAttrs := range fileLineAttrs {
		content, ok := workingTreeContents[path]
		if !ok {
			continue
		}
		checkpointCharAttrs[path] = attribution.LineToChar(lineAttrs, content, ts)
	}

	checkpointVA := FromRaw(baseCommit, checkpointCharAttrs, workingTreeContents, checkpointPrompts, ts)

	tracker := attribution.New(attribution.DefaultConfig())
	return MergeFavoringPrimary(tracker, checkpointVA, blameVA, workingTreeContents, ts)
}

func checkpointRecord(existing prompt.Record, agentID prompt.AgentID, transcript []prompt.Message) prompt.Record {
	existing.AgentID = agentID
	if len(transcript) > 0 {
		existing.Transcript = transcript
	}
	return existing
}
