package authorshiplog

import (
	"fmt"

	"github.com/entireio/gitauthor/internal/gitutil"
)

// Load reads and parses the authorship log attached to commitSHA. The
// second return value is false if no log is attached (spec §7: "missing
// authorship log for a blamed commit is treated as entire commit is human,
// not an error").
func Load(repo *gitutil.Repo, commitSHA string) (Log, bool, error) {
	text, ok, err := repo.ReadNote(commitSHA)
	if err != nil {
		return Log{}, false, fmt.Errorf("authorshiplog: reading note for %s: %w", commitSHA, err)
	}
	if !ok {
		return Log{}, false, nil
	}
	log, err := Parse(text)
	if err != nil {
		return Log{}, false, fmt.Errorf("authorshiplog: parsing note for %s: %w", commitSHA, err)
	}
	return log, true, nil
}

// Save serializes log and attaches it to commitSHA as a note, overwriting
// any prior log on that commit.
func Save(repo *gitutil.Repo, commitSHA string, log Log) error {
	text, err := Marshal(log)
	if err != nil {
		return fmt.Errorf("authorshiplog: marshaling log for %s: %w", commitSHA, err)
	}
	if err := repo.WriteNote(commitSHA, text); err != nil {
		return fmt.Errorf("authorshiplog: writing note for %s: %w", commitSHA, err)
	}
	return nil
}

// Delete removes commitSHA's authorship log, if any.
func Delete(repo *gitutil.Repo, commitSHA string) error {
	if err := repo.DeleteNote(commitSHA); err != nil {
		return fmt.Errorf("authorshiplog: deleting note for %s: %w", commitSHA, err)
	}
	return nil
}
