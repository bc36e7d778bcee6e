// Package validation provides input validation for identifiers that end up
// embedded in file paths or ref names, guarding against path traversal.
// This package has no internal dependencies, to avoid import cycles.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// pathSafeRegex matches alphanumeric characters, underscores, and hyphens
// only. Used to validate IDs that will be used in ref/file path segments.
var pathSafeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateCommitSHA validates that a string looks like a git object hash,
// since base-commit SHAs are used directly as working-log ref segments.
func ValidateCommitSHA(sha string) error {
	if sha == "" {
		return errors.New("commit SHA cannot be empty")
	}
	if strings.ContainsAny(sha, "/\\") {
		return fmt.Errorf("invalid commit SHA %q: contains path separators", sha)
	}
	if !pathSafeRegex.MatchString(sha) {
		return fmt.Errorf("invalid commit SHA %q: must be alphanumeric with underscores/hyphens only", sha)
	}
	return nil
}

// ValidateSessionID validates a prompt-session identifier doesn't contain
// path separators, so it is safe to embed in checkpoint trailers and paths.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("invalid session ID %q: contains path separators", id)
	}
	return nil
}

// ValidateAuthorHash validates a prompt-session hash has the expected width
// and hex alphabet before it is trusted as a map key or file-path segment.
func ValidateAuthorHash(hash string, wantLen int) error {
	if len(hash) != wantLen {
		return fmt.Errorf("invalid author hash %q: want %d hex chars, got %d", hash, wantLen, len(hash))
	}
	for _, r := range hash {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return fmt.Errorf("invalid author hash %q: not lowercase hex", hash)
		}
	}
	return nil
}
