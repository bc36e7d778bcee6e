package authorshiplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/rangeset"
)

// sectionSeparator is the line dividing the text attestation section from
// the JSON metadata section (spec §6).
const sectionSeparator = "---"

// Marshal renders log into its wire format: per-file attestations, a bare
// "---" line, then the metadata JSON.
func Marshal(log Log) (string, error) {
	var b strings.Builder

	attestations := append([]FileAttestation(nil), log.Attestations...)
	sort.Slice(attestations, func(i, j int) bool { return attestations[i].FilePath < attestations[j].FilePath })

	for _, fa := range attestations {
		entries := append([]Entry(nil), fa.Entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })
		if len(entries) == 0 {
			continue
		}

		fmt.Fprintln(&b, quotePathIfNeeded(fa.FilePath))
		for _, e := range entries {
			fmt.Fprintf(&b, "  %s %s\n", e.Hash, formatRangeList(e.LineRanges))
		}
	}

	fmt.Fprintln(&b, sectionSeparator)

	wireMeta, err := toWireMetadata(log.Metadata)
	if err != nil {
		return "", fmt.Errorf("authorshiplog: marshaling metadata: %w", err)
	}
	metaJSON, err := json.MarshalIndent(wireMeta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("authorshiplog: encoding metadata: %w", err)
	}
	b.Write(metaJSON)
	b.WriteByte('\n')

	return b.String(), nil
}

// Parse decodes the wire format produced by Marshal. An unknown schema
// version is refused, not upgraded.
func Parse(data string) (Log, error) {
	scanner := bufio.NewScanner(strings.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var attestations []FileAttestation
	var current *FileAttestation
	var jsonLines []string
	inMetadata := false

	for scanner.Scan() {
		line := scanner.Text()
		if inMetadata {
			jsonLines = append(jsonLines, line)
			continue
		}
		if line == sectionSeparator {
			inMetadata = true
			continue
		}
		if strings.HasPrefix(line, "  ") {
			if current == nil {
				return Log{}, fmt.Errorf("authorshiplog: entry line with no preceding file path: %q", line)
			}
			hash, ranges, err := parseEntryLine(strings.TrimPrefix(line, "  "))
			if err != nil {
				return Log{}, fmt.Errorf("authorshiplog: %w", err)
			}
			current.Entries = append(current.Entries, Entry{Hash: hash, LineRanges: ranges})
			continue
		}
		if current != nil {
			attestations = append(attestations, *current)
		}
		path, err := unquotePathIfNeeded(line)
		if err != nil {
			return Log{}, fmt.Errorf("authorshiplog: invalid file path line %q: %w", line, err)
		}
		current = &FileAttestation{FilePath: path}
	}
	if current != nil {
		attestations = append(attestations, *current)
	}
	if err := scanner.Err(); err != nil {
		return Log{}, fmt.Errorf("authorshiplog: scanning: %w", err)
	}

	var wireMeta wireMetadata
	if err := json.Unmarshal([]byte(strings.Join(jsonLines, "\n")), &wireMeta); err != nil {
		return Log{}, fmt.Errorf("authorshiplog: parsing metadata: %w", err)
	}
	if wireMeta.SchemaVersion != SchemaVersion {
		return Log{}, fmt.Errorf("authorshiplog: unsupported schema version %q", wireMeta.SchemaVersion)
	}
	meta, err := fromWireMetadata(wireMeta)
	if err != nil {
		return Log{}, fmt.Errorf("authorshiplog: %w", err)
	}

	return Log{Attestations: attestations, Metadata: meta}, nil
}

func formatRangeList(ranges rangeset.Set) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

func parseEntryLine(line string) (string, rangeset.Set, error) {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) != 2 {
		return "", nil, fmt.Errorf("malformed entry line %q", line)
	}
	hash, rangeList := fields[0], fields[1]

	var parsed []rangeset.Range
	for _, tok := range strings.Split(rangeList, ",") {
		if tok == "" {
			continue
		}
		if dash := strings.IndexByte(tok, '-'); dash >= 0 {
			start, err := strconv.Atoi(tok[:dash])
			if err != nil {
				return "", nil, fmt.Errorf("malformed range %q: %w", tok, err)
			}
			end, err := strconv.Atoi(tok[dash+1:])
			if err != nil {
				return "", nil, fmt.Errorf("malformed range %q: %w", tok, err)
			}
			parsed = append(parsed, rangeset.Span(start, end))
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return "", nil, fmt.Errorf("malformed range %q: %w", tok, err)
		}
		parsed = append(parsed, rangeset.Single(n))
	}
	return hash, rangeset.Merge(parsed), nil
}

// quotePathIfNeeded quotes a file path using Go string-quoting rules
// whenever it contains whitespace, so the entry-line prefix rule ("  ") is
// unambiguous on read.
func quotePathIfNeeded(path string) string {
	if strings.ContainsAny(path, " \t\"") {
		return strconv.Quote(path)
	}
	return path
}

func unquotePathIfNeeded(line string) (string, error) {
	if strings.HasPrefix(line, "\"") {
		return strconv.Unquote(line)
	}
	return line, nil
}

// wireAgentID, wireRecord, and wireMetadata mirror the exact JSON shape the
// wire format specifies (spec §6), which differs in field names from the
// internal prompt.Record/AgentID types (e.g. "id" not "session_id",
// "messages" not "transcript").
type wireAgentID struct {
	Tool      string `json:"tool"`
	ID        string `json:"id"`
	Model     string `json:"model,omitempty"`
}

type wireRecord struct {
	AgentID        wireAgentID     `json:"agent_id"`
	HumanAuthor    *string         `json:"human_author"`
	Messages       []prompt.Message `json:"messages"`
	TotalAdditions int             `json:"total_additions"`
	TotalDeletions int             `json:"total_deletions"`
	AcceptedLines  int             `json:"accepted_lines"`
}

type wireMetadata struct {
	SchemaVersion string                `json:"schema_version"`
	BaseCommitSHA string                `json:"base_commit_sha"`
	Prompts       map[string]wireRecord `json:"prompts"`
}

func toWireMetadata(m Metadata) (wireMetadata, error) {
	prompts := make(map[string]wireRecord, len(m.Prompts))
	for hash, rec := range m.Prompts {
		var humanAuthor *string
		if rec.HumanAuthor != "" {
			humanAuthor = &rec.HumanAuthor
		}
		prompts[hash] = wireRecord{
			AgentID:        wireAgentID{Tool: rec.AgentID.Tool, ID: rec.AgentID.SessionID, Model: rec.AgentID.Model},
			HumanAuthor:    humanAuthor,
			Messages:       rec.Transcript,
			TotalAdditions: rec.TotalAdditions,
			TotalDeletions: rec.TotalDeletions,
			AcceptedLines:  rec.AcceptedLines,
		}
	}
	return wireMetadata{
		SchemaVersion: m.SchemaVersion,
		BaseCommitSHA: m.BaseCommitSHA,
		Prompts:       prompts,
	}, nil
}

func fromWireMetadata(w wireMetadata) (Metadata, error) {
	prompts := make(prompt.Table, len(w.Prompts))
	for hash, rec := range w.Prompts {
		var humanAuthor string
		if rec.HumanAuthor != nil {
			humanAuthor = *rec.HumanAuthor
		}
		prompts[hash] = prompt.Record{
			AgentID:        prompt.AgentID{Tool: rec.AgentID.Tool, SessionID: rec.AgentID.ID, Model: rec.AgentID.Model},
			HumanAuthor:    humanAuthor,
			Transcript:     rec.Messages,
			TotalAdditions: rec.TotalAdditions,
			TotalDeletions: rec.TotalDeletions,
			AcceptedLines:  rec.AcceptedLines,
		}
	}
	return Metadata{
		SchemaVersion: w.SchemaVersion,
		BaseCommitSHA: w.BaseCommitSHA,
		Prompts:       prompts,
	}, nil
}
