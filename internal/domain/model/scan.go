package model

// ScanFile is the per-file payload sent to the analysis backend.
type ScanFile struct {
	Path      string     `json:"path"`
	Status    FileStatus `json:"status"`
	Content   string     `json:"content,omitempty"`
	Patch     string     `json:"patch,omitempty"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
}

// ScanRequest is the normalized request submitted to the analysis backend.
// Field names follow the backend's JSON contract. A request is constructed
// once per event (or per commit within a push) and never mutated.
type ScanRequest struct {
	Repository        string     `json:"repository"`
	PullRequestNumber int        `json:"pull_request_number,omitempty"`
	CommitSHA         string     `json:"commit_sha,omitempty"`
	Files             []ScanFile `json:"files"`
	DetectAI          bool       `json:"detect_copilot"`
}

// BuildScanRequest assembles a ScanRequest from changed files. Removed files
// and files with neither content nor patch are excluded from the payload.
func BuildScanRequest(repo string, prNumber int, commitSHA string, files []ChangedFile, detectAI bool) ScanRequest {
	payload := make([]ScanFile, 0, len(files))
	for _, f := range files {
		if !f.HasScanContent() {
			continue
		}
		payload = append(payload, ScanFile{
			Path:      f.Path,
			Status:    f.Status,
			Content:   f.Content,
			Patch:     f.Patch,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
	}
	return ScanRequest{
		Repository:        repo,
		PullRequestNumber: prNumber,
		CommitSHA:         commitSHA,
		Files:             payload,
		DetectAI:          detectAI,
	}
}

// Violation is a single flagged issue anchored to a file and line.
type Violation struct {
	RuleID        string            `json:"rule_id"`
	RuleName      string            `json:"rule_name"`
	Category      ViolationCategory `json:"category"`
	Severity      Severity          `json:"severity"`
	FilePath      string            `json:"file_path"`
	LineNumber    int               `json:"line_number"`
	Message       string            `json:"message"`
	Explanation   string            `json:"explanation"`
	FixSuggestion string            `json:"fix_suggestion,omitempty"`
	StandardRefs  []string          `json:"standard_mappings,omitempty"`
	AIGenerated   bool              `json:"is_copilot_generated"`
}

// ScanResult is the analysis backend's response, plus the bridge-side
// degradation marker. Summary is opaque backend data; severity counts the
// publisher needs are derived from Violations directly.
type ScanResult struct {
	ScanID           string          `json:"scan_id"`
	Repository       string          `json:"repository"`
	Violations       []Violation     `json:"violations"`
	Summary          map[string]any  `json:"summary,omitempty"`
	EnforcementMode  EnforcementMode `json:"enforcement_action"`
	CanMerge         bool            `json:"can_merge"`
	ProcessingTimeMS float64         `json:"processing_time_ms"`

	// Degraded marks a result synthesized by the bridge because the backend
	// could not produce one. DegradedCause is human-readable.
	Degraded      bool   `json:"degraded,omitempty"`
	DegradedCause string `json:"degraded_cause,omitempty"`
}

// DegradedResult builds the non-blocking fallback returned when the analysis
// backend is unreachable or rejected the request. A down backend must never
// itself block merges, so the enforcement mode defaults to advisory and the
// changeset stays mergeable.
func DegradedResult(repo, cause string) ScanResult {
	return ScanResult{
		Repository:      repo,
		Violations:      []Violation{},
		EnforcementMode: EnforcementAdvisory,
		CanMerge:        true,
		Degraded:        true,
		DegradedCause:   cause,
	}
}

// CleanResult builds the result published when an event carries no scannable
// files, short-circuiting the pipeline without invoking the backend.
func CleanResult(repo string) ScanResult {
	return ScanResult{
		Repository:      repo,
		Violations:      []Violation{},
		EnforcementMode: EnforcementAdvisory,
		CanMerge:        true,
	}
}

// SeverityCounts returns the number of violations at each severity level.
func (r ScanResult) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, v := range r.Violations {
		counts[v.Severity]++
	}
	return counts
}

// StatusState maps the result to the commit-status state the publisher sets:
// error for degraded results, failure when the backend says the changeset
// cannot merge, success otherwise.
func (r ScanResult) StatusState() StatusState {
	switch {
	case r.Degraded:
		return StatusError
	case !r.CanMerge:
		return StatusFailure
	default:
		return StatusSuccess
	}
}
