package model

// EventKind classifies an inbound webhook delivery.
type EventKind string

const (
	EventKindPullRequest EventKind = "pull_request"
	EventKindPush        EventKind = "push"
	EventKindReview      EventKind = "review"
)

// FileStatus represents what happened to a file in a changeset.
type FileStatus string

const (
	FileStatusAdded    FileStatus = "added"
	FileStatusModified FileStatus = "modified"
	FileStatusRemoved  FileStatus = "removed"
	FileStatusRenamed  FileStatus = "renamed"
)

// Severity represents the severity level assigned to a violation by the
// analysis backend.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EnforcementMode is the backend's policy decision on how violations should
// affect the merge workflow. The bridge renders it; it never decides it.
type EnforcementMode string

const (
	EnforcementAdvisory EnforcementMode = "advisory"
	EnforcementWarning  EnforcementMode = "warning"
	EnforcementBlocking EnforcementMode = "blocking"
)

// ViolationCategory groups violations by the kind of rule that produced them.
type ViolationCategory string

const (
	CategorySecurity    ViolationCategory = "security"
	CategoryCompliance  ViolationCategory = "compliance"
	CategoryCodeQuality ViolationCategory = "code_quality"
	CategoryLicense     ViolationCategory = "license"
	CategoryIPRisk      ViolationCategory = "ip_risk"
	CategoryStandard    ViolationCategory = "standard"
)

// StatusState is a GitHub commit status state.
type StatusState string

const (
	StatusSuccess StatusState = "success"
	StatusFailure StatusState = "failure"
	StatusError   StatusState = "error"
)
