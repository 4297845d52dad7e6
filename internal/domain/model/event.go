package model

// Repository identifies the repository an event belongs to.
type Repository struct {
	FullName string // "owner/repo"
	Owner    string
	Name     string
}

// PullRequestRef carries the PR fields the pipeline needs from a
// pull_request event payload.
type PullRequestRef struct {
	Number  int
	Title   string
	HeadSHA string
	BaseSHA string
	IsDraft bool
}

// PushCommit is a single commit from a push event payload.
type PushCommit struct {
	SHA     string
	Message string
}

// InboundEvent is a classified webhook delivery. It is immutable once built;
// the delivery id is the idempotence key for logging and diagnostics.
type InboundEvent struct {
	Kind        EventKind
	Action      string
	DeliveryID  string
	Repo        Repository
	Sender      string
	PullRequest *PullRequestRef // Set for pull_request events.
	Commits     []PushCommit    // Set for push events.
}

// actionableActions is the set of pull_request actions that trigger a scan.
var actionableActions = map[string]bool{
	"opened":           true,
	"synchronize":      true,
	"reopened":         true,
	"ready_for_review": true,
}

// Actionable reports whether this event should be processed. Pull request
// events are processed only for the actions that change reviewable content;
// push events are processed whenever they carry at least one commit. All
// other deliveries are acknowledged as no-ops.
func (e InboundEvent) Actionable() bool {
	switch e.Kind {
	case EventKindPullRequest:
		return e.PullRequest != nil && actionableActions[e.Action]
	case EventKindPush:
		return len(e.Commits) > 0
	default:
		return false
	}
}
