package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundEvent_Actionable(t *testing.T) {
	pr := &PullRequestRef{Number: 1, HeadSHA: "abc"}

	tests := []struct {
		name  string
		event InboundEvent
		want  bool
	}{
		{"pr opened", InboundEvent{Kind: EventKindPullRequest, Action: "opened", PullRequest: pr}, true},
		{"pr synchronize", InboundEvent{Kind: EventKindPullRequest, Action: "synchronize", PullRequest: pr}, true},
		{"pr reopened", InboundEvent{Kind: EventKindPullRequest, Action: "reopened", PullRequest: pr}, true},
		{"pr ready_for_review", InboundEvent{Kind: EventKindPullRequest, Action: "ready_for_review", PullRequest: pr}, true},
		{"pr closed", InboundEvent{Kind: EventKindPullRequest, Action: "closed", PullRequest: pr}, false},
		{"pr labeled", InboundEvent{Kind: EventKindPullRequest, Action: "labeled", PullRequest: pr}, false},
		{"pr without ref", InboundEvent{Kind: EventKindPullRequest, Action: "opened"}, false},
		{"push with commits", InboundEvent{Kind: EventKindPush, Commits: []PushCommit{{SHA: "abc"}}}, true},
		{"push without commits", InboundEvent{Kind: EventKindPush}, false},
		{"review event", InboundEvent{Kind: EventKindReview, Action: "submitted"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Actionable())
		})
	}
}
