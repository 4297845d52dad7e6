package httphandler

import (
	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

// Webhook payload shapes. Only the fields the pipeline needs are declared;
// the rest of the delivery body is ignored.

type repositoryPayload struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type refPayload struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type pullRequestPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		Number int        `json:"number"`
		Title  string     `json:"title"`
		Draft  bool       `json:"draft"`
		Head   refPayload `json:"head"`
		Base   refPayload `json:"base"`
	} `json:"pull_request"`
	Repository repositoryPayload `json:"repository"`
	Sender     struct {
		Login string `json:"login"`
	} `json:"sender"`
}

type pushPayload struct {
	Ref     string `json:"ref"`
	Commits []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"commits"`
	Repository repositoryPayload `json:"repository"`
	Pusher     struct {
		Name string `json:"name"`
	} `json:"pusher"`
}

type reviewPayload struct {
	Action     string            `json:"action"`
	Repository repositoryPayload `json:"repository"`
	Sender     struct {
		Login string `json:"login"`
	} `json:"sender"`
}

// toEvent maps a pull_request payload to the domain event.
func (p pullRequestPayload) toEvent(deliveryID string) model.InboundEvent {
	number := p.Number
	if number == 0 {
		number = p.PullRequest.Number
	}
	return model.InboundEvent{
		Kind:       model.EventKindPullRequest,
		Action:     p.Action,
		DeliveryID: deliveryID,
		Repo:       mapRepository(p.Repository),
		Sender:     p.Sender.Login,
		PullRequest: &model.PullRequestRef{
			Number:  number,
			Title:   p.PullRequest.Title,
			HeadSHA: p.PullRequest.Head.SHA,
			BaseSHA: p.PullRequest.Base.SHA,
			IsDraft: p.PullRequest.Draft,
		},
	}
}

// toEvent maps a push payload to the domain event.
func (p pushPayload) toEvent(deliveryID string) model.InboundEvent {
	commits := make([]model.PushCommit, 0, len(p.Commits))
	for _, c := range p.Commits {
		commits = append(commits, model.PushCommit{SHA: c.ID, Message: c.Message})
	}
	return model.InboundEvent{
		Kind:       model.EventKindPush,
		DeliveryID: deliveryID,
		Repo:       mapRepository(p.Repository),
		Sender:     p.Pusher.Name,
		Commits:    commits,
	}
}

// toEvent maps a pull_request_review payload to the domain event. Review
// events carry no new content to scan; classifying them keeps the
// acknowledgement body descriptive instead of lumping them in with event
// types the bridge has never heard of.
func (p reviewPayload) toEvent(deliveryID string) model.InboundEvent {
	return model.InboundEvent{
		Kind:       model.EventKindReview,
		Action:     p.Action,
		DeliveryID: deliveryID,
		Repo:       mapRepository(p.Repository),
		Sender:     p.Sender.Login,
	}
}

func mapRepository(r repositoryPayload) model.Repository {
	return model.Repository{
		FullName: r.FullName,
		Owner:    r.Owner.Login,
		Name:     r.Name,
	}
}
