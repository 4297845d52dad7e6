package model

// PublishTarget identifies where a scan result should be reported.
// PRNumber is zero for push commits, which have no review surface.
type PublishTarget struct {
	Repo      Repository
	PRNumber  int
	CommitSHA string
}

// PublishReport records the outcome of the three independent publication
// sub-steps. Failures are collected, never re-thrown: a failed summary
// comment must not prevent annotations, and failed annotations must not
// prevent the commit status from being set.
type PublishReport struct {
	SummaryPosted        bool
	AnnotationsAttempted int
	AnnotationsPosted    int
	StatusSet            bool
	Errors               []string
}

// Complete reports whether every attempted sub-step succeeded.
func (p PublishReport) Complete() bool {
	return len(p.Errors) == 0
}
