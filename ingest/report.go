package ingest

import (
	"time"

	"github.com/jrsteele09/store-insights/internal/errors"
)

type StageResult struct {
	Resource string `json:"resource"`
	Fetched  int    `json:"fetched"`
	Upserted int    `json:"upserted"`
	Error    string `json:"error,omitempty"`

	err error
}

func (r *StageResult) setErr(err error) {
	r.err = err
	r.Error = err.Error()
}

func (r StageResult) Err() error { return r.err }

// Report summarises one tenant sync run.
type Report struct {
	TenantID   string        `json:"tenantId"`
	StoreName  string        `json:"storeName"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Stages     []StageResult `json:"stages"`
}

func (r *Report) add(stage StageResult) {
	r.Stages = append(r.Stages, stage)
}

func (r *Report) Stage(resource string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Resource == resource {
			return s, true
		}
	}
	return StageResult{}, false
}

func (r *Report) FailedStages() int {
	n := 0
	for _, s := range r.Stages {
		if s.Error != "" {
			n++
		}
	}
	return n
}

func (r *Report) Failed() bool {
	return r.FailedStages() > 0
}

// Err joins the stage errors, nil when every stage succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Stages {
		if s.err != nil {
			errs = append(errs, errors.Wrapf(s.err, "%s", s.Resource))
		}
	}
	return errors.Join(errs...)
}
