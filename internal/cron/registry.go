package cron

import "context"

// Job is one unit of work a Service runs every cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry is the ordered job list of a Service. Nil jobs and jobs whose
// name is already taken are dropped.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if job == nil || seen[job.Name()] {
			continue
		}
		seen[job.Name()] = true
		r.jobs = append(r.jobs, job)
	}
	return r
}

func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
