package notify

import (
	"context"
	"fmt"

	"github.com/Alpho052/career-guidance-platform/internal/tasks"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

// JobPostedPayload is the body of a tasks.TypeNotifyJobPosted task.
type JobPostedPayload struct {
	JobID       string `json:"jobId"`
	CompanyName string `json:"companyName"`
}

// TaskHandler runs the broadcast for a queued job posting. Individual emit
// failures are not retried so students are not notified twice.
func (t *Trigger) TaskHandler(jobs repository.JobRepo) tasks.Handler {
	return func(ctx context.Context, task *tasks.Task) error {
		var p JobPostedPayload
		if err := task.Decode(&p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		job, err := jobs.GetJob(ctx, p.JobID)
		if err != nil {
			return fmt.Errorf("get job %s: %w", p.JobID, err)
		}
		if job == nil {
			t.logger.Warn("job gone before notifications were sent")
			return nil
		}
		_, err = t.JobPosted(ctx, job, p.CompanyName)
		return err
	}
}
