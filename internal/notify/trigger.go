package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const fallbackCompanyName = "A Company"

// Result summarises one broadcast.
type Result struct {
	Considered int `json:"considered"`
	Skipped    int `json:"skipped"`
	Emitted    int `json:"emitted"`
	Failed     int `json:"failed"`
}

// Trigger broadcasts a new job to every student whose stored GPA clears the
// job's minimum. It does not run the full qualification check.
type Trigger struct {
	students repository.StudentRepo
	emitter  Emitter
	logger   *zap.Logger
	now      func() time.Time
}

func NewTrigger(students repository.StudentRepo, emitter Emitter, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{students: students, emitter: emitter, logger: logger, now: time.Now}
}

// JobPosted emits one event per eligible student. A failed emit is logged and
// the loop moves on; only failing to list students or a cancelled ctx end
// the broadcast early.
func (t *Trigger) JobPosted(ctx context.Context, job *models.Job, companyName string) (Result, error) {
	var res Result
	if job == nil || job.Status != models.JobActive {
		return res, nil
	}
	if strings.TrimSpace(companyName) == "" {
		companyName = fallbackCompanyName
	}

	students, err := t.students.ListStudents(ctx)
	if err != nil {
		return res, fmt.Errorf("list students: %w", err)
	}

	message := JobOpportunityMessage(job.Title, companyName)
	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Considered++
		if job.MinGPA > 0 && s.GPA < job.MinGPA {
			res.Skipped++
			continue
		}

		e := Event{
			ID:        uuid.NewString(),
			Type:      models.NotificationJobOpportunity,
			StudentID: s.ID,
			JobID:     job.ID,
			Title:     JobOpportunityTitle,
			Message:   message,
			CreatedAt: t.now().UTC(),
		}
		if err := t.emitter.Emit(ctx, e); err != nil {
			res.Failed++
			t.logger.Warn("job notification failed",
				zap.String("job_id", job.ID),
				zap.String("student_id", s.ID),
				zap.Error(err),
			)
			continue
		}
		res.Emitted++
	}

	t.logger.Info("job notifications sent",
		zap.String("job_id", job.ID),
		zap.Int("considered", res.Considered),
		zap.Int("skipped", res.Skipped),
		zap.Int("emitted", res.Emitted),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
