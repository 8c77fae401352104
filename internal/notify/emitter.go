// Package notify fans job opportunity events out to students.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const JobOpportunityTitle = "New Job Opportunity"

// Event is a single notification bound to a student and a job.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	StudentID string    `json:"studentId"`
	JobID     string    `json:"jobId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobOpportunityMessage renders the text shown to a student for a new job.
func JobOpportunityMessage(jobTitle, companyName string) string {
	return fmt.Sprintf("A new job \"%s\" at %s matches your profile!", jobTitle, companyName)
}

type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

type EmitterFunc func(ctx context.Context, e Event) error

func (f EmitterFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

// StoreEmitter persists events as notification records students can list.
type StoreEmitter struct {
	repo repository.NotificationRepo
}

func NewStoreEmitter(repo repository.NotificationRepo) *StoreEmitter {
	return &StoreEmitter{repo: repo}
}

func (s *StoreEmitter) Emit(ctx context.Context, e Event) error {
	n := &models.Notification{
		ID:        e.ID,
		StudentID: e.StudentID,
		Type:      e.Type,
		Title:     e.Title,
		Message:   e.Message,
		JobID:     e.JobID,
		CreatedAt: e.CreatedAt,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("store notification for %s: %w", e.StudentID, err)
	}
	return nil
}

// Multi delivers every event to all emitters. Delivery continues past a
// failing emitter and the failures are joined.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, em := range m {
		if em == nil {
			continue
		}
		if err := em.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
