// Package admissions owns course application status changes. It keeps the
// rule that a student holds at most one admitted offer at a time.
package admissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

// InstitutionStatuses are the statuses an institution may set.
var InstitutionStatuses = []string{
	models.StatusAdmitted,
	models.StatusRejected,
	models.StatusPending,
	models.StatusWaitingList,
}

var (
	errInvalidStatus   = apperr.Validation("Invalid status. Must be: admitted, rejected, pending, or waiting-list")
	errAlreadyAdmitted = apperr.Conflict("This student has already been admitted to another programme. They must confirm or decline that offer before you can admit them here.")
	errNotFound        = apperr.NotFound("Application not found")
)

type Guard struct {
	apps   repository.CourseApplicationRepo
	logger *zap.Logger
	now    func() time.Time
}

func NewGuard(apps repository.CourseApplicationRepo, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{apps: apps, logger: logger, now: time.Now}
}

func validInstitutionStatus(status string) bool {
	for _, s := range InstitutionStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// SetStatus applies an institution's status change to one of its
// applications. Admitting runs as a single conditional write so two
// institutions cannot both admit the same student.
func (g *Guard) SetStatus(ctx context.Context, institutionID, applicationID, status string) (*models.CourseApplication, error) {
	if !validInstitutionStatus(status) {
		return nil, errInvalidStatus
	}

	app, err := g.owned(ctx, applicationID, func(a *models.CourseApplication) bool { return a.InstitutionID == institutionID })
	if err != nil {
		return nil, err
	}

	if status == models.StatusAdmitted {
		err = g.apps.AdmitExclusive(ctx, applicationID)
	} else {
		err = g.apps.SetCourseApplicationStatus(ctx, applicationID, status)
	}
	switch {
	case errors.Is(err, repository.ErrAdmissionConflict):
		g.logger.Info("admission refused, student holds another offer",
			zap.String("application_id", applicationID),
			zap.String("student_id", app.StudentID),
		)
		return nil, errAlreadyAdmitted
	case errors.Is(err, repository.ErrNotFound):
		return nil, errNotFound
	case err != nil:
		return nil, apperr.Internal(fmt.Errorf("set application %s to %s: %w", applicationID, status, err))
	}

	g.logger.Info("application status updated",
		zap.String("application_id", applicationID),
		zap.String("from", app.Status),
		zap.String("to", status),
	)
	app.Status = status
	return app, nil
}

// Decide records a student's answer to an admitted offer and returns the
// resulting status.
func (g *Guard) Decide(ctx context.Context, studentID, applicationID, decision string) (string, error) {
	var status string
	switch decision {
	case DecisionAccept:
		status = models.StatusAccepted
	case DecisionDecline:
		status = models.StatusDeclined
	default:
		return "", apperr.Validation("Decision must be accept or decline")
	}

	app, err := g.owned(ctx, applicationID, func(a *models.CourseApplication) bool { return a.StudentID == studentID })
	if err != nil {
		return "", err
	}
	if app.Status != models.StatusAdmitted {
		return "", apperr.Validation("Only admitted offers can be accepted or declined")
	}

	err = g.apps.RecordDecision(ctx, applicationID, status, studentID, g.now())
	switch {
	case errors.Is(err, repository.ErrStaleStatus):
		return "", apperr.Validation("Only admitted offers can be accepted or declined")
	case errors.Is(err, repository.ErrNotFound):
		return "", errNotFound
	case err != nil:
		return "", apperr.Internal(fmt.Errorf("record decision on %s: %w", applicationID, err))
	}

	g.logger.Info("offer decided", zap.String("application_id", applicationID), zap.String("status", status))
	return status, nil
}

func (g *Guard) owned(ctx context.Context, id string, owns func(*models.CourseApplication) bool) (*models.CourseApplication, error) {
	app, err := g.apps.GetCourseApplication(ctx, id)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get application %s: %w", id, err))
	}
	if app == nil || !owns(app) {
		return nil, errNotFound
	}
	return app, nil
}
