package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const (
	gpaSurplusWeight = 0.25
	experienceWeight = 0.1
)

// Applicant is one job application together with the records it is judged on.
type Applicant struct {
	Application models.JobApplication
	Student     *models.Student
	Grades      []models.Grade
	Documents   []models.Document
}

type ApplicantEvaluation struct {
	JobCriteria
	Score                float64  `json:"score"`
	GPA                  float64  `json:"gpa"`
	MinGPA               float64  `json:"minGPA"`
	TotalExperienceYears float64  `json:"totalExperienceYears"`
	MinExperienceYears   float64  `json:"minExperienceYears"`
	RequiredCertificates []string `json:"requiredCertificates"`
	MatchedCertificates  []string `json:"matchedCertificates"`
	Keywords             []string `json:"keywords"`
}

type RankedApplicant struct {
	models.JobApplication
	Student           *models.Student     `json:"student"`
	Certificates      []models.Document   `json:"certificates"`
	Evaluation        ApplicantEvaluation `json:"evaluation"`
	ReadyForInterview bool                `json:"readyForInterview"`

	score float64
}

// Score is the composite ranking value of a qualifying applicant.
func Score(c JobCriteria, gpa, minGPA, experienceYears float64) float64 {
	return float64(c.Passed()) + max(0, gpa-minGPA)*gpaSurplusWeight + experienceYears*experienceWeight
}

// applicantGPA prefers the GPA derived from grades over the stored value.
func applicantGPA(a Applicant) float64 {
	if len(a.Grades) > 0 {
		return GPAFromGrades(a.Grades)
	}
	return a.Student.GPA
}

// Rank evaluates every applicant against job, drops those that do not
// qualify and orders the rest by descending score. Equal scores keep the
// order of applicants.
func Rank(job *models.Job, applicants []Applicant) []RankedApplicant {
	ranked := make([]RankedApplicant, 0, len(applicants))
	for _, a := range applicants {
		if a.Student == nil {
			continue
		}
		p := BuildProfile(a.Student, a.Documents)
		p.GPA = applicantGPA(a)

		ev := EvaluateJob(job, p)
		if !ev.Qualifies {
			continue
		}

		score := Score(ev.Details, p.GPA, job.MinGPA, p.TotalExperienceYears)
		matched := make([]string, 0, len(p.Certificates))
		for _, d := range p.Certificates {
			matched = append(matched, d.FileName)
		}

		student := *a.Student
		student.GPA = Round2(p.GPA)
		student.Experience = p.Experience

		ranked = append(ranked, RankedApplicant{
			JobApplication: a.Application,
			Student:        &student,
			Certificates:   p.Certificates,
			Evaluation: ApplicantEvaluation{
				JobCriteria:          ev.Details,
				Score:                Round2(score),
				GPA:                  Round2(p.GPA),
				MinGPA:               job.MinGPA,
				TotalExperienceYears: p.TotalExperienceYears,
				MinExperienceYears:   job.MinExperienceYears,
				RequiredCertificates: nonNil(job.Requirements.RequiredCertificates),
				MatchedCertificates:  matched,
				Keywords:             nonNil(job.Requirements.Keywords),
			},
			ReadyForInterview: true,
			score:             score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Ranker assembles applicants for a job from the store and ranks them.
type Ranker struct {
	apps     repository.JobApplicationRepo
	students repository.StudentRepo
	grades   repository.GradeRepo
	docs     repository.DocumentRepo
}

func NewRanker(apps repository.JobApplicationRepo, students repository.StudentRepo, grades repository.GradeRepo, docs repository.DocumentRepo) *Ranker {
	return &Ranker{apps: apps, students: students, grades: grades, docs: docs}
}

// Rank loads every application for job in stored order. Applications whose
// student no longer exists are skipped.
func (r *Ranker) Rank(ctx context.Context, job *models.Job) ([]RankedApplicant, error) {
	apps, err := r.apps.ListJobApplications(ctx, repository.JobApplicationFilter{JobID: job.ID})
	if err != nil {
		return nil, fmt.Errorf("list applications for job %s: %w", job.ID, err)
	}

	applicants := make([]Applicant, 0, len(apps))
	for _, app := range apps {
		student, err := r.students.GetStudent(ctx, app.StudentID)
		if err != nil {
			return nil, fmt.Errorf("get student %s: %w", app.StudentID, err)
		}
		if student == nil {
			continue
		}
		grades, err := r.grades.ListGrades(ctx, app.StudentID)
		if err != nil {
			return nil, fmt.Errorf("list grades for %s: %w", app.StudentID, err)
		}
		docs, err := r.docs.ListDocuments(ctx, app.StudentID, "")
		if err != nil {
			return nil, fmt.Errorf("list documents for %s: %w", app.StudentID, err)
		}
		applicants = append(applicants, Applicant{Application: app, Student: student, Grades: grades, Documents: docs})
	}

	return Rank(job, applicants), nil
}
