package matching

import (
	"math"
	"strings"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

// JobCriteria is the per-gate outcome of a job evaluation.
type JobCriteria struct {
	MeetsGPA          bool `json:"meetsGPA"`
	MeetsExperience   bool `json:"meetsExperience"`
	MeetsCertificates bool `json:"meetsCertificates"`
	MatchesKeywords   bool `json:"matchesKeywords"`
}

// Passed counts the gates that passed.
func (c JobCriteria) Passed() int {
	n := 0
	for _, ok := range []bool{c.MeetsGPA, c.MeetsExperience, c.MeetsCertificates, c.MatchesKeywords} {
		if ok {
			n++
		}
	}
	return n
}

type JobEvaluation struct {
	Qualifies bool        `json:"qualifies"`
	Details   JobCriteria `json:"details"`
}

// JobGate is a single pass/fail criterion. A gate whose requirement is unset
// passes.
type JobGate struct {
	Name  string
	Check func(job *models.Job, p Profile) bool
	set   func(c *JobCriteria, ok bool)
}

// JobGates lists the gates in evaluation order.
var JobGates = []JobGate{
	{
		Name: "gpa",
		Check: func(job *models.Job, p Profile) bool {
			return job.MinGPA <= 0 || p.GPA >= job.MinGPA
		},
		set: func(c *JobCriteria, ok bool) { c.MeetsGPA = ok },
	},
	{
		Name: "experience",
		Check: func(job *models.Job, p Profile) bool {
			return job.MinExperienceYears <= 0 || p.TotalExperienceYears >= job.MinExperienceYears
		},
		set: func(c *JobCriteria, ok bool) { c.MeetsExperience = ok },
	},
	{
		Name: "certificates",
		Check: func(job *models.Job, p Profile) bool {
			return containsAll(p.CertificateNames, lowerAll(job.Requirements.RequiredCertificates))
		},
		set: func(c *JobCriteria, ok bool) { c.MeetsCertificates = ok },
	},
	{
		Name: "keywords",
		Check: func(job *models.Job, p Profile) bool {
			for _, kw := range lowerAll(job.Requirements.Keywords) {
				if !strings.Contains(p.SkillsText, kw) {
					return false
				}
			}
			return true
		},
		set: func(c *JobCriteria, ok bool) { c.MatchesKeywords = ok },
	},
}

// EvaluateJob runs every gate. Not qualifying is a normal outcome.
func EvaluateJob(job *models.Job, p Profile) JobEvaluation {
	var ev JobEvaluation
	ev.Qualifies = true
	for _, g := range JobGates {
		ok := g.Check(job, p)
		g.set(&ev.Details, ok)
		ev.Qualifies = ev.Qualifies && ok
	}
	return ev
}

// containsAll reports whether every required term is a substring of at least
// one of names.
func containsAll(names, required []string) bool {
	for _, req := range required {
		found := false
		for _, name := range names {
			if strings.Contains(name, req) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SubjectShortfall describes a required subject the student is missing or
// scored below the minimum in.
type SubjectShortfall struct {
	Subject  string  `json:"subject"`
	MinGrade float64 `json:"minGrade"`
	Grade    float64 `json:"grade"`
	Missing  bool    `json:"missing"`
}

type CourseEvaluation struct {
	Qualifies bool               `json:"qualifies"`
	GPA       float64            `json:"gpa"`
	MeetsGPA  bool               `json:"meetsGPA"`
	Subjects  []SubjectShortfall `json:"failedSubjects,omitempty"`
}

// EvaluateCourse checks the course GPA gate against gpa and every required
// subject against grades. Subject names compare case-insensitively.
func EvaluateCourse(req models.CourseRequirements, gpa float64, grades []models.Grade) CourseEvaluation {
	ev := CourseEvaluation{GPA: gpa}
	ev.MeetsGPA = req.MinGPA <= 0 || gpa >= req.MinGPA

	bySubject := make(map[string]float64, len(grades))
	for _, g := range grades {
		key := strings.ToLower(strings.TrimSpace(g.Subject))
		if _, seen := bySubject[key]; !seen {
			bySubject[key] = g.Grade
		}
	}
	for _, subject := range req.RequiredSubjects {
		grade, ok := bySubject[strings.ToLower(strings.TrimSpace(subject))]
		if !ok {
			ev.Subjects = append(ev.Subjects, SubjectShortfall{Subject: subject, MinGrade: req.MinSubjectGrade, Missing: true})
			continue
		}
		if grade < req.MinSubjectGrade {
			ev.Subjects = append(ev.Subjects, SubjectShortfall{Subject: subject, MinGrade: req.MinSubjectGrade, Grade: grade})
		}
	}
	ev.Qualifies = ev.MeetsGPA && len(ev.Subjects) == 0
	return ev
}

// GPAFromGrades converts percentage grades to the 4.0 scale and averages
// them. The result is not rounded; use Round2 for display.
func GPAFromGrades(grades []models.Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var total float64
	for _, g := range grades {
		total += g.Grade / 100 * 4
	}
	return total / float64(len(grades))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
