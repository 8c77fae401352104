package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

// Profile is the normalized view of a student used by every evaluation.
// It is rebuilt per evaluation and never stored.
type Profile struct {
	StudentID            string
	GPA                  float64
	Experience           []models.Experience
	TotalExperienceYears float64
	// SkillsText is the lowercased skills field followed by "role description"
	// for every experience entry.
	SkillsText   string
	Certificates []models.Document
	// CertificateNames holds the lowercased file names of Certificates.
	CertificateNames []string
}

// IsCertificate reports whether a document of type t counts towards
// certificate requirements.
func IsCertificate(t models.DocumentType) bool {
	switch models.DocumentType(strings.ToLower(string(t))) {
	case models.DocCertificate, models.DocDiploma:
		return true
	}
	return false
}

// BuildProfile aggregates the student record and its documents. Missing
// fields degrade to zero values.
func BuildProfile(s *models.Student, docs []models.Document) Profile {
	p := Profile{Experience: []models.Experience{}, Certificates: []models.Document{}, CertificateNames: []string{}}
	if s == nil {
		return p
	}
	p.StudentID = s.ID
	p.GPA = s.GPA
	if s.Experience != nil {
		p.Experience = s.Experience
	}

	parts := make([]string, 0, len(p.Experience)+1)
	parts = append(parts, s.Skills)
	for _, exp := range p.Experience {
		if exp.Years > 0 {
			p.TotalExperienceYears += exp.Years
		}
		parts = append(parts, exp.Role+" "+exp.Description)
	}
	p.SkillsText = strings.ToLower(strings.Join(parts, " "))

	for _, d := range docs {
		if !IsCertificate(d.DocumentType) {
			continue
		}
		p.Certificates = append(p.Certificates, d)
		p.CertificateNames = append(p.CertificateNames, strings.ToLower(d.FileName))
	}
	return p
}

// Aggregator loads the records a Profile is built from.
type Aggregator struct {
	docs repository.DocumentRepo
}

func NewAggregator(docs repository.DocumentRepo) *Aggregator {
	return &Aggregator{docs: docs}
}

func (a *Aggregator) Profile(ctx context.Context, s *models.Student) (Profile, error) {
	if s == nil {
		return BuildProfile(nil, nil), nil
	}
	docs, err := a.docs.ListDocuments(ctx, s.ID, "")
	if err != nil {
		return Profile{}, fmt.Errorf("list documents for %s: %w", s.ID, err)
	}
	return BuildProfile(s, docs), nil
}
