package matching_test

import (
	"math"
	"testing"

	"github.com/Alpho052/career-guidance-platform/internal/matching"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

func strictJob() *models.Job {
	return &models.Job{
		ID:                 "job-1",
		MinGPA:             3.0,
		MinExperienceYears: 2,
		Requirements: models.JobRequirements{
			RequiredCertificates: []string{"AWS"},
			Keywords:             []string{"python"},
		},
	}
}

func qualifiedStudent(id string) *models.Student {
	return &models.Student{
		ID:     id,
		GPA:    3.5,
		Skills: "Go, Python",
		Experience: []models.Experience{
			{Company: "Acme", Role: "Backend Developer", Years: 1.5, Description: "APIs"},
			{Company: "Beta", Role: "Intern", Years: 1},
		},
	}
}

func awsCert(studentID string) models.Document {
	return models.Document{ID: "doc-" + studentID, StudentID: studentID, DocumentType: "Certificate", FileName: "AWS_Cert_2023.pdf"}
}

func TestBuildProfile(t *testing.T) {
	s := qualifiedStudent("s1")
	docs := []models.Document{
		awsCert("s1"),
		{DocumentType: models.DocDiploma, FileName: "BSc.pdf"},
		{DocumentType: models.DocTranscript, FileName: "transcript.pdf"},
	}

	p := matching.BuildProfile(s, docs)
	if p.GPA != 3.5 {
		t.Fatalf("GPA = %v", p.GPA)
	}
	if p.TotalExperienceYears != 2.5 {
		t.Fatalf("TotalExperienceYears = %v", p.TotalExperienceYears)
	}
	if want := "go, python backend developer apis intern "; p.SkillsText != want {
		t.Fatalf("SkillsText = %q, want %q", p.SkillsText, want)
	}
	if len(p.CertificateNames) != 2 || p.CertificateNames[0] != "aws_cert_2023.pdf" || p.CertificateNames[1] != "bsc.pdf" {
		t.Fatalf("CertificateNames = %v", p.CertificateNames)
	}
}

func TestBuildProfile_Empty(t *testing.T) {
	p := matching.BuildProfile(&models.Student{ID: "s"}, nil)
	if p.GPA != 0 || p.TotalExperienceYears != 0 || p.SkillsText != "" || len(p.CertificateNames) != 0 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p := matching.BuildProfile(nil, nil); p.StudentID != "" {
		t.Fatalf("nil student produced %+v", p)
	}
}

func TestEvaluateJob(t *testing.T) {
	tests := []struct {
		name    string
		job     *models.Job
		mutate  func(s *models.Student, docs *[]models.Document)
		want    matching.JobCriteria
		qualify bool
	}{
		{
			name:    "all gates pass",
			job:     strictJob(),
			mutate:  func(*models.Student, *[]models.Document) {},
			want:    matching.JobCriteria{MeetsGPA: true, MeetsExperience: true, MeetsCertificates: true, MatchesKeywords: true},
			qualify: true,
		},
		{
			name:   "gpa below minimum",
			job:    strictJob(),
			mutate: func(s *models.Student, _ *[]models.Document) { s.GPA = 2.9 },
			want:   matching.JobCriteria{MeetsExperience: true, MeetsCertificates: true, MatchesKeywords: true},
		},
		{
			name:   "not enough experience",
			job:    strictJob(),
			mutate: func(s *models.Student, _ *[]models.Document) { s.Experience = s.Experience[:1] },
			want:   matching.JobCriteria{MeetsGPA: true, MeetsCertificates: true, MatchesKeywords: true},
		},
		{
			name:   "certificate missing",
			job:    strictJob(),
			mutate: func(_ *models.Student, docs *[]models.Document) { *docs = nil },
			want:   matching.JobCriteria{MeetsGPA: true, MeetsExperience: true, MatchesKeywords: true},
		},
		{
			name:   "keyword missing",
			job:    strictJob(),
			mutate: func(s *models.Student, _ *[]models.Document) { s.Skills = "Go" },
			want:   matching.JobCriteria{MeetsGPA: true, MeetsExperience: true, MeetsCertificates: true},
		},
		{
			name: "keyword found in experience",
			job:  strictJob(),
			mutate: func(s *models.Student, _ *[]models.Document) {
				s.Skills = ""
				s.Experience[1].Description = "Wrote PYTHON scripts"
			},
			want:    matching.JobCriteria{MeetsGPA: true, MeetsExperience: true, MeetsCertificates: true, MatchesKeywords: true},
			qualify: true,
		},
		{
			name: "no requirements",
			job:  &models.Job{ID: "open"},
			mutate: func(s *models.Student, docs *[]models.Document) {
				*s = models.Student{ID: s.ID}
				*docs = nil
			},
			want:    matching.JobCriteria{MeetsGPA: true, MeetsExperience: true, MeetsCertificates: true, MatchesKeywords: true},
			qualify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := qualifiedStudent("s1")
			docs := []models.Document{awsCert("s1")}
			tt.mutate(s, &docs)

			ev := matching.EvaluateJob(tt.job, matching.BuildProfile(s, docs))
			if ev.Qualifies != tt.qualify {
				t.Fatalf("Qualifies = %v, want %v", ev.Qualifies, tt.qualify)
			}
			if ev.Details != tt.want {
				t.Fatalf("Details = %+v, want %+v", ev.Details, tt.want)
			}
		})
	}
}

func TestEvaluateJob_CertificateSubstring(t *testing.T) {
	job := &models.Job{Requirements: models.JobRequirements{RequiredCertificates: []string{"aws"}}}

	tests := []struct {
		file string
		want bool
	}{
		{"AWS_Cert_2023.pdf", true},
		{"my-aws.png", true},
		{"Azure_Cert.pdf", false},
	}
	for _, tt := range tests {
		p := matching.BuildProfile(&models.Student{ID: "s"}, []models.Document{{DocumentType: models.DocCertificate, FileName: tt.file}})
		if got := matching.EvaluateJob(job, p).Details.MeetsCertificates; got != tt.want {
			t.Fatalf("%s: MeetsCertificates = %v, want %v", tt.file, got, tt.want)
		}
	}

	// only certificate and diploma documents count
	p := matching.BuildProfile(&models.Student{ID: "s"}, []models.Document{{DocumentType: models.DocAdditional, FileName: "AWS.pdf"}})
	if matching.EvaluateJob(job, p).Qualifies {
		t.Fatalf("additional document satisfied a certificate requirement")
	}
}

func TestGPAFromGrades(t *testing.T) {
	grades := []models.Grade{{Subject: "Math", Grade: 80}, {Subject: "Eng", Grade: 60}}

	gpa := matching.GPAFromGrades(grades)
	if math.Abs(gpa-2.8) > 1e-9 {
		t.Fatalf("GPAFromGrades = %v, want 2.8", gpa)
	}
	if got := matching.Round2(gpa); got != 2.80 {
		t.Fatalf("Round2 = %v, want 2.80", got)
	}
	if got := matching.GPAFromGrades(nil); got != 0 {
		t.Fatalf("GPAFromGrades(nil) = %v", got)
	}
	if got := matching.Round2(matching.GPAFromGrades([]models.Grade{{Grade: 87}, {Grade: 91}, {Grade: 78}})); got != 3.41 {
		t.Fatalf("Round2 = %v, want 3.41", got)
	}
}

func TestEvaluateCourse(t *testing.T) {
	grades := []models.Grade{{Subject: "Mathematics", Grade: 75}, {Subject: "English", Grade: 55}}

	tests := []struct {
		name     string
		req      models.CourseRequirements
		gpa      float64
		qualify  bool
		failures int
	}{
		{"no requirements", models.CourseRequirements{}, 0, true, 0},
		{"gpa met", models.CourseRequirements{MinGPA: 2.5}, 2.6, true, 0},
		{"gpa below", models.CourseRequirements{MinGPA: 2.5}, 2.4, false, 0},
		{"subject case insensitive", models.CourseRequirements{RequiredSubjects: []string{"MATHEMATICS"}, MinSubjectGrade: 70}, 0, true, 0},
		{"subject under threshold", models.CourseRequirements{RequiredSubjects: []string{"english"}, MinSubjectGrade: 60}, 0, false, 1},
		{"subject missing", models.CourseRequirements{RequiredSubjects: []string{"Physics", "Mathematics"}, MinSubjectGrade: 50}, 0, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := matching.EvaluateCourse(tt.req, tt.gpa, grades)
			if ev.Qualifies != tt.qualify {
				t.Fatalf("Qualifies = %v, want %v (%+v)", ev.Qualifies, tt.qualify, ev)
			}
			if len(ev.Subjects) != tt.failures {
				t.Fatalf("failed subjects = %v, want %d", ev.Subjects, tt.failures)
			}
		})
	}
}

func TestEvaluateCourse_MissingSubjectFlagged(t *testing.T) {
	ev := matching.EvaluateCourse(models.CourseRequirements{RequiredSubjects: []string{"Physics"}, MinSubjectGrade: 50}, 4, nil)
	if len(ev.Subjects) != 1 || !ev.Subjects[0].Missing || ev.Subjects[0].Subject != "Physics" {
		t.Fatalf("unexpected shortfall %+v", ev.Subjects)
	}
}
