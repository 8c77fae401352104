package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

// table keeps rows in insertion order.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] { return &table[T]{rows: map[string]T{}} }

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) del(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *table[T]) filter(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		if v := t.rows[id]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Store is an in-memory repository.Store. Errs injects a failure for the
// method of the same name.
type Store struct {
	mu   sync.Mutex
	Errs map[string]error

	users         *table[models.User]
	students      *table[models.Student]
	grades        *table[models.Grade]
	documents     *table[models.Document]
	institutions  *table[models.Institution]
	faculties     *table[models.Faculty]
	courses       *table[models.Course]
	companies     *table[models.Company]
	jobs          *table[models.Job]
	jobApps       *table[models.JobApplication]
	savedJobs     *table[models.SavedJob]
	courseApps    *table[models.CourseApplication]
	notifications *table[models.Notification]
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Errs:          map[string]error{},
		users:         newTable[models.User](),
		students:      newTable[models.Student](),
		grades:        newTable[models.Grade](),
		documents:     newTable[models.Document](),
		institutions:  newTable[models.Institution](),
		faculties:     newTable[models.Faculty](),
		courses:       newTable[models.Course](),
		companies:     newTable[models.Company](),
		jobs:          newTable[models.Job](),
		jobApps:       newTable[models.JobApplication](),
		savedJobs:     newTable[models.SavedJob](),
		courseApps:    newTable[models.CourseApplication](),
		notifications: newTable[models.Notification](),
	}
}

// Fail makes every later call of method return err. A nil err clears it.
func (s *Store) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Errs, method)
		return
	}
	s.Errs[method] = err
}

func (s *Store) lock(method string) error {
	s.mu.Lock()
	return s.Errs[method]
}

func now() time.Time { return time.Now().UTC() }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func stamp(id *string, created, updated *time.Time) {
	ensureID(id)
	t := now()
	if created.IsZero() {
		*created = t
	}
	*updated = t
}

// users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateUser"); err != nil {
		return err
	}
	for _, existing := range s.users.rows {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	if _, ok := s.users.get(u.ID); ok && u.ID != "" {
		return repository.ErrDuplicate
	}
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.users.put(u.ID, *u)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetUser"); err != nil {
		return nil, err
	}
	if u, ok := s.users.get(id); ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range s.users.rows {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateUser"); err != nil {
		return err
	}
	if _, ok := s.users.get(u.ID); !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = now()
	s.users.put(u.ID, *u)
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("DeleteUser"); err != nil {
		return err
	}
	s.users.del(id)
	return nil
}

func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListUsers"); err != nil {
		return nil, err
	}
	return s.users.filter(func(u models.User) bool { return role == "" || u.Role == role }), nil
}

// students

func (s *Store) CreateStudent(ctx context.Context, st *models.Student) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateStudent"); err != nil {
		return err
	}
	if _, ok := s.students.get(st.ID); ok && st.ID != "" {
		return repository.ErrDuplicate
	}
	stamp(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	s.students.put(st.ID, *st)
	return nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetStudent"); err != nil {
		return nil, err
	}
	if st, ok := s.students.get(id); ok {
		return &st, nil
	}
	return nil, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st *models.Student) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateStudent"); err != nil {
		return err
	}
	cur, ok := s.students.get(st.ID)
	if !ok {
		return repository.ErrNotFound
	}
	// gpa and document_count are owned by ReplaceGrades and the documents.
	st.GPA = cur.GPA
	st.DocumentCount = cur.DocumentCount
	st.UpdatedAt = now()
	s.students.put(st.ID, *st)
	return nil
}

func (s *Store) ListStudents(ctx context.Context) ([]models.Student, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListStudents"); err != nil {
		return nil, err
	}
	return s.students.filter(nil), nil
}

// grades

func (s *Store) ListGrades(ctx context.Context, studentID string) ([]models.Grade, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListGrades"); err != nil {
		return nil, err
	}
	return s.grades.filter(func(g models.Grade) bool { return g.StudentID == studentID }), nil
}

func (s *Store) ReplaceGrades(ctx context.Context, studentID string, grades []models.Grade, gpa float64) error {
	defer s.mu.Unlock()
	if err := s.lock("ReplaceGrades"); err != nil {
		return err
	}
	st, ok := s.students.get(studentID)
	if !ok {
		return repository.ErrNotFound
	}
	for _, g := range s.grades.filter(func(g models.Grade) bool { return g.StudentID == studentID }) {
		s.grades.del(g.ID)
	}
	for i := range grades {
		grades[i].StudentID = studentID
		stamp(&grades[i].ID, &grades[i].CreatedAt, &grades[i].UpdatedAt)
		s.grades.put(grades[i].ID, grades[i])
	}
	st.GPA = gpa
	st.UpdatedAt = now()
	s.students.put(st.ID, st)
	return nil
}

// documents

func (s *Store) CreateDocument(ctx context.Context, d *models.Document) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateDocument"); err != nil {
		return err
	}
	stamp(&d.ID, &d.UploadedAt, &d.UpdatedAt)
	s.documents.put(d.ID, *d)
	if st, ok := s.students.get(d.StudentID); ok {
		st.DocumentCount++
		s.students.put(st.ID, st)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetDocument"); err != nil {
		return nil, err
	}
	if d, ok := s.documents.get(id); ok {
		return &d, nil
	}
	return nil, nil
}

func (s *Store) ListDocuments(ctx context.Context, studentID string, docType models.DocumentType) ([]models.Document, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListDocuments"); err != nil {
		return nil, err
	}
	return s.documents.filter(func(d models.Document) bool {
		return d.StudentID == studentID && (docType == "" || d.DocumentType == docType)
	}), nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("DeleteDocument"); err != nil {
		return err
	}
	d, ok := s.documents.get(id)
	if !ok {
		return nil
	}
	s.documents.del(id)
	if st, ok := s.students.get(d.StudentID); ok && st.DocumentCount > 0 {
		st.DocumentCount--
		s.students.put(st.ID, st)
	}
	return nil
}

// institutions

func (s *Store) CreateInstitution(ctx context.Context, i *models.Institution) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateInstitution"); err != nil {
		return err
	}
	if _, ok := s.institutions.get(i.ID); ok && i.ID != "" {
		return repository.ErrDuplicate
	}
	stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	s.institutions.put(i.ID, *i)
	return nil
}

func (s *Store) GetInstitution(ctx context.Context, id string) (*models.Institution, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetInstitution"); err != nil {
		return nil, err
	}
	if i, ok := s.institutions.get(id); ok {
		return &i, nil
	}
	return nil, nil
}

func (s *Store) GetInstitutionByEmail(ctx context.Context, email string) (*models.Institution, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetInstitutionByEmail"); err != nil {
		return nil, err
	}
	found := s.institutions.filter(func(i models.Institution) bool { return strings.EqualFold(i.Email, email) })
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (s *Store) UpdateInstitution(ctx context.Context, i *models.Institution) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateInstitution"); err != nil {
		return err
	}
	if _, ok := s.institutions.get(i.ID); !ok {
		return repository.ErrNotFound
	}
	i.UpdatedAt = now()
	s.institutions.put(i.ID, *i)
	return nil
}

func (s *Store) DeleteInstitution(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("DeleteInstitution"); err != nil {
		return err
	}
	s.institutions.del(id)
	return nil
}

func (s *Store) ListInstitutions(ctx context.Context, status string) ([]models.Institution, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListInstitutions"); err != nil {
		return nil, err
	}
	return s.institutions.filter(func(i models.Institution) bool { return status == "" || i.Status == status }), nil
}

// faculties

func (s *Store) CreateFaculty(ctx context.Context, f *models.Faculty) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateFaculty"); err != nil {
		return err
	}
	stamp(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	s.faculties.put(f.ID, *f)
	return nil
}

func (s *Store) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetFaculty"); err != nil {
		return nil, err
	}
	if f, ok := s.faculties.get(id); ok {
		return &f, nil
	}
	return nil, nil
}

func (s *Store) UpdateFaculty(ctx context.Context, f *models.Faculty) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateFaculty"); err != nil {
		return err
	}
	if _, ok := s.faculties.get(f.ID); !ok {
		return repository.ErrNotFound
	}
	f.UpdatedAt = now()
	s.faculties.put(f.ID, *f)
	return nil
}

func (s *Store) DeleteFaculty(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("DeleteFaculty"); err != nil {
		return err
	}
	s.faculties.del(id)
	return nil
}

func (s *Store) ListFaculties(ctx context.Context, institutionID string) ([]models.Faculty, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListFaculties"); err != nil {
		return nil, err
	}
	return s.faculties.filter(func(f models.Faculty) bool { return f.InstitutionID == institutionID }), nil
}

// courses

func (s *Store) CreateCourse(ctx context.Context, c *models.Course) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateCourse"); err != nil {
		return err
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.courses.put(c.ID, *c)
	return nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetCourse"); err != nil {
		return nil, err
	}
	if c, ok := s.courses.get(id); ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) UpdateCourse(ctx context.Context, c *models.Course) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateCourse"); err != nil {
		return err
	}
	if _, ok := s.courses.get(c.ID); !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = now()
	s.courses.put(c.ID, *c)
	return nil
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("DeleteCourse"); err != nil {
		return err
	}
	s.courses.del(id)
	return nil
}

func (s *Store) ListCourses(ctx context.Context, f repository.CourseFilter) ([]models.Course, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListCourses"); err != nil {
		return nil, err
	}
	return s.courses.filter(func(c models.Course) bool {
		return (f.InstitutionID == "" || c.InstitutionID == f.InstitutionID) && (f.Status == "" || c.Status == f.Status)
	}), nil
}

// companies

func (s *Store) CreateCompany(ctx context.Context, c *models.Company) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateCompany"); err != nil {
		return err
	}
	if _, ok := s.companies.get(c.ID); ok && c.ID != "" {
		return repository.ErrDuplicate
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.companies.put(c.ID, *c)
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetCompany"); err != nil {
		return nil, err
	}
	if c, ok := s.companies.get(id); ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) UpdateCompany(ctx context.Context, c *models.Company) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateCompany"); err != nil {
		return err
	}
	if _, ok := s.companies.get(c.ID); !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = now()
	s.companies.put(c.ID, *c)
	return nil
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("DeleteCompany"); err != nil {
		return err
	}
	s.companies.del(id)
	return nil
}

func (s *Store) ListCompanies(ctx context.Context, status string) ([]models.Company, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListCompanies"); err != nil {
		return nil, err
	}
	return s.companies.filter(func(c models.Company) bool { return status == "" || c.Status == status }), nil
}

// jobs

func (s *Store) CreateJob(ctx context.Context, j *models.Job) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateJob"); err != nil {
		return err
	}
	stamp(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	s.jobs.put(j.ID, *j)
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetJob"); err != nil {
		return nil, err
	}
	if j, ok := s.jobs.get(id); ok {
		return &j, nil
	}
	return nil, nil
}

func (s *Store) UpdateJob(ctx context.Context, j *models.Job) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateJob"); err != nil {
		return err
	}
	if _, ok := s.jobs.get(j.ID); !ok {
		return repository.ErrNotFound
	}
	j.UpdatedAt = now()
	s.jobs.put(j.ID, *j)
	return nil
}

func (s *Store) ListJobs(ctx context.Context, f repository.JobFilter) ([]models.Job, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListJobs"); err != nil {
		return nil, err
	}
	return s.jobs.filter(func(j models.Job) bool {
		return (f.CompanyID == "" || j.CompanyID == f.CompanyID) && (f.Status == "" || j.Status == f.Status)
	}), nil
}

// job applications

func (s *Store) CreateJobApplication(ctx context.Context, a *models.JobApplication) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateJobApplication"); err != nil {
		return err
	}
	for _, existing := range s.jobApps.rows {
		if existing.StudentID == a.StudentID && existing.JobID == a.JobID {
			return repository.ErrDuplicate
		}
	}
	stamp(&a.ID, &a.AppliedAt, &a.UpdatedAt)
	s.jobApps.put(a.ID, *a)
	return nil
}

func (s *Store) ListJobApplications(ctx context.Context, f repository.JobApplicationFilter) ([]models.JobApplication, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListJobApplications"); err != nil {
		return nil, err
	}
	return s.jobApps.filter(func(a models.JobApplication) bool {
		return (f.StudentID == "" || a.StudentID == f.StudentID) && (f.JobID == "" || a.JobID == f.JobID)
	}), nil
}

// saved jobs

func (s *Store) SaveJob(ctx context.Context, sj *models.SavedJob) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("SaveJob"); err != nil {
		return false, err
	}
	for _, existing := range s.savedJobs.rows {
		if existing.StudentID == sj.StudentID && existing.JobID == sj.JobID {
			*sj = existing
			return false, nil
		}
	}
	ensureID(&sj.ID)
	sj.SavedAt = now()
	s.savedJobs.put(sj.ID, *sj)
	return true, nil
}

func (s *Store) ListSavedJobs(ctx context.Context, studentID string) ([]models.SavedJob, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListSavedJobs"); err != nil {
		return nil, err
	}
	return s.savedJobs.filter(func(sj models.SavedJob) bool { return sj.StudentID == studentID }), nil
}

// course applications

func (s *Store) CreateCourseApplications(ctx context.Context, apps []models.CourseApplication) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateCourseApplications"); err != nil {
		return err
	}
	seen := map[[2]string]bool{}
	for _, existing := range s.courseApps.rows {
		seen[[2]string{existing.StudentID, existing.CourseID}] = true
	}
	for _, a := range apps {
		key := [2]string{a.StudentID, a.CourseID}
		if seen[key] {
			return repository.ErrDuplicate
		}
		seen[key] = true
	}
	for i := range apps {
		stamp(&apps[i].ID, &apps[i].AppliedAt, &apps[i].UpdatedAt)
		s.courseApps.put(apps[i].ID, apps[i])
	}
	return nil
}

func (s *Store) GetCourseApplication(ctx context.Context, id string) (*models.CourseApplication, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetCourseApplication"); err != nil {
		return nil, err
	}
	if a, ok := s.courseApps.get(id); ok {
		return &a, nil
	}
	return nil, nil
}

func (s *Store) ListCourseApplications(ctx context.Context, f repository.CourseApplicationFilter) ([]models.CourseApplication, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListCourseApplications"); err != nil {
		return nil, err
	}
	return s.courseApps.filter(func(a models.CourseApplication) bool {
		return (f.StudentID == "" || a.StudentID == f.StudentID) &&
			(f.InstitutionID == "" || a.InstitutionID == f.InstitutionID) &&
			(f.Status == "" || a.Status == f.Status)
	}), nil
}

func (s *Store) SetCourseApplicationStatus(ctx context.Context, id, status string) error {
	defer s.mu.Unlock()
	if err := s.lock("SetCourseApplicationStatus"); err != nil {
		return err
	}
	a, ok := s.courseApps.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	if status == models.StatusAdmitted && a.Status != models.StatusAdmitted && s.admittedElsewhere(a) {
		// mirrors the partial unique index of the sql schema
		return repository.ErrAdmissionConflict
	}
	a.Status = status
	a.UpdatedAt = now()
	s.courseApps.put(id, a)
	return nil
}

func (s *Store) admittedElsewhere(a models.CourseApplication) bool {
	for _, other := range s.courseApps.rows {
		if other.ID != a.ID && other.StudentID == a.StudentID && other.Status == models.StatusAdmitted {
			return true
		}
	}
	return false
}

func (s *Store) AdmitExclusive(ctx context.Context, id string) error {
	defer s.mu.Unlock()
	if err := s.lock("AdmitExclusive"); err != nil {
		return err
	}
	a, ok := s.courseApps.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	if s.admittedElsewhere(a) {
		return repository.ErrAdmissionConflict
	}
	a.Status = models.StatusAdmitted
	a.UpdatedAt = now()
	s.courseApps.put(id, a)
	return nil
}

func (s *Store) RecordDecision(ctx context.Context, id, status, decidedBy string, at time.Time) error {
	defer s.mu.Unlock()
	if err := s.lock("RecordDecision"); err != nil {
		return err
	}
	a, ok := s.courseApps.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != models.StatusAdmitted {
		return repository.ErrStaleStatus
	}
	at = at.UTC()
	a.Status = status
	a.DecisionAt = &at
	a.DecisionBy = decidedBy
	a.UpdatedAt = at
	s.courseApps.put(id, a)
	return nil
}

// notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer s.mu.Unlock()
	if err := s.lock("CreateNotification"); err != nil {
		return err
	}
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	s.notifications.put(n.ID, *n)
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetNotification"); err != nil {
		return nil, err
	}
	if n, ok := s.notifications.get(id); ok {
		return &n, nil
	}
	return nil, nil
}

func (s *Store) ListNotifications(ctx context.Context, studentID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListNotifications"); err != nil {
		return nil, err
	}
	out := s.notifications.filter(func(n models.Notification) bool {
		return n.StudentID == studentID && (!unreadOnly || !n.Read)
	})
	// newest first, insertion order breaks ties
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	defer s.mu.Unlock()
	if err := s.lock("MarkNotificationRead"); err != nil {
		return err
	}
	n, ok := s.notifications.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	at = at.UTC()
	n.Read = true
	n.ReadAt = &at
	n.UpdatedAt = at
	s.notifications.put(id, n)
	return nil
}
