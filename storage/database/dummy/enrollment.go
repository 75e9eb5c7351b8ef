package dummydb

import (
	"context"
	"sync"
	"time"

	"github.com/colegia/backend/core/enrollment"
)

type enrollmentRepository struct {
	db   *DB
	txMu *sync.Mutex
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db, txMu: &sync.Mutex{}}
}

// Atomic serializes multi-step sequences on one mutex. There is no rollback;
// callers order their steps so the guarded seat increment runs first and the
// remaining in-memory writes cannot fail.
func (repo *enrollmentRepository) Atomic(ctx context.Context, fn func(enrollment.Repository) error) error {
	repo.txMu.Lock()
	defer repo.txMu.Unlock()
	return fn(repo)
}

func (repo *enrollmentRepository) AdjustSeatCount(ctx context.Context, groupID string, delta int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return enrollment.ErrNotFound
	}
	if delta > 0 {
		room, ok := repo.db.classrooms[g.ClassroomID]
		if !ok || g.CurrentSeatCount+delta > room.Capacity {
			return enrollment.ErrGroupFull
		}
	}
	g.CurrentSeatCount += delta
	if g.CurrentSeatCount < 0 {
		g.CurrentSeatCount = 0
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.enrollments[id]; ok {
		return *e, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) FindActiveEnrollment(ctx context.Context, studentPersonID, groupID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.enrollments {
		if e.StudentPersonID == studentPersonID && e.GroupID == groupID && e.Status == enrollment.StatusActive {
			return *e, nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0, len(repo.db.enrollments))
	for _, e := range repo.db.enrollments {
		if !repo.matchEnrollment(e, filter) {
			continue
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrollments[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}
	delete(repo.db.enrollments, id)
	for gid, g := range repo.db.grades {
		if g.EnrollmentID == id {
			delete(repo.db.grades, gid)
		}
	}
	for aid, a := range repo.db.attendances {
		if a.EnrollmentID == id {
			delete(repo.db.attendances, aid)
		}
	}
	return nil
}

// Grades

func (repo *enrollmentRepository) CreateGrade(ctx context.Context, g enrollment.Grade) (enrollment.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *enrollmentRepository) GetGradeByID(ctx context.Context, id string) (enrollment.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return *g, nil
	}
	return enrollment.Grade{}, enrollment.ErrGradeNotFound
}

func (repo *enrollmentRepository) QueryGrades(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]enrollment.Grade, 0, len(repo.db.grades))
	for _, g := range repo.db.grades {
		if filter.EnrollmentID != "" && g.EnrollmentID != filter.EnrollmentID {
			continue
		}
		if filter.TeacherPersonID != "" {
			ta, ok := repo.db.assignments[g.TeachingAssignmentID]
			if !ok || ta.TeacherPersonID != filter.TeacherPersonID {
				continue
			}
		}
		e, ok := repo.db.enrollments[g.EnrollmentID]
		if !ok || !repo.matchEnrollment(e, enrollment.QueryFilter{
			SchoolID:        filter.SchoolID,
			GroupID:         filter.GroupID,
			StudentPersonID: filter.StudentPersonID,
		}) {
			continue
		}
		grades = append(grades, *g)
	}
	return grades, nil
}

func (repo *enrollmentRepository) DeleteGrade(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.grades[id]; !ok {
		return enrollment.ErrGradeNotFound
	}
	delete(repo.db.grades, id)
	return nil
}

// Attendances

func (repo *enrollmentRepository) CreateAttendance(ctx context.Context, a enrollment.Attendance) (enrollment.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.attendances[a.ID] = &a
	return a, nil
}

func (repo *enrollmentRepository) GetAttendanceByID(ctx context.Context, id string) (enrollment.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.attendances[id]; ok {
		return *a, nil
	}
	return enrollment.Attendance{}, enrollment.ErrAttendanceNotFound
}

func (repo *enrollmentRepository) FindAttendance(ctx context.Context, enrollmentID, slotID string, date time.Time) (enrollment.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.attendances {
		if a.EnrollmentID == enrollmentID && a.ScheduleSlotID == slotID && a.Date.Equal(date) {
			return *a, nil
		}
	}
	return enrollment.Attendance{}, enrollment.ErrAttendanceNotFound
}

func (repo *enrollmentRepository) QueryAttendances(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attendances := make([]enrollment.Attendance, 0, len(repo.db.attendances))
	for _, a := range repo.db.attendances {
		if filter.EnrollmentID != "" && a.EnrollmentID != filter.EnrollmentID {
			continue
		}
		if filter.ScheduleSlotID != "" && a.ScheduleSlotID != filter.ScheduleSlotID {
			continue
		}
		e, ok := repo.db.enrollments[a.EnrollmentID]
		if !ok || !repo.matchEnrollment(e, enrollment.QueryFilter{
			SchoolID:        filter.SchoolID,
			GroupID:         filter.GroupID,
			StudentPersonID: filter.StudentPersonID,
		}) {
			continue
		}
		attendances = append(attendances, *a)
	}
	return attendances, nil
}

func (repo *enrollmentRepository) UpdateAttendance(ctx context.Context, a enrollment.Attendance) (enrollment.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.attendances[a.ID]; !ok {
		return enrollment.Attendance{}, enrollment.ErrAttendanceNotFound
	}
	repo.db.attendances[a.ID] = &a
	return a, nil
}

func (repo *enrollmentRepository) DeleteAttendance(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.attendances[id]; !ok {
		return enrollment.ErrAttendanceNotFound
	}
	delete(repo.db.attendances, id)
	return nil
}

// matchEnrollment applies the filter fields that live on the enrollment row or
// above it in the ownership graph; callers hold the lock.
func (repo *enrollmentRepository) matchEnrollment(e *enrollment.Enrollment, filter enrollment.QueryFilter) bool {
	if filter.GroupID != "" && e.GroupID != filter.GroupID {
		return false
	}
	if filter.StudentPersonID != "" && e.StudentPersonID != filter.StudentPersonID {
		return false
	}
	if filter.Status != "" && e.Status != filter.Status {
		return false
	}
	if filter.SchoolID != "" && repo.db.groupSchoolID(e.GroupID) != filter.SchoolID {
		return false
	}
	return true
}
