// Package testutil seeds in-memory fixtures for service and API tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/enrollment"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
	"github.com/colegia/backend/storage/database"
	dummydb "github.com/colegia/backend/storage/database/dummy"
)

// Fixture bundles the in-memory repositories over one shared DB.
type Fixture struct {
	DB             *dummydb.DB
	PersonRepo     person.Repository
	SchoolRepo     school.Repository
	AcademicRepo   academic.Repository
	EnrollmentRepo enrollment.Repository
	Resolver       *database.Resolver
}

func NewFixture() *Fixture {
	db := dummydb.NewDB()
	personRepo := dummydb.NewPersonRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	academicRepo := dummydb.NewAcademicRepository(db)
	enrollmentRepo := dummydb.NewEnrollmentRepository(db)
	return &Fixture{
		DB:             db,
		PersonRepo:     personRepo,
		SchoolRepo:     schoolRepo,
		AcademicRepo:   academicRepo,
		EnrollmentRepo: enrollmentRepo,
		Resolver:       database.NewResolver(schoolRepo, academicRepo, enrollmentRepo),
	}
}

func (f *Fixture) CreateSchool(t *testing.T, name, modularCode string) school.School {
	t.Helper()
	now := time.Now().UTC()
	s, err := f.SchoolRepo.CreateSchool(context.Background(), school.School{
		ID:              uuid.New().String(),
		Name:            name,
		ModularCode:     modularCode,
		TaxID:           "tax-" + modularCode,
		InstitutionType: "private",
		AcademicRegime:  "semester",
		Address:         "1 Main St",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateSchool(): %v", err)
	}
	return s
}

func (f *Fixture) CreateCampus(t *testing.T, schoolID, name string) school.Campus {
	t.Helper()
	now := time.Now().UTC()
	c, err := f.SchoolRepo.CreateCampus(context.Background(), school.Campus{
		ID:        uuid.New().String(),
		SchoolID:  schoolID,
		Name:      name,
		Address:   "2 Side St",
		District:  "Centro",
		City:      "Lima",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCampus(): %v", err)
	}
	return c
}

func (f *Fixture) CreateClassroom(t *testing.T, campusID, name string, capacity int) school.Classroom {
	t.Helper()
	now := time.Now().UTC()
	r, err := f.SchoolRepo.CreateClassroom(context.Background(), school.Classroom{
		ID:        uuid.New().String(),
		CampusID:  campusID,
		Name:      name,
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateClassroom(): %v", err)
	}
	return r
}

func (f *Fixture) CreateLevel(t *testing.T, name string) academic.EducationLevel {
	t.Helper()
	now := time.Now().UTC()
	l, err := f.AcademicRepo.CreateLevel(context.Background(), academic.EducationLevel{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateLevel(): %v", err)
	}
	return l
}

func (f *Fixture) CreateYear(t *testing.T, levelID string, number int) academic.AcademicYear {
	t.Helper()
	now := time.Now().UTC()
	y, err := f.AcademicRepo.CreateYear(context.Background(), academic.AcademicYear{
		ID:        uuid.New().String(),
		LevelID:   levelID,
		Number:    number,
		Name:      "Year",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateYear(): %v", err)
	}
	return y
}

func (f *Fixture) CreateShift(t *testing.T, name string) academic.Shift {
	t.Helper()
	now := time.Now().UTC()
	s, err := f.AcademicRepo.CreateShift(context.Background(), academic.Shift{
		ID:        uuid.New().String(),
		Name:      name,
		StartTime: "07:00",
		EndTime:   "13:00",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateShift(): %v", err)
	}
	return s
}

func (f *Fixture) CreateCourse(t *testing.T, schoolID, code string) academic.Course {
	t.Helper()
	now := time.Now().UTC()
	c, err := f.AcademicRepo.CreateCourse(context.Background(), academic.Course{
		ID:        uuid.New().String(),
		SchoolID:  schoolID,
		Code:      code,
		Name:      "Course " + code,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}
	return c
}

func (f *Fixture) CreateCourseYear(t *testing.T, courseID, yearID string) academic.CourseYearAssignment {
	t.Helper()
	cy, err := f.AcademicRepo.CreateCourseYear(context.Background(), academic.CourseYearAssignment{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		YearID:    yearID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourseYear(): %v", err)
	}
	return cy
}

func (f *Fixture) CreateAssignment(t *testing.T, teacherPersonID, courseID string) academic.TeachingAssignment {
	t.Helper()
	ta, err := f.AcademicRepo.CreateAssignment(context.Background(), academic.TeachingAssignment{
		ID:              uuid.New().String(),
		TeacherPersonID: teacherPersonID,
		CourseID:        courseID,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}
	return ta
}

func (f *Fixture) CreateGroup(t *testing.T, campusID, yearID, classroomID, shiftID, name string) academic.ClassGroup {
	t.Helper()
	now := time.Now().UTC()
	g, err := f.AcademicRepo.CreateGroup(context.Background(), academic.ClassGroup{
		ID:          uuid.New().String(),
		CampusID:    campusID,
		YearID:      yearID,
		ClassroomID: classroomID,
		ShiftID:     shiftID,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateGroup(): %v", err)
	}
	return g
}

func (f *Fixture) CreateSlot(t *testing.T, groupID, assignmentID, weekday, start, end string) academic.ScheduleSlot {
	t.Helper()
	now := time.Now().UTC()
	s, err := f.AcademicRepo.CreateSlot(context.Background(), academic.ScheduleSlot{
		ID:                   uuid.New().String(),
		GroupID:              groupID,
		TeachingAssignmentID: assignmentID,
		Weekday:              weekday,
		StartTime:            start,
		EndTime:              end,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		t.Fatalf("CreateSlot(): %v", err)
	}
	return s
}

// CreatePersonWithAccount creates a Person and an active Account in one go.
func (f *Fixture) CreatePersonWithAccount(t *testing.T, username, role, homeSchoolID string) (person.Person, person.Account) {
	t.Helper()
	now := time.Now().UTC()
	p, err := f.PersonRepo.CreatePerson(context.Background(), person.Person{
		ID:         uuid.New().String(),
		FirstName:  "Test",
		LastName:   username,
		NationalID: "nid-" + username,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreatePerson(): %v", err)
	}

	acct := person.Account{
		ID:           uuid.New().String(),
		PersonID:     p.ID,
		Username:     username,
		Role:         role,
		HomeSchoolID: homeSchoolID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acct.SetPassword("Sup3rSecret!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	acct, err = f.PersonRepo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateAccount(): %v", err)
	}
	return p, acct
}

func (f *Fixture) CreateEnrollment(t *testing.T, studentPersonID, groupID string) enrollment.Enrollment {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	var e enrollment.Enrollment
	err := f.EnrollmentRepo.Atomic(ctx, func(repo enrollment.Repository) error {
		if err := repo.AdjustSeatCount(ctx, groupID, 1); err != nil {
			return err
		}
		var err error
		e, err = repo.CreateEnrollment(ctx, enrollment.Enrollment{
			ID:              uuid.New().String(),
			StudentPersonID: studentPersonID,
			GroupID:         groupID,
			Status:          enrollment.StatusActive,
			EnrolledAt:      now,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		return err
	})
	if err != nil {
		t.Fatalf("CreateEnrollment(): %v", err)
	}
	return e
}
