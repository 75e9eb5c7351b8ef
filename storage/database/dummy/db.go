// Package dummydb is a mutex-guarded in-memory implementation of the storage
// repositories; tests and local development run on it without a database.
package dummydb

import (
	"sync"

	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/enrollment"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
)

// DB holds every table behind one lock; cross-table filters (e.g. enrollments
// by school) walk the maps directly.
type DB struct {
	sync.RWMutex

	persons  map[string]*person.Person
	accounts map[string]*person.Account

	schools    map[string]*school.School
	campuses   map[string]*school.Campus
	classrooms map[string]*school.Classroom

	levels      map[string]*academic.EducationLevel
	years       map[string]*academic.AcademicYear
	shifts      map[string]*academic.Shift
	courses     map[string]*academic.Course
	courseYears map[string]*academic.CourseYearAssignment
	assignments map[string]*academic.TeachingAssignment
	groups      map[string]*academic.ClassGroup
	slots       map[string]*academic.ScheduleSlot

	enrollments map[string]*enrollment.Enrollment
	grades      map[string]*enrollment.Grade
	attendances map[string]*enrollment.Attendance
}

func NewDB() *DB {
	return &DB{
		persons:     make(map[string]*person.Person),
		accounts:    make(map[string]*person.Account),
		schools:     make(map[string]*school.School),
		campuses:    make(map[string]*school.Campus),
		classrooms:  make(map[string]*school.Classroom),
		levels:      make(map[string]*academic.EducationLevel),
		years:       make(map[string]*academic.AcademicYear),
		shifts:      make(map[string]*academic.Shift),
		courses:     make(map[string]*academic.Course),
		courseYears: make(map[string]*academic.CourseYearAssignment),
		assignments: make(map[string]*academic.TeachingAssignment),
		groups:      make(map[string]*academic.ClassGroup),
		slots:       make(map[string]*academic.ScheduleSlot),
		enrollments: make(map[string]*enrollment.Enrollment),
		grades:      make(map[string]*enrollment.Grade),
		attendances: make(map[string]*enrollment.Attendance),
	}
}

// campusSchoolID walks campus -> school; callers hold the lock.
func (db *DB) campusSchoolID(campusID string) string {
	if c, ok := db.campuses[campusID]; ok {
		return c.SchoolID
	}
	return ""
}

// groupSchoolID walks group -> campus -> school; callers hold the lock.
func (db *DB) groupSchoolID(groupID string) string {
	if g, ok := db.groups[groupID]; ok {
		return db.campusSchoolID(g.CampusID)
	}
	return ""
}
