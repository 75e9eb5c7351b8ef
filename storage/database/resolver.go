package database

import (
	"context"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/enrollment"
	"github.com/colegia/backend/core/school"
	"github.com/colegia/backend/core/scope"
)

// Resolver walks the ownership graph through the domain repositories, so the
// same chain-of-joins logic serves every storage backend. Global catalog
// entities (levels, years, shifts) resolve to an empty scope.
type Resolver struct {
	schools     school.Repository
	academics   academic.Repository
	enrollments enrollment.Repository
}

var _ scope.Resolver = (*Resolver)(nil) // interface compliance check

func NewResolver(schools school.Repository, academics academic.Repository, enrollments enrollment.Repository) *Resolver {
	return &Resolver{schools: schools, academics: academics, enrollments: enrollments}
}

func (r *Resolver) ResolveSchool(ctx context.Context, entity scope.Entity, id string) (string, error) {
	sc, err := r.Resolve(ctx, entity, id)
	if err != nil {
		return "", err
	}
	return sc.SchoolID, nil
}

func (r *Resolver) Resolve(ctx context.Context, entity scope.Entity, id string) (scope.Scope, error) {
	switch entity {
	case scope.EntitySchool:
		if _, err := r.schools.GetSchoolByID(ctx, id); err != nil {
			return scope.Scope{}, err
		}
		return scope.Scope{SchoolID: id}, nil

	case scope.EntityCampus:
		c, err := r.schools.GetCampusByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		return scope.Scope{SchoolID: c.SchoolID}, nil

	case scope.EntityClassroom:
		room, err := r.schools.GetClassroomByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		return r.Resolve(ctx, scope.EntityCampus, room.CampusID)

	case scope.EntityEducationLevel:
		if _, err := r.academics.GetLevelByID(ctx, id); err != nil {
			return scope.Scope{}, err
		}
		return scope.Scope{}, nil

	case scope.EntityAcademicYear:
		if _, err := r.academics.GetYearByID(ctx, id); err != nil {
			return scope.Scope{}, err
		}
		return scope.Scope{}, nil

	case scope.EntityShift:
		if _, err := r.academics.GetShiftByID(ctx, id); err != nil {
			return scope.Scope{}, err
		}
		return scope.Scope{}, nil

	case scope.EntityCourse:
		c, err := r.academics.GetCourseByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		return scope.Scope{SchoolID: c.SchoolID}, nil

	case scope.EntityCourseYear:
		a, err := r.academics.GetCourseYearByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		return r.Resolve(ctx, scope.EntityCourse, a.CourseID)

	case scope.EntityTeachingAssignment:
		ta, err := r.academics.GetAssignmentByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		sc, err := r.Resolve(ctx, scope.EntityCourse, ta.CourseID)
		if err != nil {
			return scope.Scope{}, err
		}
		sc.TeacherPersonID = ta.TeacherPersonID
		return sc, nil

	case scope.EntityClassGroup:
		g, err := r.academics.GetGroupByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		return r.Resolve(ctx, scope.EntityCampus, g.CampusID)

	case scope.EntityScheduleSlot:
		s, err := r.academics.GetSlotByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		sc, err := r.Resolve(ctx, scope.EntityClassGroup, s.GroupID)
		if err != nil {
			return scope.Scope{}, err
		}
		ta, err := r.academics.GetAssignmentByID(ctx, s.TeachingAssignmentID)
		if err != nil {
			return scope.Scope{}, err
		}
		sc.TeacherPersonID = ta.TeacherPersonID
		return sc, nil

	case scope.EntityEnrollment:
		e, err := r.enrollments.GetEnrollmentByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		sc, err := r.Resolve(ctx, scope.EntityClassGroup, e.GroupID)
		if err != nil {
			return scope.Scope{}, err
		}
		sc.StudentPersonID = e.StudentPersonID
		return sc, nil

	case scope.EntityGrade:
		g, err := r.enrollments.GetGradeByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		sc, err := r.Resolve(ctx, scope.EntityEnrollment, g.EnrollmentID)
		if err != nil {
			return scope.Scope{}, err
		}
		ta, err := r.academics.GetAssignmentByID(ctx, g.TeachingAssignmentID)
		if err != nil {
			return scope.Scope{}, err
		}
		sc.TeacherPersonID = ta.TeacherPersonID
		return sc, nil

	case scope.EntityAttendance:
		a, err := r.enrollments.GetAttendanceByID(ctx, id)
		if err != nil {
			return scope.Scope{}, err
		}
		sc, err := r.Resolve(ctx, scope.EntityEnrollment, a.EnrollmentID)
		if err != nil {
			return scope.Scope{}, err
		}
		sc.RecorderPersonID = a.RecorderPersonID
		return sc, nil
	}
	return scope.Scope{}, core.NewError(core.KindUnexpected, "unknown entity type")
}
