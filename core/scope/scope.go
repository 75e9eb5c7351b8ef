// Package scope is the tenant authorization engine: it maps any entity to the
// school that owns it and decides whether an actor may act on it. Every domain
// service requests decisions here; none of them compares roles on its own.
package scope

import (
	"context"

	"github.com/colegia/backend/core"
)

// Entity identifies an entity type for ownership resolution.
type Entity string

const (
	EntitySchool             Entity = "school"
	EntityCampus             Entity = "campus"
	EntityClassroom          Entity = "classroom"
	EntityEducationLevel     Entity = "education-level"
	EntityAcademicYear       Entity = "academic-year"
	EntityShift              Entity = "shift"
	EntityCourse             Entity = "course"
	EntityCourseYear         Entity = "course-year-assignment"
	EntityTeachingAssignment Entity = "teaching-assignment"
	EntityClassGroup         Entity = "class-group"
	EntityScheduleSlot       Entity = "schedule-slot"
	EntityEnrollment         Entity = "enrollment"
	EntityGrade              Entity = "grade"
	EntityAttendance         Entity = "attendance"
)

// Action distinguishes reads from mutations; teachers get read access to
// school-level resources they do not own.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Actor is the authenticated caller. It is carried explicitly through every
// service call; there is no ambient "current school".
type Actor struct {
	PersonID     string
	Role         string
	HomeSchoolID string // empty for global admins
}

// Scope is an entity's resolved position in the ownership graph.
type Scope struct {
	SchoolID         string
	TeacherPersonID  string // set for teaching assignments, schedule slots, grades
	StudentPersonID  string // set for enrollments, grades, attendances
	RecorderPersonID string // set for attendances
}

// Resolver walks the ownership graph upward from an entity instance. All joins
// in the chain must resolve; a broken link reports not-found, never a partial
// Scope.
type Resolver interface {
	// ResolveSchool returns the id of the school owning the entity.
	ResolveSchool(ctx context.Context, entity Entity, id string) (string, error)
	// Resolve returns the full scope, including directly-owning persons where
	// the entity type has them.
	Resolve(ctx context.Context, entity Entity, id string) (Scope, error)
}

var errScopeNotFound = core.NewError(core.KindNotFound, "not found")

// Check resolves the scope of (entity, id) and authorizes actor for action on
// it. Cross-tenant denials are reported as not-found so that foreign-school
// actors cannot probe for existence; same-tenant denials stay explicit.
func Check(ctx context.Context, r Resolver, actor Actor, action Action, entity Entity, id string) (Scope, error) {
	sc, err := r.Resolve(ctx, entity, id)
	if err != nil {
		return Scope{}, err
	}
	if err := Authorize(actor, action, sc); err != nil {
		if actor.HomeSchoolID != "" && sc.SchoolID != "" && sc.SchoolID != actor.HomeSchoolID {
			return Scope{}, errScopeNotFound
		}
		return Scope{}, err
	}
	return sc, nil
}

// CheckResolved authorizes actor against an already-resolved scope, applying
// the same cross-tenant masking as Check.
func CheckResolved(actor Actor, action Action, sc Scope) error {
	if err := Authorize(actor, action, sc); err != nil {
		if actor.HomeSchoolID != "" && sc.SchoolID != "" && sc.SchoolID != actor.HomeSchoolID {
			return errScopeNotFound
		}
		return err
	}
	return nil
}

// CheckSchool authorizes actor against a bare school scope; used when creating
// an entity whose owner is known before it exists (e.g. a campus under a
// school).
func CheckSchool(actor Actor, action Action, schoolID string) error {
	return CheckResolved(actor, action, Scope{SchoolID: schoolID})
}
