package scope

import (
	"github.com/colegia/backend/core"

	"github.com/colegia/backend/core/person"
)

var (
	errWrongSchool  = core.NewError(core.KindDenied, "wrong school")
	errInsufficient = core.NewError(core.KindDenied, "insufficient permissions")
)

// Authorize decides whether actor may perform action on an entity with the
// given resolved scope. It is pure: callers resolve the scope first.
//
// Rules, in order:
//  1. global admins may do anything;
//  2. school admins may act within their home school;
//  3. teachers may act on home-school entities they directly own (including
//     attendance marks they recorded) and read anything in their home school;
//  4. students may act on their own records only.
func Authorize(actor Actor, action Action, sc Scope) error {
	switch actor.Role {
	case person.RoleGlobalAdmin:
		return nil

	case person.RoleSchoolAdmin:
		if sc.SchoolID != "" && sc.SchoolID == actor.HomeSchoolID {
			return nil
		}
		return errWrongSchool

	case person.RoleTeacher:
		if sc.TeacherPersonID != "" {
			// ownership never crosses the school boundary
			if sc.TeacherPersonID == actor.PersonID && (sc.SchoolID == "" || sc.SchoolID == actor.HomeSchoolID) {
				return nil
			}
			return errInsufficient
		}
		if sc.RecorderPersonID == actor.PersonID && sc.SchoolID == actor.HomeSchoolID {
			return nil
		}
		if action == ActionRead && sc.SchoolID != "" && sc.SchoolID == actor.HomeSchoolID {
			return nil
		}
		return errInsufficient

	case person.RoleStudent:
		if sc.StudentPersonID != "" && sc.StudentPersonID == actor.PersonID {
			return nil
		}
		return errInsufficient
	}
	return errInsufficient
}
