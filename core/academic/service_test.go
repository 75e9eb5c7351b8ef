package academic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/scope"
	testutil "github.com/colegia/backend/tests"
)

type academicEnv struct {
	f   *testutil.Fixture
	svc *academic.Service
}

func newAcademicEnv() academicEnv {
	f := testutil.NewFixture()
	return academicEnv{
		f:   f,
		svc: academic.NewService(f.AcademicRepo, f.SchoolRepo, f.PersonRepo, f.Resolver),
	}
}

func globalAdmin() scope.Actor {
	return scope.Actor{PersonID: "p-global", Role: person.RoleGlobalAdmin}
}

func schoolAdmin(schoolID string) scope.Actor {
	return scope.Actor{PersonID: "p-admin-" + schoolID, Role: person.RoleSchoolAdmin, HomeSchoolID: schoolID}
}

func TestService_CreateYear(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()
	level := env.f.CreateLevel(t, "Primary")

	y, err := env.svc.CreateYear(ctx, globalAdmin(), academic.NewAcademicYear{LevelID: level.ID, Number: 3, Name: "3rd Grade"})
	require.NoError(t, err)
	assert.Equal(t, level.ID, y.LevelID)
	assert.Equal(t, 3, y.Number)

	// the (level, number) pair is unique
	_, err = env.svc.CreateYear(ctx, globalAdmin(), academic.NewAcademicYear{LevelID: level.ID, Number: 3, Name: "3rd Grade bis"})
	assert.Equal(t, core.KindDuplicateKey, core.KindOf(err))

	// catalogs are global-admin territory
	_, err = env.svc.CreateYear(ctx, schoolAdmin("school1"), academic.NewAcademicYear{LevelID: level.ID, Number: 4, Name: "4th Grade"})
	assert.Equal(t, core.KindDenied, core.KindOf(err))

	// unknown level
	_, err = env.svc.CreateYear(ctx, globalAdmin(), academic.NewAcademicYear{LevelID: "nope", Number: 1, Name: "1st"})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestService_DeleteLevel_restrictsWhileReferenced(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()
	level := env.f.CreateLevel(t, "Secondary")
	env.f.CreateYear(t, level.ID, 1)

	err := env.svc.DeleteLevel(ctx, globalAdmin(), level.ID)
	require.Error(t, err)
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err)) // validation error
}

func TestService_CreateAssignment(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()

	s1 := env.f.CreateSchool(t, "North High", "mc-001")
	s2 := env.f.CreateSchool(t, "South High", "mc-002")
	course := env.f.CreateCourse(t, s1.ID, "MATH101")

	teacher, _ := env.f.CreatePersonWithAccount(t, "teach1", person.RoleTeacher, s1.ID)
	foreignTeacher, _ := env.f.CreatePersonWithAccount(t, "teach2", person.RoleTeacher, s2.ID)
	student, _ := env.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, s1.ID)

	admin := schoolAdmin(s1.ID)

	ta, err := env.svc.CreateAssignment(ctx, admin, academic.NewTeachingAssignment{TeacherPersonID: teacher.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, ta.TeacherPersonID)

	// the pair is unique
	_, err = env.svc.CreateAssignment(ctx, admin, academic.NewTeachingAssignment{TeacherPersonID: teacher.ID, CourseID: course.ID})
	assert.Equal(t, core.KindDuplicateKey, core.KindOf(err))

	// only teacher accounts may be assigned
	_, err = env.svc.CreateAssignment(ctx, admin, academic.NewTeachingAssignment{TeacherPersonID: student.ID, CourseID: course.ID})
	assert.Equal(t, core.KindRoleMismatch, core.KindOf(err))

	// the teacher must be homed in the course's school
	_, err = env.svc.CreateAssignment(ctx, admin, academic.NewTeachingAssignment{TeacherPersonID: foreignTeacher.ID, CourseID: course.ID})
	assert.Equal(t, core.KindOwnershipMismatch, core.KindOf(err))

	// a foreign-school admin cannot even see the course
	_, err = env.svc.CreateAssignment(ctx, schoolAdmin(s2.ID), academic.NewTeachingAssignment{TeacherPersonID: foreignTeacher.ID, CourseID: course.ID})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestService_CreateGroup(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()

	s1 := env.f.CreateSchool(t, "North High", "mc-001")
	campus := env.f.CreateCampus(t, s1.ID, "Main")
	otherCampus := env.f.CreateCampus(t, s1.ID, "Annex")
	room := env.f.CreateClassroom(t, campus.ID, "A-1", 30)
	foreignRoom := env.f.CreateClassroom(t, otherCampus.ID, "B-1", 30)
	level := env.f.CreateLevel(t, "Primary")
	year := env.f.CreateYear(t, level.ID, 1)
	shift := env.f.CreateShift(t, "Morning")

	admin := schoolAdmin(s1.ID)
	ng := academic.NewClassGroup{CampusID: campus.ID, YearID: year.ID, ClassroomID: room.ID, ShiftID: shift.ID, Name: "1-A"}

	g, err := env.svc.CreateGroup(ctx, admin, ng)
	require.NoError(t, err)
	assert.Equal(t, 0, g.CurrentSeatCount)

	// same campus+year+classroom+shift is a duplicate
	_, err = env.svc.CreateGroup(ctx, admin, ng)
	assert.Equal(t, core.KindDuplicateKey, core.KindOf(err))

	// the classroom must sit on the group's campus
	ng2 := ng
	ng2.ClassroomID = foreignRoom.ID
	_, err = env.svc.CreateGroup(ctx, admin, ng2)
	assert.Equal(t, core.KindOwnershipMismatch, core.KindOf(err))
}

func TestService_UpdateGroup_capacity(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()

	s1 := env.f.CreateSchool(t, "North High", "mc-001")
	campus := env.f.CreateCampus(t, s1.ID, "Main")
	bigRoom := env.f.CreateClassroom(t, campus.ID, "A-1", 30)
	tinyRoom := env.f.CreateClassroom(t, campus.ID, "A-2", 1)
	level := env.f.CreateLevel(t, "Primary")
	year := env.f.CreateYear(t, level.ID, 1)
	shift := env.f.CreateShift(t, "Morning")
	group := env.f.CreateGroup(t, campus.ID, year.ID, bigRoom.ID, shift.ID, "1-A")

	stud1, _ := env.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, s1.ID)
	stud2, _ := env.f.CreatePersonWithAccount(t, "stud2", person.RoleStudent, s1.ID)
	env.f.CreateEnrollment(t, stud1.ID, group.ID)
	env.f.CreateEnrollment(t, stud2.ID, group.ID)

	// two seated students do not fit a one-seat room
	_, err := env.svc.UpdateGroup(ctx, schoolAdmin(s1.ID), group.ID, academic.UpdateClassGroup{ClassroomID: tinyRoom.ID})
	assert.Equal(t, core.KindCapacityExceeded, core.KindOf(err))

	// moving within capacity is fine
	g, err := env.svc.UpdateGroup(ctx, schoolAdmin(s1.ID), group.ID, academic.UpdateClassGroup{Name: "1-B"})
	require.NoError(t, err)
	assert.Equal(t, "1-B", g.Name)
	assert.Equal(t, 2, g.CurrentSeatCount)
}

func TestService_CreateSlot(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()

	s1 := env.f.CreateSchool(t, "North High", "mc-001")
	campus := env.f.CreateCampus(t, s1.ID, "Main")
	room := env.f.CreateClassroom(t, campus.ID, "A-1", 30)
	level := env.f.CreateLevel(t, "Primary")
	year := env.f.CreateYear(t, level.ID, 1)
	shift := env.f.CreateShift(t, "Morning")
	group := env.f.CreateGroup(t, campus.ID, year.ID, room.ID, shift.ID, "1-A")

	course := env.f.CreateCourse(t, s1.ID, "MATH101")
	teacher, _ := env.f.CreatePersonWithAccount(t, "teach1", person.RoleTeacher, s1.ID)
	ta := env.f.CreateAssignment(t, teacher.ID, course.ID)

	admin := schoolAdmin(s1.ID)

	slot, err := env.svc.CreateSlot(ctx, admin, academic.NewScheduleSlot{
		GroupID: group.ID, TeachingAssignmentID: ta.ID,
		Weekday: "Monday", StartTime: "08:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Monday", slot.Weekday)

	// start must precede end
	_, err = env.svc.CreateSlot(ctx, admin, academic.NewScheduleSlot{
		GroupID: group.ID, TeachingAssignmentID: ta.ID,
		Weekday: "Tuesday", StartTime: "10:00", EndTime: "08:00",
	})
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))

	// overlapping ranges on the same weekday are rejected
	_, err = env.svc.CreateSlot(ctx, admin, academic.NewScheduleSlot{
		GroupID: group.ID, TeachingAssignmentID: ta.ID,
		Weekday: "Monday", StartTime: "09:00", EndTime: "11:00",
	})
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))

	// back-to-back is not an overlap (half-open ranges)
	_, err = env.svc.CreateSlot(ctx, admin, academic.NewScheduleSlot{
		GroupID: group.ID, TeachingAssignmentID: ta.ID,
		Weekday: "Monday", StartTime: "10:00", EndTime: "12:00",
	})
	assert.NoError(t, err)

	// same weekday on another group's schedule is independent
	group2 := env.f.CreateGroup(t, campus.ID, year.ID, room.ID, env.f.CreateShift(t, "Afternoon").ID, "1-B")
	_, err = env.svc.CreateSlot(ctx, admin, academic.NewScheduleSlot{
		GroupID: group2.ID, TeachingAssignmentID: ta.ID,
		Weekday: "Monday", StartTime: "08:00", EndTime: "10:00",
	})
	assert.NoError(t, err)
}

func TestService_QueryAssignments_scoping(t *testing.T) {
	env := newAcademicEnv()
	ctx := context.Background()

	s1 := env.f.CreateSchool(t, "North High", "mc-001")
	course := env.f.CreateCourse(t, s1.ID, "MATH101")
	course2 := env.f.CreateCourse(t, s1.ID, "BIO101")
	teacher, _ := env.f.CreatePersonWithAccount(t, "teach1", person.RoleTeacher, s1.ID)
	teacher2, _ := env.f.CreatePersonWithAccount(t, "teach2", person.RoleTeacher, s1.ID)
	env.f.CreateAssignment(t, teacher.ID, course.ID)
	env.f.CreateAssignment(t, teacher2.ID, course2.ID)

	// a teacher only sees their own assignments
	actor := scope.Actor{PersonID: teacher.ID, Role: person.RoleTeacher, HomeSchoolID: s1.ID}
	assignments, err := env.svc.QueryAssignments(ctx, actor, academic.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, teacher.ID, assignments[0].TeacherPersonID)

	// a school admin sees the whole school
	assignments, err = env.svc.QueryAssignments(ctx, schoolAdmin(s1.ID), academic.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
}
