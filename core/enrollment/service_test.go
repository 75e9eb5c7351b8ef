package enrollment_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/enrollment"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
	"github.com/colegia/backend/core/scope"
	emailsvc "github.com/colegia/backend/services/email"
	testutil "github.com/colegia/backend/tests"
)

// graph is one school wired all the way down to a schedule slot.
type graph struct {
	f   *testutil.Fixture
	svc *enrollment.Service

	school  school.School
	campus  school.Campus
	group   academic.ClassGroup
	course  academic.Course
	year    academic.AcademicYear
	ta      academic.TeachingAssignment
	slot    academic.ScheduleSlot
	teacher person.Person
	admin   scope.Actor
}

func newGraph(t *testing.T, roomCapacity int) graph {
	f := testutil.NewFixture()
	conf := &core.Config{AppName: "Colegia", DefaultFromName: "Colegia", DefaultFromAddr: "noreply@localhost"}

	s := f.CreateSchool(t, "North High", "mc-001")
	campus := f.CreateCampus(t, s.ID, "Main")
	room := f.CreateClassroom(t, campus.ID, "A-1", roomCapacity)
	level := f.CreateLevel(t, "Primary")
	year := f.CreateYear(t, level.ID, 1)
	shift := f.CreateShift(t, "Morning")
	group := f.CreateGroup(t, campus.ID, year.ID, room.ID, shift.ID, "1-A")

	course := f.CreateCourse(t, s.ID, "MATH101")
	f.CreateCourseYear(t, course.ID, year.ID)
	teacher, _ := f.CreatePersonWithAccount(t, "teach1", person.RoleTeacher, s.ID)
	ta := f.CreateAssignment(t, teacher.ID, course.ID)
	slot := f.CreateSlot(t, group.ID, ta.ID, "Monday", "08:00", "10:00")

	adminPerson, _ := f.CreatePersonWithAccount(t, "admin1", person.RoleSchoolAdmin, s.ID)

	return graph{
		f:       f,
		svc:     enrollment.NewService(f.EnrollmentRepo, f.AcademicRepo, f.PersonRepo, f.Resolver, emailsvc.NewConsoleServiceMock(conf)),
		school:  s,
		campus:  campus,
		group:   group,
		course:  course,
		year:    year,
		ta:      ta,
		slot:    slot,
		teacher: teacher,
		admin:   scope.Actor{PersonID: adminPerson.ID, Role: person.RoleSchoolAdmin, HomeSchoolID: s.ID},
	}
}

func (g graph) teacherActor() scope.Actor {
	return scope.Actor{PersonID: g.teacher.ID, Role: person.RoleTeacher, HomeSchoolID: g.school.ID}
}

func (g graph) seatCount(t *testing.T) int {
	return g.seatOf(t, g.group.ID)
}

func (g graph) seatOf(t *testing.T, groupID string) int {
	t.Helper()
	grp, err := g.f.AcademicRepo.GetGroupByID(context.Background(), groupID)
	if err != nil {
		t.Fatalf("GetGroupByID(): %v", err)
	}
	return grp.CurrentSeatCount
}

func TestService_Enroll(t *testing.T) {
	g := newGraph(t, 2)
	ctx := context.Background()

	student, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	notStudent, _ := g.f.CreatePersonWithAccount(t, "teach2", person.RoleTeacher, g.school.ID)

	foreignSchool := g.f.CreateSchool(t, "South High", "mc-002")
	foreignStudent, _ := g.f.CreatePersonWithAccount(t, "stud2", person.RoleStudent, foreignSchool.ID)

	e, err := g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: student.ID, GroupID: g.group.ID})
	require.NoError(t, err)
	assert.True(t, e.IsActive())
	assert.Equal(t, 1, g.seatCount(t))

	// a second active enrollment for the same student is a duplicate
	_, err = g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: student.ID, GroupID: g.group.ID})
	assert.Equal(t, enrollment.ErrAlreadyEnrolled, err)
	assert.Equal(t, core.KindDuplicateKey, core.KindOf(err))
	assert.Equal(t, 1, g.seatCount(t))

	// only student accounts enroll
	_, err = g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: notStudent.ID, GroupID: g.group.ID})
	assert.Equal(t, core.KindRoleMismatch, core.KindOf(err))

	// the student must be homed in the group's school
	_, err = g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: foreignStudent.ID, GroupID: g.group.ID})
	assert.Equal(t, core.KindOwnershipMismatch, core.KindOf(err))
	assert.Equal(t, 1, g.seatCount(t))
}

func TestService_Enroll_groupFull(t *testing.T) {
	g := newGraph(t, 1)
	ctx := context.Background()

	stud1, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	stud2, _ := g.f.CreatePersonWithAccount(t, "stud2", person.RoleStudent, g.school.ID)

	_, err := g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: stud1.ID, GroupID: g.group.ID})
	require.NoError(t, err)

	_, err = g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: stud2.ID, GroupID: g.group.ID})
	assert.Equal(t, core.KindCapacityExceeded, core.KindOf(err))
	assert.Equal(t, 1, g.seatCount(t))
}

func TestService_WithdrawAndReactivate(t *testing.T) {
	g := newGraph(t, 1)
	ctx := context.Background()

	stud1, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	stud2, _ := g.f.CreatePersonWithAccount(t, "stud2", person.RoleStudent, g.school.ID)

	e, err := g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: stud1.ID, GroupID: g.group.ID})
	require.NoError(t, err)

	e, err = g.svc.Withdraw(ctx, g.admin, e.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusWithdrawn, e.Status)
	assert.NotNil(t, e.WithdrawnAt)
	assert.Equal(t, 0, g.seatCount(t))

	// withdrawing twice is a no-go
	_, err = g.svc.Withdraw(ctx, g.admin, e.ID)
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))

	// the freed seat can be taken...
	_, err = g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: stud2.ID, GroupID: g.group.ID})
	require.NoError(t, err)

	// ...after which reactivation finds the group full
	_, err = g.svc.Reactivate(ctx, g.admin, e.ID)
	assert.Equal(t, core.KindCapacityExceeded, core.KindOf(err))

	refreshed, err := g.svc.GetEnrollment(ctx, g.admin, e.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusWithdrawn, refreshed.Status)
	assert.Equal(t, 1, g.seatCount(t))
}

func TestService_Transfer(t *testing.T) {
	g := newGraph(t, 1)
	ctx := context.Background()

	room2 := g.f.CreateClassroom(t, g.campus.ID, "B-1", 1)
	shift2 := g.f.CreateShift(t, "Evening")
	group2 := g.f.CreateGroup(t, g.campus.ID, g.year.ID, room2.ID, shift2.ID, "1-B")

	stud1, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	stud2, _ := g.f.CreatePersonWithAccount(t, "stud2", person.RoleStudent, g.school.ID)

	e1, err := g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: stud1.ID, GroupID: g.group.ID})
	require.NoError(t, err)

	moved, err := g.svc.Transfer(ctx, g.admin, e1.ID, enrollment.TransferEnrollment{GroupID: group2.ID})
	require.NoError(t, err)
	assert.Equal(t, group2.ID, moved.GroupID)
	assert.Equal(t, 0, g.seatOf(t, g.group.ID))
	assert.Equal(t, 1, g.seatOf(t, group2.ID))

	// a full target group leaves the enrollment and both ledgers untouched
	e2, err := g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: stud2.ID, GroupID: g.group.ID})
	require.NoError(t, err)
	_, err = g.svc.Transfer(ctx, g.admin, e2.ID, enrollment.TransferEnrollment{GroupID: group2.ID})
	assert.Equal(t, core.KindCapacityExceeded, core.KindOf(err))
	refreshed, err := g.f.EnrollmentRepo.GetEnrollmentByID(ctx, e2.ID)
	require.NoError(t, err)
	assert.Equal(t, g.group.ID, refreshed.GroupID)
	assert.Equal(t, 1, g.seatOf(t, g.group.ID))
	assert.Equal(t, 1, g.seatOf(t, group2.ID))

	// no-op transfers are rejected
	_, err = g.svc.Transfer(ctx, g.admin, e2.ID, enrollment.TransferEnrollment{GroupID: g.group.ID})
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))

	// withdrawn enrollments do not move
	_, err = g.svc.Withdraw(ctx, g.admin, e2.ID)
	require.NoError(t, err)
	_, err = g.svc.Transfer(ctx, g.admin, e2.ID, enrollment.TransferEnrollment{GroupID: group2.ID})
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))
}

func TestService_Enroll_sendsConfirmation(t *testing.T) {
	g := newGraph(t, 5)
	ctx := context.Background()

	student, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	p, err := g.f.PersonRepo.GetPersonByID(ctx, student.ID)
	require.NoError(t, err)
	p.Email = "stud1@school.test"
	_, err = g.f.PersonRepo.UpdatePerson(ctx, p)
	require.NoError(t, err)

	before := len(emailsvc.SentMessages)
	_, err = g.svc.Enroll(ctx, g.admin, enrollment.NewEnrollment{StudentPersonID: student.ID, GroupID: g.group.ID})
	require.NoError(t, err)

	require.Len(t, emailsvc.SentMessages, before+1)
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "Enrollment confirmation", msg.Subject)
	assert.Equal(t, "stud1@school.test", msg.To[0].Address)
}

func TestService_RecordGrade(t *testing.T) {
	g := newGraph(t, 10)
	ctx := context.Background()

	student, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	e := g.f.CreateEnrollment(t, student.ID, g.group.ID)

	grade, err := g.svc.RecordGrade(ctx, g.teacherActor(), enrollment.NewGrade{
		EnrollmentID: e.ID, TeachingAssignmentID: g.ta.ID, Score: 15.5, Period: "T1",
	})
	require.NoError(t, err)
	assert.Equal(t, 15.5, grade.Score)

	// re-grading appends; history is kept
	_, err = g.svc.RecordGrade(ctx, g.teacherActor(), enrollment.NewGrade{
		EnrollmentID: e.ID, TeachingAssignmentID: g.ta.ID, Score: 17, Period: "T1",
	})
	require.NoError(t, err)
	grades, err := g.svc.QueryGrades(ctx, g.admin, enrollment.QueryFilter{EnrollmentID: e.ID})
	require.NoError(t, err)
	assert.Len(t, grades, 2)

	// a teacher cannot grade under someone else's assignment
	otherTeacher, _ := g.f.CreatePersonWithAccount(t, "teach9", person.RoleTeacher, g.school.ID)
	otherActor := scope.Actor{PersonID: otherTeacher.ID, Role: person.RoleTeacher, HomeSchoolID: g.school.ID}
	_, err = g.svc.RecordGrade(ctx, otherActor, enrollment.NewGrade{
		EnrollmentID: e.ID, TeachingAssignmentID: g.ta.ID, Score: 10,
	})
	assert.Equal(t, core.KindDenied, core.KindOf(err))

	// the assignment's course must be taught in the group's year
	strayCourse := g.f.CreateCourse(t, g.school.ID, "ART101")
	strayTA := g.f.CreateAssignment(t, g.teacher.ID, strayCourse.ID)
	_, err = g.svc.RecordGrade(ctx, g.teacherActor(), enrollment.NewGrade{
		EnrollmentID: e.ID, TeachingAssignmentID: strayTA.ID, Score: 12,
	})
	assert.Equal(t, core.KindOwnershipMismatch, core.KindOf(err))

	// no grading withdrawn enrollments
	_, err = g.svc.Withdraw(ctx, g.admin, e.ID)
	require.NoError(t, err)
	_, err = g.svc.RecordGrade(ctx, g.teacherActor(), enrollment.NewGrade{
		EnrollmentID: e.ID, TeachingAssignmentID: g.ta.ID, Score: 9,
	})
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))
}

func TestService_RecordGrade_crossSchool(t *testing.T) {
	g := newGraph(t, 10)
	ctx := context.Background()

	schoolB := g.f.CreateSchool(t, "South High", "mc-002")
	campusB := g.f.CreateCampus(t, schoolB.ID, "Main")
	roomB := g.f.CreateClassroom(t, campusB.ID, "B-1", 10)
	shiftB := g.f.CreateShift(t, "Afternoon")
	groupB := g.f.CreateGroup(t, campusB.ID, g.year.ID, roomB.ID, shiftB.ID, "1-B")
	studB, _ := g.f.CreatePersonWithAccount(t, "studb", person.RoleStudent, schoolB.ID)
	eB := g.f.CreateEnrollment(t, studB.ID, groupB.ID)

	// owning the assignment does not reach into another school's roster; the
	// foreign enrollment is masked, not just forbidden
	_, err := g.svc.RecordGrade(ctx, g.teacherActor(), enrollment.NewGrade{
		EnrollmentID: eB.ID, TeachingAssignmentID: g.ta.ID, Score: 12,
	})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestService_QueryGrades_teacherScoping(t *testing.T) {
	g := newGraph(t, 10)
	ctx := context.Background()

	student, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	e := g.f.CreateEnrollment(t, student.ID, g.group.ID)
	_, err := g.svc.RecordGrade(ctx, g.teacherActor(), enrollment.NewGrade{
		EnrollmentID: e.ID, TeachingAssignmentID: g.ta.ID, Score: 14,
	})
	require.NoError(t, err)

	// the issuing teacher and the school admin see the grade
	grades, err := g.svc.QueryGrades(ctx, g.teacherActor(), enrollment.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, grades, 1)
	grades, err = g.svc.QueryGrades(ctx, g.admin, enrollment.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, grades, 1)

	// another teacher in the school does not, matching direct grade access
	other, _ := g.f.CreatePersonWithAccount(t, "teach2", person.RoleTeacher, g.school.ID)
	otherActor := scope.Actor{PersonID: other.ID, Role: person.RoleTeacher, HomeSchoolID: g.school.ID}
	grades, err = g.svc.QueryGrades(ctx, otherActor, enrollment.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestNewGrade_scoreBounds(t *testing.T) {
	validate := validator.New()

	for _, score := range []float64{0, 11.5, 20} {
		ng := enrollment.NewGrade{EnrollmentID: "e1", TeachingAssignmentID: "ta1", Score: score}
		assert.NoError(t, ng.Validate(validate))
	}
	for _, score := range []float64{-1, 20.5, 21} {
		ng := enrollment.NewGrade{EnrollmentID: "e1", TeachingAssignmentID: "ta1", Score: score}
		assert.Error(t, ng.Validate(validate))
	}
}

func TestService_RecordAttendance(t *testing.T) {
	g := newGraph(t, 10)
	ctx := context.Background()

	student, studentAcct := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	e := g.f.CreateEnrollment(t, student.ID, g.group.ID)

	monday := "2026-01-05"
	tuesday := "2026-01-06"

	att, err := g.svc.RecordAttendance(ctx, g.teacherActor(), enrollment.NewAttendance{
		EnrollmentID: e.ID, ScheduleSlotID: g.slot.ID, Date: monday, Status: enrollment.AttendancePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, g.teacher.ID, att.RecorderPersonID)

	// one mark per (enrollment, slot, date)
	_, err = g.svc.RecordAttendance(ctx, g.teacherActor(), enrollment.NewAttendance{
		EnrollmentID: e.ID, ScheduleSlotID: g.slot.ID, Date: monday, Status: enrollment.AttendanceLate,
	})
	assert.Equal(t, core.KindDuplicateKey, core.KindOf(err))

	// the date must fall on the slot's weekday
	_, err = g.svc.RecordAttendance(ctx, g.teacherActor(), enrollment.NewAttendance{
		EnrollmentID: e.ID, ScheduleSlotID: g.slot.ID, Date: tuesday, Status: enrollment.AttendancePresent,
	})
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))

	// students do not take the register
	studentActor := scope.Actor{PersonID: studentAcct.PersonID, Role: person.RoleStudent, HomeSchoolID: g.school.ID}
	_, err = g.svc.RecordAttendance(ctx, studentActor, enrollment.NewAttendance{
		EnrollmentID: e.ID, ScheduleSlotID: g.slot.ID, Date: monday, Status: enrollment.AttendancePresent,
	})
	assert.Equal(t, core.KindRoleMismatch, core.KindOf(err))

	// the slot must belong to the enrollment's group
	campus2 := g.f.CreateCampus(t, g.school.ID, "Annex")
	room2 := g.f.CreateClassroom(t, campus2.ID, "B-1", 10)
	shift2 := g.f.CreateShift(t, "Afternoon")
	group2 := g.f.CreateGroup(t, campus2.ID, g.year.ID, room2.ID, shift2.ID, "1-B")
	slot2 := g.f.CreateSlot(t, group2.ID, g.ta.ID, "Monday", "08:00", "10:00")
	_, err = g.svc.RecordAttendance(ctx, g.teacherActor(), enrollment.NewAttendance{
		EnrollmentID: e.ID, ScheduleSlotID: slot2.ID, Date: monday, Status: enrollment.AttendancePresent,
	})
	assert.Equal(t, core.KindOwnershipMismatch, core.KindOf(err))
}

func TestService_UpdateAttendance(t *testing.T) {
	g := newGraph(t, 10)
	ctx := context.Background()

	student, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	e := g.f.CreateEnrollment(t, student.ID, g.group.ID)

	att, err := g.svc.RecordAttendance(ctx, g.teacherActor(), enrollment.NewAttendance{
		EnrollmentID: e.ID, ScheduleSlotID: g.slot.ID, Date: "2026-01-05", Status: enrollment.AttendancePresent,
	})
	require.NoError(t, err)

	// the recording teacher corrects their own mark
	upd, err := g.svc.UpdateAttendance(ctx, g.teacherActor(), att.ID, enrollment.UpdateAttendance{Status: enrollment.AttendanceLate})
	require.NoError(t, err)
	assert.Equal(t, enrollment.AttendanceLate, upd.Status)

	// another teacher in the school cannot
	other, _ := g.f.CreatePersonWithAccount(t, "teach2", person.RoleTeacher, g.school.ID)
	otherActor := scope.Actor{PersonID: other.ID, Role: person.RoleTeacher, HomeSchoolID: g.school.ID}
	_, err = g.svc.UpdateAttendance(ctx, otherActor, att.ID, enrollment.UpdateAttendance{Status: enrollment.AttendanceAbsent})
	assert.Equal(t, core.KindDenied, core.KindOf(err))

	// admins always can
	upd, err = g.svc.UpdateAttendance(ctx, g.admin, att.ID, enrollment.UpdateAttendance{Status: enrollment.AttendanceExcused})
	require.NoError(t, err)
	assert.Equal(t, enrollment.AttendanceExcused, upd.Status)
}

func TestService_QueryEnrollments_studentScoping(t *testing.T) {
	g := newGraph(t, 10)
	ctx := context.Background()

	stud1, _ := g.f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, g.school.ID)
	stud2, _ := g.f.CreatePersonWithAccount(t, "stud2", person.RoleStudent, g.school.ID)
	g.f.CreateEnrollment(t, stud1.ID, g.group.ID)
	g.f.CreateEnrollment(t, stud2.ID, g.group.ID)

	// a student sees only their own enrollments, whatever the filter says
	actor := scope.Actor{PersonID: stud1.ID, Role: person.RoleStudent, HomeSchoolID: g.school.ID}
	enrollments, err := g.svc.QueryEnrollments(ctx, actor, enrollment.QueryFilter{StudentPersonID: stud2.ID})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, stud1.ID, enrollments[0].StudentPersonID)

	// the admin sees the group roster
	enrollments, err = g.svc.QueryEnrollments(ctx, g.admin, enrollment.QueryFilter{GroupID: g.group.ID})
	require.NoError(t, err)
	assert.Len(t, enrollments, 2)
}
