package enrollment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/scope"
)

var (
	ErrNotFound           = core.NewError(core.KindNotFound, "enrollment not found")
	ErrGradeNotFound      = core.NewError(core.KindNotFound, "grade not found")
	ErrAttendanceNotFound = core.NewError(core.KindNotFound, "attendance not found")

	// ErrGroupFull is surfaced by repositories when a guarded seat increment
	// finds the group at capacity.
	ErrGroupFull = core.NewError(core.KindCapacityExceeded, "the class group is at capacity")

	// ErrAlreadyEnrolled and ErrAttendanceExists are shared with the
	// repositories so a unique-constraint race reports the same failure as the
	// serialized path.
	ErrAlreadyEnrolled  = core.NewError(core.KindDuplicateKey, "the student already has an active enrollment in this group")
	ErrAttendanceExists = core.NewError(core.KindDuplicateKey, "attendance for this enrollment, slot and date is already recorded")

	errNotAStudent     = core.NewError(core.KindRoleMismatch, "the person does not hold the student role")
	errRecorderRole    = core.NewError(core.KindRoleMismatch, "attendance can only be recorded by teachers or administrators")
	errStudentSchool   = core.NewError(core.KindOwnershipMismatch, "the student belongs to another school")
	errSlotGroup       = core.NewError(core.KindOwnershipMismatch, "the schedule slot belongs to another class group")
	errCourseNotInYear = core.NewError(core.KindOwnershipMismatch, "the course is not assigned to the group's academic year")
	errWeekdayMismatch = core.NewError(core.KindInvalidRange, "the attendance date does not fall on the slot's weekday")
)

type (
	// Repository persists enrollments, grades and attendances. Atomic runs fn
	// against a transaction-scoped repository; seat-count adjustments and the
	// row writes they guard must share one transaction.
	Repository interface {
		Atomic(ctx context.Context, fn func(Repository) error) error

		// AdjustSeatCount moves a group's seat counter by delta. A positive
		// delta is conditional on remaining classroom capacity and fails with
		// ErrGroupFull; the check and the increment are a single atomic step.
		AdjustSeatCount(ctx context.Context, groupID string, delta int) error

		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		FindActiveEnrollment(ctx context.Context, studentPersonID, groupID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error

		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		GetGradeByID(ctx context.Context, id string) (Grade, error)
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
		DeleteGrade(ctx context.Context, id string) error

		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		GetAttendanceByID(ctx context.Context, id string) (Attendance, error)
		FindAttendance(ctx context.Context, enrollmentID, slotID string, date time.Time) (Attendance, error)
		QueryAttendances(ctx context.Context, filter QueryFilter) ([]Attendance, error)
		UpdateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		DeleteAttendance(ctx context.Context, id string) error
	}

	// Academics is the slice of the academic repository needed for the
	// cross-entity checks on grades and attendances.
	Academics interface {
		GetGroupByID(ctx context.Context, id string) (academic.ClassGroup, error)
		GetAssignmentByID(ctx context.Context, id string) (academic.TeachingAssignment, error)
		GetSlotByID(ctx context.Context, id string) (academic.ScheduleSlot, error)
		FindCourseYear(ctx context.Context, courseID, yearID string) (academic.CourseYearAssignment, error)
	}

	// Persons is the slice of the person repository needed for role checks and
	// for addressing notification mail.
	Persons interface {
		GetAccountByPersonID(ctx context.Context, personID string) (person.Account, error)
		GetPersonByID(ctx context.Context, id string) (person.Person, error)
	}

	Service struct {
		repo      Repository
		academics Academics
		persons   Persons
		resolver  scope.Resolver
		mailSvc   core.EmailService
	}
)

func NewService(repo Repository, academics Academics, persons Persons, resolver scope.Resolver, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, academics: academics, persons: persons, resolver: resolver, mailSvc: mailSvc}
}

// Enrollments

// Enroll seats a student in a group. The seat is claimed with a guarded
// increment inside the same transaction as the enrollment row, so two
// concurrent enrollments cannot both take the last seat.
func (svc *Service) Enroll(ctx context.Context, actor scope.Actor, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.academics.GetGroupByID(ctx, ne.GroupID); err != nil {
		return Enrollment{}, academic.ErrGroupNotFound
	}
	groupSchool, err := svc.resolver.ResolveSchool(ctx, scope.EntityClassGroup, ne.GroupID)
	if err != nil {
		return Enrollment{}, err
	}
	if err = scope.CheckSchool(actor, scope.ActionWrite, groupSchool); err != nil {
		return Enrollment{}, err
	}

	acct, err := svc.persons.GetAccountByPersonID(ctx, ne.StudentPersonID)
	if err != nil {
		return Enrollment{}, core.NewError(core.KindNotFound, "student person not found")
	}
	if !acct.IsStudent() {
		return Enrollment{}, errNotAStudent
	}
	if acct.HomeSchoolID != groupSchool {
		return Enrollment{}, errStudentSchool
	}

	if _, err = svc.repo.FindActiveEnrollment(ctx, ne.StudentPersonID, ne.GroupID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if core.KindOf(err) != core.KindNotFound {
		return Enrollment{}, err
	}

	now := time.Now().UTC()
	e := Enrollment{
		ID:              uuid.New().String(),
		StudentPersonID: ne.StudentPersonID,
		GroupID:         ne.GroupID,
		Status:          StatusActive,
		EnrolledAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = svc.repo.Atomic(ctx, func(tx Repository) error {
		if err := tx.AdjustSeatCount(ctx, ne.GroupID, +1); err != nil {
			return err
		}
		created, err := tx.CreateEnrollment(ctx, e)
		if err != nil {
			return err
		}
		e = created
		return nil
	})
	if err != nil {
		return Enrollment{}, err
	}

	svc.sendEnrollmentEmail(ctx, e)
	return e, nil
}

func (svc *Service) GetEnrollment(ctx context.Context, actor scope.Actor, id string) (Enrollment, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityEnrollment, id); err != nil {
		return Enrollment{}, err
	}
	return svc.repo.GetEnrollmentByID(ctx, id)
}

func (svc *Service) QueryEnrollments(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]Enrollment, error) {
	if err := scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollments(ctx, filter)
}

// Withdraw moves an active enrollment to withdrawn and releases its seat.
func (svc *Service) Withdraw(ctx context.Context, actor scope.Actor, id string) (Enrollment, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityEnrollment, id); err != nil {
		return Enrollment{}, err
	}
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if !e.IsActive() {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "the enrollment is not active"})
	}
	now := time.Now().UTC()
	e.Status = StatusWithdrawn
	e.WithdrawnAt = &now
	e.UpdatedAt = now
	err = svc.repo.Atomic(ctx, func(tx Repository) error {
		updated, err := tx.UpdateEnrollment(ctx, e)
		if err != nil {
			return err
		}
		e = updated
		return tx.AdjustSeatCount(ctx, e.GroupID, -1)
	})
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

// Reactivate moves a withdrawn enrollment back to active, reclaiming a seat
// under the same capacity guard as a fresh enrollment.
func (svc *Service) Reactivate(ctx context.Context, actor scope.Actor, id string) (Enrollment, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityEnrollment, id); err != nil {
		return Enrollment{}, err
	}
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if e.IsActive() {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "the enrollment is already active"})
	}
	if _, err = svc.repo.FindActiveEnrollment(ctx, e.StudentPersonID, e.GroupID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if core.KindOf(err) != core.KindNotFound {
		return Enrollment{}, err
	}
	e.Status = StatusActive
	e.WithdrawnAt = nil
	e.UpdatedAt = time.Now().UTC()
	err = svc.repo.Atomic(ctx, func(tx Repository) error {
		if err := tx.AdjustSeatCount(ctx, e.GroupID, +1); err != nil {
			return err
		}
		updated, err := tx.UpdateEnrollment(ctx, e)
		if err != nil {
			return err
		}
		e = updated
		return nil
	})
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

// Transfer moves an active enrollment to another class group. The seat on the
// target group is claimed under the capacity guard before the old one is
// released; a full target leaves the enrollment where it was.
func (svc *Service) Transfer(ctx context.Context, actor scope.Actor, id string, tr TransferEnrollment) (Enrollment, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityEnrollment, id); err != nil {
		return Enrollment{}, err
	}
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if !e.IsActive() {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "the enrollment is not active"})
	}
	if tr.GroupID == e.GroupID {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "group_id", Error: "the enrollment is already in this group"})
	}

	if _, err = svc.academics.GetGroupByID(ctx, tr.GroupID); err != nil {
		return Enrollment{}, academic.ErrGroupNotFound
	}
	targetSchool, err := svc.resolver.ResolveSchool(ctx, scope.EntityClassGroup, tr.GroupID)
	if err != nil {
		return Enrollment{}, err
	}
	if err = scope.CheckSchool(actor, scope.ActionWrite, targetSchool); err != nil {
		return Enrollment{}, err
	}
	acct, err := svc.persons.GetAccountByPersonID(ctx, e.StudentPersonID)
	if err != nil {
		return Enrollment{}, err
	}
	if acct.HomeSchoolID != targetSchool {
		return Enrollment{}, errStudentSchool
	}
	if _, err = svc.repo.FindActiveEnrollment(ctx, e.StudentPersonID, tr.GroupID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if core.KindOf(err) != core.KindNotFound {
		return Enrollment{}, err
	}

	oldGroupID := e.GroupID
	e.GroupID = tr.GroupID
	e.UpdatedAt = time.Now().UTC()
	err = svc.repo.Atomic(ctx, func(tx Repository) error {
		if err := tx.AdjustSeatCount(ctx, tr.GroupID, +1); err != nil {
			return err
		}
		updated, err := tx.UpdateEnrollment(ctx, e)
		if err != nil {
			return err
		}
		e = updated
		return tx.AdjustSeatCount(ctx, oldGroupID, -1)
	})
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

// DeleteEnrollment removes the record entirely; grades and attendances under
// it go with it. An active enrollment releases its seat on the way out.
func (svc *Service) DeleteEnrollment(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityEnrollment, id); err != nil {
		return err
	}
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return err
	}
	return svc.repo.Atomic(ctx, func(tx Repository) error {
		if err := tx.DeleteEnrollment(ctx, id); err != nil {
			return err
		}
		if e.IsActive() {
			return tx.AdjustSeatCount(ctx, e.GroupID, -1)
		}
		return nil
	})
}

// Grades

// RecordGrade appends an evaluation result. The teaching assignment's course
// must be assigned to the academic year of the enrollment's group; a teacher
// may only grade under their own assignment.
func (svc *Service) RecordGrade(ctx context.Context, actor scope.Actor, ng NewGrade) (Grade, error) {
	e, err := svc.repo.GetEnrollmentByID(ctx, ng.EnrollmentID)
	if err != nil {
		return Grade{}, ErrNotFound
	}
	ta, err := svc.academics.GetAssignmentByID(ctx, ng.TeachingAssignmentID)
	if err != nil {
		return Grade{}, academic.ErrAssignmentNotFound
	}
	group, err := svc.academics.GetGroupByID(ctx, e.GroupID)
	if err != nil {
		return Grade{}, err
	}

	groupSchool, err := svc.resolver.ResolveSchool(ctx, scope.EntityClassGroup, group.ID)
	if err != nil {
		return Grade{}, err
	}
	sc := scope.Scope{SchoolID: groupSchool, TeacherPersonID: ta.TeacherPersonID}
	if err = scope.CheckResolved(actor, scope.ActionWrite, sc); err != nil {
		return Grade{}, err
	}

	if _, err = svc.academics.FindCourseYear(ctx, ta.CourseID, group.YearID); err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return Grade{}, errCourseNotInYear
		}
		return Grade{}, err
	}
	if !e.IsActive() {
		return Grade{}, core.NewValidationError(nil, core.FieldError{Field: "enrollment_id", Error: "the enrollment is not active"})
	}

	g := Grade{
		ID:                   uuid.New().String(),
		EnrollmentID:         ng.EnrollmentID,
		TeachingAssignmentID: ng.TeachingAssignmentID,
		Score:                ng.Score,
		Period:               ng.Period,
		Comment:              ng.Comment,
		RecordedAt:           time.Now().UTC(),
	}
	return svc.repo.CreateGrade(ctx, g)
}

func (svc *Service) GetGrade(ctx context.Context, actor scope.Actor, id string) (Grade, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityGrade, id); err != nil {
		return Grade{}, err
	}
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *Service) QueryGrades(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]Grade, error) {
	if err := scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	// teachers only list grades issued under their own assignments, matching
	// the owner-only rule on direct grade access
	if actor.Role == person.RoleTeacher {
		filter.TeacherPersonID = actor.PersonID
	}
	return svc.repo.QueryGrades(ctx, filter)
}

func (svc *Service) DeleteGrade(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityGrade, id); err != nil {
		return err
	}
	return svc.repo.DeleteGrade(ctx, id)
}

// Attendances

// RecordAttendance marks one enrollment on one slot occurrence. The slot must
// belong to the enrollment's group, the date must fall on the slot's weekday,
// and the (enrollment, slot, date) triple must be new.
func (svc *Service) RecordAttendance(ctx context.Context, actor scope.Actor, na NewAttendance) (Attendance, error) {
	e, err := svc.repo.GetEnrollmentByID(ctx, na.EnrollmentID)
	if err != nil {
		return Attendance{}, ErrNotFound
	}
	slot, err := svc.academics.GetSlotByID(ctx, na.ScheduleSlotID)
	if err != nil {
		return Attendance{}, academic.ErrSlotNotFound
	}
	ta, err := svc.academics.GetAssignmentByID(ctx, slot.TeachingAssignmentID)
	if err != nil {
		return Attendance{}, err
	}

	acct, err := svc.persons.GetAccountByPersonID(ctx, actor.PersonID)
	if err != nil {
		return Attendance{}, err
	}
	if !acct.IsTeacher() && !acct.IsSchoolAdmin() && !acct.IsGlobalAdmin() {
		return Attendance{}, errRecorderRole
	}

	groupSchool, err := svc.resolver.ResolveSchool(ctx, scope.EntityClassGroup, e.GroupID)
	if err != nil {
		return Attendance{}, err
	}
	// the slot's assigned teacher may write; admins fall through on the school
	sc := scope.Scope{SchoolID: groupSchool, TeacherPersonID: ta.TeacherPersonID}
	if err = scope.CheckResolved(actor, scope.ActionWrite, sc); err != nil {
		return Attendance{}, err
	}

	if slot.GroupID != e.GroupID {
		return Attendance{}, errSlotGroup
	}
	date, err := na.ParseDate()
	if err != nil {
		return Attendance{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	if date.Weekday().String() != slot.Weekday {
		return Attendance{}, errWeekdayMismatch
	}
	if !e.IsActive() {
		return Attendance{}, core.NewValidationError(nil, core.FieldError{Field: "enrollment_id", Error: "the enrollment is not active"})
	}

	if _, err = svc.repo.FindAttendance(ctx, na.EnrollmentID, na.ScheduleSlotID, date); err == nil {
		return Attendance{}, ErrAttendanceExists
	} else if core.KindOf(err) != core.KindNotFound {
		return Attendance{}, err
	}

	now := time.Now().UTC()
	a := Attendance{
		ID:               uuid.New().String(),
		EnrollmentID:     na.EnrollmentID,
		ScheduleSlotID:   na.ScheduleSlotID,
		Date:             date,
		Status:           na.Status,
		RecorderPersonID: actor.PersonID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateAttendance(ctx, a)
}

func (svc *Service) GetAttendance(ctx context.Context, actor scope.Actor, id string) (Attendance, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityAttendance, id); err != nil {
		return Attendance{}, err
	}
	return svc.repo.GetAttendanceByID(ctx, id)
}

func (svc *Service) QueryAttendances(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]Attendance, error) {
	if err := scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendances(ctx, filter)
}

// UpdateAttendance corrects the status of an existing mark.
func (svc *Service) UpdateAttendance(ctx context.Context, actor scope.Actor, id string, ua UpdateAttendance) (Attendance, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityAttendance, id); err != nil {
		return Attendance{}, err
	}
	a, err := svc.repo.GetAttendanceByID(ctx, id)
	if err != nil {
		return Attendance{}, err
	}
	a.Status = ua.Status
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAttendance(ctx, a)
}

func (svc *Service) DeleteAttendance(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityAttendance, id); err != nil {
		return err
	}
	return svc.repo.DeleteAttendance(ctx, id)
}

func (svc *Service) sendEnrollmentEmail(ctx context.Context, e Enrollment) {
	if svc.mailSvc == nil {
		return
	}
	p, err := svc.persons.GetPersonByID(ctx, e.StudentPersonID)
	if err != nil || p.Email == "" {
		return
	}
	group, err := svc.academics.GetGroupByID(ctx, e.GroupID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: p.FirstName + " " + p.LastName, Address: p.Email}},
		Subject: "Enrollment confirmation",
		BodyText: fmt.Sprintf(
			"Hi %s,\n\nYour enrollment in group %q has been confirmed.\n", p.FirstName, group.Name),
	})
}

// scopeListFilter pins list queries to the actor's reach: admins see their
// school, teachers their own assignments' records, students themselves.
func scopeListFilter(actor scope.Actor, filter *QueryFilter) error {
	filter.Clean()
	switch actor.Role {
	case person.RoleGlobalAdmin:
		return nil
	case person.RoleSchoolAdmin:
		filter.SchoolID = actor.HomeSchoolID
		return nil
	case person.RoleTeacher:
		filter.SchoolID = actor.HomeSchoolID
		return nil
	case person.RoleStudent:
		filter.StudentPersonID = actor.PersonID
		return nil
	}
	return core.NewError(core.KindDenied, "insufficient permissions")
}
