package academic

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
	"github.com/colegia/backend/core/scope"
)

var (
	ErrLevelNotFound      = core.NewError(core.KindNotFound, "education level not found")
	ErrYearNotFound       = core.NewError(core.KindNotFound, "academic year not found")
	ErrShiftNotFound      = core.NewError(core.KindNotFound, "shift not found")
	ErrCourseNotFound     = core.NewError(core.KindNotFound, "course not found")
	ErrCourseYearNotFound = core.NewError(core.KindNotFound, "course-year assignment not found")
	ErrAssignmentNotFound = core.NewError(core.KindNotFound, "teaching assignment not found")
	ErrGroupNotFound      = core.NewError(core.KindNotFound, "class group not found")
	ErrSlotNotFound       = core.NewError(core.KindNotFound, "schedule slot not found")

	errYearExists       = core.NewError(core.KindDuplicateKey, "an academic year with this number already exists for the level")
	errCourseYearExists = core.NewError(core.KindDuplicateKey, "this course is already assigned to this academic year")
	errAssignmentExists = core.NewError(core.KindDuplicateKey, "this teacher is already assigned to this course")
	errGroupExists      = core.NewError(core.KindDuplicateKey, "a class group with this campus, year, classroom and shift already exists")
	errSlotExists       = core.NewError(core.KindDuplicateKey, "a schedule slot with this group, weekday and time range already exists")
	errSlotOverlap      = core.NewError(core.KindInvalidRange, "the time range overlaps another slot of this group on the same weekday")
	errSlotTimeRange    = core.NewError(core.KindInvalidRange, "start time must be before end time")
	errNotATeacher      = core.NewError(core.KindRoleMismatch, "the person does not hold the teacher role")
	errClassroomCampus  = core.NewError(core.KindOwnershipMismatch, "the classroom does not belong to the group's campus")
	errAssignmentSchool = core.NewError(core.KindOwnershipMismatch, "the teaching assignment's course belongs to another school")
	errTeacherSchool    = core.NewError(core.KindOwnershipMismatch, "the teacher belongs to another school")
)

type (
	Repository interface {
		CreateLevel(ctx context.Context, l EducationLevel) (EducationLevel, error)
		GetLevelByID(ctx context.Context, id string) (EducationLevel, error)
		QueryLevels(ctx context.Context) ([]EducationLevel, error)
		UpdateLevel(ctx context.Context, l EducationLevel) (EducationLevel, error)
		// DeleteLevel fails while academic years still reference the level.
		DeleteLevel(ctx context.Context, id string) error

		CreateYear(ctx context.Context, y AcademicYear) (AcademicYear, error)
		GetYearByID(ctx context.Context, id string) (AcademicYear, error)
		QueryYears(ctx context.Context, filter QueryFilter) ([]AcademicYear, error)
		FindYear(ctx context.Context, levelID string, number int) (AcademicYear, error)
		// DeleteYear fails while class groups still reference the year.
		DeleteYear(ctx context.Context, id string) error

		CreateShift(ctx context.Context, s Shift) (Shift, error)
		GetShiftByID(ctx context.Context, id string) (Shift, error)
		QueryShifts(ctx context.Context) ([]Shift, error)
		// DeleteShift fails while class groups still reference the shift.
		DeleteShift(ctx context.Context, id string) error

		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateCourseYear(ctx context.Context, a CourseYearAssignment) (CourseYearAssignment, error)
		GetCourseYearByID(ctx context.Context, id string) (CourseYearAssignment, error)
		FindCourseYear(ctx context.Context, courseID, yearID string) (CourseYearAssignment, error)
		QueryCourseYears(ctx context.Context, filter QueryFilter) ([]CourseYearAssignment, error)
		DeleteCourseYear(ctx context.Context, id string) error

		CreateAssignment(ctx context.Context, a TeachingAssignment) (TeachingAssignment, error)
		GetAssignmentByID(ctx context.Context, id string) (TeachingAssignment, error)
		FindAssignment(ctx context.Context, teacherPersonID, courseID string) (TeachingAssignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]TeachingAssignment, error)
		// DeleteAssignment fails while grades still reference the assignment.
		DeleteAssignment(ctx context.Context, id string) error

		CreateGroup(ctx context.Context, g ClassGroup) (ClassGroup, error)
		GetGroupByID(ctx context.Context, id string) (ClassGroup, error)
		FindGroup(ctx context.Context, campusID, yearID, classroomID, shiftID string) (ClassGroup, error)
		QueryGroups(ctx context.Context, filter QueryFilter) ([]ClassGroup, error)
		UpdateGroup(ctx context.Context, g ClassGroup) (ClassGroup, error)
		DeleteGroup(ctx context.Context, id string) error

		CreateSlot(ctx context.Context, s ScheduleSlot) (ScheduleSlot, error)
		GetSlotByID(ctx context.Context, id string) (ScheduleSlot, error)
		FindSlot(ctx context.Context, groupID, weekday, start, end string) (ScheduleSlot, error)
		QuerySlots(ctx context.Context, filter QueryFilter) ([]ScheduleSlot, error)
		QueryGroupSlots(ctx context.Context, groupID, weekday string) ([]ScheduleSlot, error)
		UpdateSlot(ctx context.Context, s ScheduleSlot) (ScheduleSlot, error)
		DeleteSlot(ctx context.Context, id string) error
	}

	// Accounts is the slice of the person repository the academic service
	// needs for role checks on relational slots.
	Accounts interface {
		GetAccountByPersonID(ctx context.Context, personID string) (person.Account, error)
	}

	// Sites is the slice of the school repository used for campus/classroom
	// existence and alignment checks.
	Sites interface {
		GetSchoolByID(ctx context.Context, id string) (school.School, error)
		GetCampusByID(ctx context.Context, id string) (school.Campus, error)
		GetClassroomByID(ctx context.Context, id string) (school.Classroom, error)
	}

	Service struct {
		repo     Repository
		sites    Sites
		accounts Accounts
		resolver scope.Resolver
	}
)

func NewService(repo Repository, sites Sites, accounts Accounts, resolver scope.Resolver) *Service {
	return &Service{repo: repo, sites: sites, accounts: accounts, resolver: resolver}
}

// Education levels & academic years (global catalogs; global admins write)

func (svc *Service) CreateLevel(ctx context.Context, actor scope.Actor, nl NewEducationLevel) (EducationLevel, error) {
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return EducationLevel{}, err
	}
	now := time.Now().UTC()
	l := EducationLevel{ID: uuid.New().String(), Name: nl.Name, Description: nl.Description, CreatedAt: now, UpdatedAt: now}
	return svc.repo.CreateLevel(ctx, l)
}

func (svc *Service) QueryLevels(ctx context.Context) ([]EducationLevel, error) {
	return svc.repo.QueryLevels(ctx)
}

func (svc *Service) DeleteLevel(ctx context.Context, actor scope.Actor, id string) error {
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return err
	}
	if _, err := svc.repo.GetLevelByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteLevel(ctx, id)
}

func (svc *Service) CreateYear(ctx context.Context, actor scope.Actor, ny NewAcademicYear) (AcademicYear, error) {
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return AcademicYear{}, err
	}
	if _, err := svc.repo.GetLevelByID(ctx, ny.LevelID); err != nil {
		return AcademicYear{}, ErrLevelNotFound
	}
	if _, err := svc.repo.FindYear(ctx, ny.LevelID, ny.Number); err == nil {
		return AcademicYear{}, errYearExists
	} else if core.KindOf(err) != core.KindNotFound {
		return AcademicYear{}, err
	}
	now := time.Now().UTC()
	y := AcademicYear{ID: uuid.New().String(), LevelID: ny.LevelID, Number: ny.Number, Name: ny.Name, CreatedAt: now, UpdatedAt: now}
	return svc.repo.CreateYear(ctx, y)
}

func (svc *Service) QueryYears(ctx context.Context, filter QueryFilter) ([]AcademicYear, error) {
	return svc.repo.QueryYears(ctx, filter)
}

func (svc *Service) DeleteYear(ctx context.Context, actor scope.Actor, id string) error {
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return err
	}
	if _, err := svc.repo.GetYearByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteYear(ctx, id)
}

// Shifts

func (svc *Service) CreateShift(ctx context.Context, actor scope.Actor, ns NewShift) (Shift, error) {
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return Shift{}, err
	}
	now := time.Now().UTC()
	s := Shift{ID: uuid.New().String(), Name: ns.Name, StartTime: ns.StartTime, EndTime: ns.EndTime, CreatedAt: now, UpdatedAt: now}
	return svc.repo.CreateShift(ctx, s)
}

func (svc *Service) QueryShifts(ctx context.Context) ([]Shift, error) {
	return svc.repo.QueryShifts(ctx)
}

func (svc *Service) DeleteShift(ctx context.Context, actor scope.Actor, id string) error {
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return err
	}
	if _, err := svc.repo.GetShiftByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteShift(ctx, id)
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, actor scope.Actor, nc NewCourse) (Course, error) {
	if _, err := svc.sites.GetSchoolByID(ctx, nc.SchoolID); err != nil {
		return Course{}, core.NewError(core.KindNotFound, "school not found")
	}
	if err := scope.CheckSchool(actor, scope.ActionWrite, nc.SchoolID); err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	c := Course{
		ID:          uuid.New().String(),
		SchoolID:    nc.SchoolID,
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) GetCourse(ctx context.Context, actor scope.Actor, id string) (Course, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityCourse, id); err != nil {
		return Course{}, err
	}
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) QueryCourses(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]Course, error) {
	if err := scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) UpdateCourse(ctx context.Context, actor scope.Actor, id string, uc UpdateCourse) (Course, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCourse, id); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if uc.Code != "" {
		c.Code = uc.Code
	}
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.Description != "" {
		c.Description = uc.Description
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) DeleteCourse(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCourse, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// SetCourseSyllabusURL attaches an uploaded syllabus URL.
func (svc *Service) SetCourseSyllabusURL(ctx context.Context, actor scope.Actor, id, url string) (Course, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCourse, id); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.SyllabusURL = url
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

// Course-year assignments

func (svc *Service) CreateCourseYear(ctx context.Context, actor scope.Actor, na NewCourseYearAssignment) (CourseYearAssignment, error) {
	c, err := svc.repo.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		return CourseYearAssignment{}, ErrCourseNotFound
	}
	if _, err = svc.repo.GetYearByID(ctx, na.YearID); err != nil {
		return CourseYearAssignment{}, ErrYearNotFound
	}
	if err = scope.CheckSchool(actor, scope.ActionWrite, c.SchoolID); err != nil {
		return CourseYearAssignment{}, err
	}
	if _, err = svc.repo.FindCourseYear(ctx, na.CourseID, na.YearID); err == nil {
		return CourseYearAssignment{}, errCourseYearExists
	} else if core.KindOf(err) != core.KindNotFound {
		return CourseYearAssignment{}, err
	}
	a := CourseYearAssignment{ID: uuid.New().String(), CourseID: na.CourseID, YearID: na.YearID, CreatedAt: time.Now().UTC()}
	return svc.repo.CreateCourseYear(ctx, a)
}

func (svc *Service) QueryCourseYears(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]CourseYearAssignment, error) {
	if err := scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryCourseYears(ctx, filter)
}

func (svc *Service) DeleteCourseYear(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCourseYear, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourseYear(ctx, id)
}

// Teaching assignments

func (svc *Service) CreateAssignment(ctx context.Context, actor scope.Actor, na NewTeachingAssignment) (TeachingAssignment, error) {
	c, err := svc.repo.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		return TeachingAssignment{}, ErrCourseNotFound
	}
	if err = scope.CheckSchool(actor, scope.ActionWrite, c.SchoolID); err != nil {
		return TeachingAssignment{}, err
	}
	acct, err := svc.accounts.GetAccountByPersonID(ctx, na.TeacherPersonID)
	if err != nil {
		return TeachingAssignment{}, core.NewError(core.KindNotFound, "teacher person not found")
	}
	if !acct.IsTeacher() {
		return TeachingAssignment{}, errNotATeacher
	}
	if acct.HomeSchoolID != c.SchoolID {
		return TeachingAssignment{}, errTeacherSchool
	}
	if _, err = svc.repo.FindAssignment(ctx, na.TeacherPersonID, na.CourseID); err == nil {
		return TeachingAssignment{}, errAssignmentExists
	} else if core.KindOf(err) != core.KindNotFound {
		return TeachingAssignment{}, err
	}
	a := TeachingAssignment{
		ID:              uuid.New().String(),
		TeacherPersonID: na.TeacherPersonID,
		CourseID:        na.CourseID,
		CreatedAt:       time.Now().UTC(),
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetAssignment(ctx context.Context, actor scope.Actor, id string) (TeachingAssignment, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityTeachingAssignment, id); err != nil {
		return TeachingAssignment{}, err
	}
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) QueryAssignments(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]TeachingAssignment, error) {
	filter.Clean()
	switch actor.Role {
	case person.RoleGlobalAdmin:
	case person.RoleSchoolAdmin:
		filter.SchoolID = actor.HomeSchoolID
	case person.RoleTeacher:
		filter.TeacherPersonID = actor.PersonID
	default:
		return nil, core.NewError(core.KindDenied, "insufficient permissions")
	}
	return svc.repo.QueryAssignments(ctx, filter)
}

func (svc *Service) DeleteAssignment(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityTeachingAssignment, id); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, id)
}

// Class groups

func (svc *Service) CreateGroup(ctx context.Context, actor scope.Actor, ng NewClassGroup) (ClassGroup, error) {
	campus, err := svc.sites.GetCampusByID(ctx, ng.CampusID)
	if err != nil {
		return ClassGroup{}, core.NewError(core.KindNotFound, "campus not found")
	}
	if _, err = svc.repo.GetYearByID(ctx, ng.YearID); err != nil {
		return ClassGroup{}, ErrYearNotFound
	}
	room, err := svc.sites.GetClassroomByID(ctx, ng.ClassroomID)
	if err != nil {
		return ClassGroup{}, core.NewError(core.KindNotFound, "classroom not found")
	}
	if _, err = svc.repo.GetShiftByID(ctx, ng.ShiftID); err != nil {
		return ClassGroup{}, ErrShiftNotFound
	}
	if err = scope.CheckSchool(actor, scope.ActionWrite, campus.SchoolID); err != nil {
		return ClassGroup{}, err
	}
	if room.CampusID != campus.ID {
		return ClassGroup{}, errClassroomCampus
	}
	if _, err = svc.repo.FindGroup(ctx, ng.CampusID, ng.YearID, ng.ClassroomID, ng.ShiftID); err == nil {
		return ClassGroup{}, errGroupExists
	} else if core.KindOf(err) != core.KindNotFound {
		return ClassGroup{}, err
	}
	now := time.Now().UTC()
	g := ClassGroup{
		ID:          uuid.New().String(),
		CampusID:    ng.CampusID,
		YearID:      ng.YearID,
		ClassroomID: ng.ClassroomID,
		ShiftID:     ng.ShiftID,
		Name:        ng.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *Service) GetGroup(ctx context.Context, actor scope.Actor, id string) (ClassGroup, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityClassGroup, id); err != nil {
		return ClassGroup{}, err
	}
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *Service) QueryGroups(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]ClassGroup, error) {
	if err := scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryGroups(ctx, filter)
}

func (svc *Service) UpdateGroup(ctx context.Context, actor scope.Actor, id string, ug UpdateClassGroup) (ClassGroup, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityClassGroup, id); err != nil {
		return ClassGroup{}, err
	}
	g, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return ClassGroup{}, err
	}

	keyChanged := false
	if ug.ClassroomID != "" && ug.ClassroomID != g.ClassroomID {
		room, err := svc.sites.GetClassroomByID(ctx, ug.ClassroomID)
		if err != nil {
			return ClassGroup{}, core.NewError(core.KindNotFound, "classroom not found")
		}
		if room.CampusID != g.CampusID {
			return ClassGroup{}, errClassroomCampus
		}
		if g.CurrentSeatCount > room.Capacity {
			return ClassGroup{}, core.NewError(core.KindCapacityExceeded, "the group's enrollment exceeds the new classroom's capacity")
		}
		g.ClassroomID = ug.ClassroomID
		keyChanged = true
	}
	if ug.ShiftID != "" && ug.ShiftID != g.ShiftID {
		if _, err = svc.repo.GetShiftByID(ctx, ug.ShiftID); err != nil {
			return ClassGroup{}, ErrShiftNotFound
		}
		g.ShiftID = ug.ShiftID
		keyChanged = true
	}
	if ug.Name != "" {
		g.Name = ug.Name
	}

	if keyChanged {
		if dup, err := svc.repo.FindGroup(ctx, g.CampusID, g.YearID, g.ClassroomID, g.ShiftID); err == nil && dup.ID != g.ID {
			return ClassGroup{}, errGroupExists
		} else if err != nil && core.KindOf(err) != core.KindNotFound {
			return ClassGroup{}, err
		}
	}
	g.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, g)
}

func (svc *Service) DeleteGroup(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityClassGroup, id); err != nil {
		return err
	}
	return svc.repo.DeleteGroup(ctx, id)
}

// Schedule slots

func (svc *Service) CreateSlot(ctx context.Context, actor scope.Actor, ns NewScheduleSlot) (ScheduleSlot, error) {
	if _, err := svc.repo.GetGroupByID(ctx, ns.GroupID); err != nil {
		return ScheduleSlot{}, ErrGroupNotFound
	}
	ta, err := svc.repo.GetAssignmentByID(ctx, ns.TeachingAssignmentID)
	if err != nil {
		return ScheduleSlot{}, ErrAssignmentNotFound
	}

	groupSchool, err := svc.resolver.ResolveSchool(ctx, scope.EntityClassGroup, ns.GroupID)
	if err != nil {
		return ScheduleSlot{}, err
	}
	if err = scope.CheckSchool(actor, scope.ActionWrite, groupSchool); err != nil {
		return ScheduleSlot{}, err
	}
	course, err := svc.repo.GetCourseByID(ctx, ta.CourseID)
	if err != nil {
		return ScheduleSlot{}, err
	}
	if course.SchoolID != groupSchool {
		return ScheduleSlot{}, errAssignmentSchool
	}

	if ns.StartTime >= ns.EndTime {
		return ScheduleSlot{}, errSlotTimeRange
	}
	if _, err = svc.repo.FindSlot(ctx, ns.GroupID, ns.Weekday, ns.StartTime, ns.EndTime); err == nil {
		return ScheduleSlot{}, errSlotExists
	} else if core.KindOf(err) != core.KindNotFound {
		return ScheduleSlot{}, err
	}
	if err = svc.checkSlotOverlap(ctx, ns.GroupID, ns.Weekday, ns.StartTime, ns.EndTime, ""); err != nil {
		return ScheduleSlot{}, err
	}

	now := time.Now().UTC()
	s := ScheduleSlot{
		ID:                   uuid.New().String(),
		GroupID:              ns.GroupID,
		TeachingAssignmentID: ns.TeachingAssignmentID,
		Weekday:              ns.Weekday,
		StartTime:            ns.StartTime,
		EndTime:              ns.EndTime,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return svc.repo.CreateSlot(ctx, s)
}

func (svc *Service) GetSlot(ctx context.Context, actor scope.Actor, id string) (ScheduleSlot, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityScheduleSlot, id); err != nil {
		return ScheduleSlot{}, err
	}
	return svc.repo.GetSlotByID(ctx, id)
}

func (svc *Service) QuerySlots(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]ScheduleSlot, error) {
	filter.Clean()
	switch actor.Role {
	case person.RoleGlobalAdmin:
	case person.RoleSchoolAdmin:
		filter.SchoolID = actor.HomeSchoolID
	case person.RoleTeacher:
		filter.TeacherPersonID = actor.PersonID
	default:
		return nil, core.NewError(core.KindDenied, "insufficient permissions")
	}
	return svc.repo.QuerySlots(ctx, filter)
}

func (svc *Service) UpdateSlot(ctx context.Context, actor scope.Actor, id string, us UpdateScheduleSlot) (ScheduleSlot, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityScheduleSlot, id); err != nil {
		return ScheduleSlot{}, err
	}
	s, err := svc.repo.GetSlotByID(ctx, id)
	if err != nil {
		return ScheduleSlot{}, err
	}

	keyChanged := false
	if us.Weekday != "" && us.Weekday != s.Weekday {
		s.Weekday = us.Weekday
		keyChanged = true
	}
	if us.StartTime != "" && us.StartTime != s.StartTime {
		s.StartTime = us.StartTime
		keyChanged = true
	}
	if us.EndTime != "" && us.EndTime != s.EndTime {
		s.EndTime = us.EndTime
		keyChanged = true
	}
	if s.StartTime >= s.EndTime {
		return ScheduleSlot{}, errSlotTimeRange
	}
	if keyChanged {
		if dup, err := svc.repo.FindSlot(ctx, s.GroupID, s.Weekday, s.StartTime, s.EndTime); err == nil && dup.ID != s.ID {
			return ScheduleSlot{}, errSlotExists
		} else if err != nil && core.KindOf(err) != core.KindNotFound {
			return ScheduleSlot{}, err
		}
		if err = svc.checkSlotOverlap(ctx, s.GroupID, s.Weekday, s.StartTime, s.EndTime, s.ID); err != nil {
			return ScheduleSlot{}, err
		}
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSlot(ctx, s)
}

func (svc *Service) DeleteSlot(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityScheduleSlot, id); err != nil {
		return err
	}
	return svc.repo.DeleteSlot(ctx, id)
}

// checkSlotOverlap rejects half-open interval intersections with the group's
// other slots on the same weekday.
func (svc *Service) checkSlotOverlap(ctx context.Context, groupID, weekday, start, end, excludeID string) error {
	slots, err := svc.repo.QueryGroupSlots(ctx, groupID, weekday)
	if err != nil {
		return err
	}
	for _, other := range slots {
		if other.ID == excludeID {
			continue
		}
		if other.Overlaps(weekday, start, end) {
			return errSlotOverlap
		}
	}
	return nil
}

// scopeListFilter pins list queries to the actor's home school.
func scopeListFilter(actor scope.Actor, filter *QueryFilter) error {
	filter.Clean()
	switch actor.Role {
	case person.RoleGlobalAdmin:
		return nil
	case person.RoleSchoolAdmin, person.RoleTeacher:
		filter.SchoolID = actor.HomeSchoolID
		return nil
	}
	return core.NewError(core.KindDenied, "insufficient permissions")
}
