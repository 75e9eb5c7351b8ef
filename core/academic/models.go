package academic

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegia/backend/core"
)

// EducationLevel is a global catalog entry (e.g. Primary, Secondary).
type EducationLevel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// AcademicYear is a grade year within an EducationLevel (e.g. "3rd of Primary").
type AcademicYear struct {
	ID        string    `json:"id"`
	LevelID   string    `json:"level_id"`
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Shift is a daily time band (morning, afternoon); times are "HH:MM".
type Shift struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Course is a subject offered by a School.
type Course struct {
	ID          string    `json:"id"`
	SchoolID    string    `json:"school_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SyllabusURL string    `json:"syllabus_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// CourseYearAssignment binds a Course to an AcademicYear (unique pair).
type CourseYearAssignment struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	YearID    string    `json:"year_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// TeachingAssignment binds a teacher Person to a Course (unique pair).
type TeachingAssignment struct {
	ID              string    `json:"id"`
	TeacherPersonID string    `json:"teacher_person_id"`
	CourseID        string    `json:"course_id"`
	CreatedAt       time.Time `json:"created_at"` // UTC
}

// ClassGroup is a cohort: Campus x AcademicYear x Classroom x Shift (unique
// 4-tuple). CurrentSeatCount tracks Active enrollments and never exceeds the
// classroom capacity.
type ClassGroup struct {
	ID               string    `json:"id"`
	CampusID         string    `json:"campus_id"`
	YearID           string    `json:"year_id"`
	ClassroomID      string    `json:"classroom_id"`
	ShiftID          string    `json:"shift_id"`
	Name             string    `json:"name"`
	CurrentSeatCount int       `json:"current_seat_count"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// ScheduleSlot is a recurring weekly block binding a ClassGroup to a
// TeachingAssignment. Slots of a group never overlap on the same weekday.
type ScheduleSlot struct {
	ID                   string    `json:"id"`
	GroupID              string    `json:"group_id"`
	TeachingAssignmentID string    `json:"teaching_assignment_id"`
	Weekday              string    `json:"weekday"`
	StartTime            string    `json:"start_time"`
	EndTime              string    `json:"end_time"`
	CreatedAt            time.Time `json:"created_at"` // UTC
	UpdatedAt            time.Time `json:"updated_at"` // UTC
}

// Overlaps reports whether the slot intersects [start, end) on the same weekday.
func (s ScheduleSlot) Overlaps(weekday, start, end string) bool {
	return s.Weekday == weekday && s.StartTime < end && start < s.EndTime
}

type NewEducationLevel struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nl *NewEducationLevel) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	return validate.Struct(nl)
}

type NewAcademicYear struct {
	LevelID string `json:"level_id" validate:"required"`
	Number  int    `json:"number" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required"`
}

func (ny *NewAcademicYear) Validate(validate *validator.Validate) error {
	ny.Name = core.CleanString(ny.Name)
	return validate.Struct(ny)
}

type NewShift struct {
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

func (ns *NewShift) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.StartTime >= ns.EndTime {
		return core.NewError(core.KindInvalidRange, "shift start time must be before end time")
	}
	return nil
}

type NewCourse struct {
	SchoolID    string `json:"school_id" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type UpdateCourse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Code = core.CleanString(uc.Code)
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

type NewCourseYearAssignment struct {
	CourseID string `json:"course_id" validate:"required"`
	YearID   string `json:"year_id" validate:"required"`
}

func (na *NewCourseYearAssignment) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type NewTeachingAssignment struct {
	TeacherPersonID string `json:"teacher_person_id" validate:"required"`
	CourseID        string `json:"course_id" validate:"required"`
}

func (na *NewTeachingAssignment) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type NewClassGroup struct {
	CampusID    string `json:"campus_id" validate:"required"`
	YearID      string `json:"year_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	ShiftID     string `json:"shift_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
}

func (ng *NewClassGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

// UpdateClassGroup may move the group to another classroom or shift; the
// natural-key uniqueness is re-checked when any key field changes.
type UpdateClassGroup struct {
	ClassroomID string `json:"classroom_id"`
	ShiftID     string `json:"shift_id"`
	Name        string `json:"name"`
}

func (ug *UpdateClassGroup) Validate(validate *validator.Validate) error {
	ug.Name = core.CleanString(ug.Name)
	return validate.Struct(ug)
}

type NewScheduleSlot struct {
	GroupID              string `json:"group_id" validate:"required"`
	TeachingAssignmentID string `json:"teaching_assignment_id" validate:"required"`
	Weekday              string `json:"weekday" validate:"required,weekday"`
	StartTime            string `json:"start_time" validate:"required,hhmm"`
	EndTime              string `json:"end_time" validate:"required,hhmm"`
}

func (ns *NewScheduleSlot) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

type UpdateScheduleSlot struct {
	Weekday   string `json:"weekday" validate:"omitempty,weekday"`
	StartTime string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   string `json:"end_time" validate:"omitempty,hhmm"`
}

func (us *UpdateScheduleSlot) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

// QueryFilter scopes list queries at the data-access level.
type QueryFilter struct {
	SchoolID        string `query:"school_id"`
	CampusID        string `query:"campus_id"`
	GroupID         string `query:"group_id"`
	CourseID        string `query:"course_id"`
	YearID          string `query:"year_id"`
	LevelID         string `query:"level_id"`
	TeacherPersonID string `query:"teacher_person_id"`
	Search          string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
