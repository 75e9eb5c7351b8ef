package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegia/backend/core"
)

const (
	StatusActive    = "active"
	StatusWithdrawn = "withdrawn"
)

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// Enrollment seats a student Person in a ClassGroup. A student holds at most
// one active enrollment per group; the group's seat count follows the number
// of active enrollments.
type Enrollment struct {
	ID              string     `json:"id"`
	StudentPersonID string     `json:"student_person_id"`
	GroupID         string     `json:"group_id"`
	Status          string     `json:"status"`
	EnrolledAt      time.Time  `json:"enrolled_at"`             // UTC
	WithdrawnAt     *time.Time `json:"withdrawn_at,omitempty"`  // UTC
	CreatedAt       time.Time  `json:"created_at"`              // UTC
	UpdatedAt       time.Time  `json:"updated_at"`              // UTC
}

func (e Enrollment) IsActive() bool { return e.Status == StatusActive }

// Grade is one evaluation result on an enrollment, tied to the teaching
// assignment it was issued under. Scores live on a 0-20 scale. Re-grading
// appends a new record; history is kept.
type Grade struct {
	ID                   string    `json:"id"`
	EnrollmentID         string    `json:"enrollment_id"`
	TeachingAssignmentID string    `json:"teaching_assignment_id"`
	Score                float64   `json:"score"`
	Period               string    `json:"period,omitempty"`
	Comment              string    `json:"comment,omitempty"`
	RecordedAt           time.Time `json:"recorded_at"` // UTC
}

// Attendance marks one enrollment on one schedule slot occurrence. The date's
// weekday must match the slot's weekday, and (enrollment, slot, date) is
// unique.
type Attendance struct {
	ID               string    `json:"id"`
	EnrollmentID     string    `json:"enrollment_id"`
	ScheduleSlotID   string    `json:"schedule_slot_id"`
	Date             time.Time `json:"date"` // date-only, UTC midnight
	Status           string    `json:"status"`
	RecorderPersonID string    `json:"recorder_person_id"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

type NewEnrollment struct {
	StudentPersonID string `json:"student_person_id" validate:"required"`
	GroupID         string `json:"group_id" validate:"required"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

// TransferEnrollment moves an active enrollment to another class group.
type TransferEnrollment struct {
	GroupID string `json:"group_id" validate:"required"`
}

func (te *TransferEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(te)
}

type NewGrade struct {
	EnrollmentID         string  `json:"enrollment_id" validate:"required"`
	TeachingAssignmentID string  `json:"teaching_assignment_id" validate:"required"`
	Score                float64 `json:"score" validate:"gte=0,lte=20"`
	Period               string  `json:"period"`
	Comment              string  `json:"comment"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Period = core.CleanString(ng.Period)
	return validate.Struct(ng)
}

type NewAttendance struct {
	EnrollmentID   string `json:"enrollment_id" validate:"required"`
	ScheduleSlotID string `json:"schedule_slot_id" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Status         string `json:"status" validate:"required,oneof=present absent late excused"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

// ParseDate returns the attendance date at UTC midnight.
func (na *NewAttendance) ParseDate() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", na.Date, time.UTC)
}

type UpdateAttendance struct {
	Status string `json:"status" validate:"required,oneof=present absent late excused"`
}

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(ua)
}

// QueryFilter scopes list queries at the data-access level.
type QueryFilter struct {
	SchoolID        string `query:"school_id"`
	GroupID         string `query:"group_id"`
	StudentPersonID string `query:"student_person_id"`
	TeacherPersonID string `query:"teacher_person_id"`
	EnrollmentID    string `query:"enrollment_id"`
	ScheduleSlotID  string `query:"schedule_slot_id"`
	Status          string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
