package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/colegia/backend/core/enrollment"
)

type enrollmentRow struct {
	ID              string    `db:"id"`
	StudentPersonID string    `db:"student_person_id"`
	GroupID         string    `db:"group_id"`
	Status          string    `db:"status"`
	EnrolledAt      time.Time `db:"enrolled_at"`
	WithdrawnAt     null.Time `db:"withdrawn_at"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r enrollmentRow) toDomain() enrollment.Enrollment {
	e := enrollment.Enrollment{
		ID:              r.ID,
		StudentPersonID: r.StudentPersonID,
		GroupID:         r.GroupID,
		Status:          r.Status,
		EnrolledAt:      r.EnrolledAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.WithdrawnAt.Valid {
		t := r.WithdrawnAt.Time
		e.WithdrawnAt = &t
	}
	return e
}

type gradeRow struct {
	ID                   string      `db:"id"`
	EnrollmentID         string      `db:"enrollment_id"`
	TeachingAssignmentID string      `db:"teaching_assignment_id"`
	Score                float64     `db:"score"`
	Period               null.String `db:"period"`
	Comment              null.String `db:"comment"`
	RecordedAt           time.Time   `db:"recorded_at"`
}

func (r gradeRow) toDomain() enrollment.Grade {
	return enrollment.Grade{
		ID:                   r.ID,
		EnrollmentID:         r.EnrollmentID,
		TeachingAssignmentID: r.TeachingAssignmentID,
		Score:                r.Score,
		Period:               r.Period.String,
		Comment:              r.Comment.String,
		RecordedAt:           r.RecordedAt,
	}
}

type attendanceRow struct {
	ID               string    `db:"id"`
	EnrollmentID     string    `db:"enrollment_id"`
	ScheduleSlotID   string    `db:"schedule_slot_id"`
	Date             time.Time `db:"date"`
	Status           string    `db:"status"`
	RecorderPersonID string    `db:"recorder_person_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r attendanceRow) toDomain() enrollment.Attendance {
	return enrollment.Attendance{
		ID:               r.ID,
		EnrollmentID:     r.EnrollmentID,
		ScheduleSlotID:   r.ScheduleSlotID,
		Date:             r.Date,
		Status:           r.Status,
		RecorderPersonID: r.RecorderPersonID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type enrollmentRepository struct {
	db  *sqlx.DB // nil when transaction-scoped
	ext sqlx.ExtContext
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db, ext: db}
}

// Atomic runs fn against a transaction-scoped copy of the repository. Nested
// calls join the ongoing transaction.
func (repo *enrollmentRepository) Atomic(ctx context.Context, fn func(enrollment.Repository) error) error {
	if repo.db == nil {
		return fn(repo)
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(&enrollmentRepository{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// AdjustSeatCount moves the group's seat counter. The positive path is a
// single conditional UPDATE against the classroom capacity, so two concurrent
// enrollments cannot both take the last seat.
func (repo *enrollmentRepository) AdjustSeatCount(ctx context.Context, groupID string, delta int) error {
	const query = `
		UPDATE class_group g
		SET current_seat_count = GREATEST(g.current_seat_count + $2, 0)
		FROM classroom c
		WHERE g.id = $1
		  AND c.id = g.classroom_id
		  AND ($2 <= 0 OR g.current_seat_count + $2 <= c.capacity)`
	res, err := repo.ext.ExecContext(ctx, query, groupID, delta)
	if err != nil {
		return errors.Wrap(err, "adjusting seat count")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err = sqlx.GetContext(ctx, repo.ext, &exists, `SELECT EXISTS (SELECT 1 FROM class_group WHERE id = $1)`, groupID); err != nil {
			return errors.Wrap(err, "checking class group")
		}
		if !exists {
			return enrollment.ErrNotFound
		}
		return enrollment.ErrGroupFull
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	const query = `
		INSERT INTO enrollment (id, student_person_id, group_id, status, enrolled_at, withdrawn_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.ext.ExecContext(ctx, query,
		e.ID, e.StudentPersonID, e.GroupID, e.Status, e.EnrolledAt,
		null.TimeFromPtr(e.WithdrawnAt), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// lost a race against a concurrent enrollment of the same student
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM enrollment WHERE id = $1`, id); err != nil {
		return enrollment.Enrollment{}, trapNoRows(err, enrollment.ErrNotFound, "getting enrollment")
	}
	return row.toDomain(), nil
}

func (repo *enrollmentRepository) FindActiveEnrollment(ctx context.Context, studentPersonID, groupID string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	const query = `SELECT * FROM enrollment WHERE student_person_id = $1 AND group_id = $2 AND status = 'active'`
	if err := sqlx.GetContext(ctx, repo.ext, &row, query, studentPersonID, groupID); err != nil {
		return enrollment.Enrollment{}, trapNoRows(err, enrollment.ErrNotFound, "finding active enrollment")
	}
	return row.toDomain(), nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	query := `SELECT e.* FROM enrollment e`
	where, args, join := enrollmentFilter(filter, "e")
	query += join + whereClause(where) + ` ORDER BY e.enrolled_at DESC`

	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.toDomain())
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	const query = `UPDATE enrollment SET group_id = $2, status = $3, withdrawn_at = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query, e.ID, e.GroupID, e.Status, null.TimeFromPtr(e.WithdrawnAt), e.UpdatedAt)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM enrollment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}

// Grades

func (repo *enrollmentRepository) CreateGrade(ctx context.Context, g enrollment.Grade) (enrollment.Grade, error) {
	const query = `
		INSERT INTO grade (id, enrollment_id, teaching_assignment_id, score, period, comment, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.ext.ExecContext(ctx, query,
		g.ID, g.EnrollmentID, g.TeachingAssignmentID, g.Score,
		null.NewString(g.Period, g.Period != ""),
		null.NewString(g.Comment, g.Comment != ""),
		g.RecordedAt)
	if err != nil {
		return enrollment.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *enrollmentRepository) GetGradeByID(ctx context.Context, id string) (enrollment.Grade, error) {
	var row gradeRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM grade WHERE id = $1`, id); err != nil {
		return enrollment.Grade{}, trapNoRows(err, enrollment.ErrGradeNotFound, "getting grade")
	}
	return row.toDomain(), nil
}

func (repo *enrollmentRepository) QueryGrades(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Grade, error) {
	query := `SELECT g.* FROM grade g JOIN enrollment e ON e.id = g.enrollment_id`
	where, args, join := enrollmentFilter(filter, "e")
	if filter.TeacherPersonID != "" {
		join += ` JOIN teaching_assignment ta ON ta.id = g.teaching_assignment_id`
		args = append(args, filter.TeacherPersonID)
		where = append(where, `ta.teacher_person_id = `+dollar(len(args)))
	}
	if filter.EnrollmentID != "" {
		args = append(args, filter.EnrollmentID)
		where = append(where, `g.enrollment_id = `+dollar(len(args)))
	}
	query += join + whereClause(where) + ` ORDER BY g.recorded_at DESC`

	var rows []gradeRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]enrollment.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, r.toDomain())
	}
	return grades, nil
}

func (repo *enrollmentRepository) DeleteGrade(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM grade WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return enrollment.ErrGradeNotFound
	}
	return nil
}

// Attendances

func (repo *enrollmentRepository) CreateAttendance(ctx context.Context, a enrollment.Attendance) (enrollment.Attendance, error) {
	const query = `
		INSERT INTO attendance (id, enrollment_id, schedule_slot_id, date, status, recorder_person_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.ext.ExecContext(ctx, query,
		a.ID, a.EnrollmentID, a.ScheduleSlotID, a.Date, a.Status, a.RecorderPersonID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return enrollment.Attendance{}, enrollment.ErrAttendanceExists
		}
		return enrollment.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return a, nil
}

func (repo *enrollmentRepository) GetAttendanceByID(ctx context.Context, id string) (enrollment.Attendance, error) {
	var row attendanceRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM attendance WHERE id = $1`, id); err != nil {
		return enrollment.Attendance{}, trapNoRows(err, enrollment.ErrAttendanceNotFound, "getting attendance")
	}
	return row.toDomain(), nil
}

func (repo *enrollmentRepository) FindAttendance(ctx context.Context, enrollmentID, slotID string, date time.Time) (enrollment.Attendance, error) {
	var row attendanceRow
	const query = `SELECT * FROM attendance WHERE enrollment_id = $1 AND schedule_slot_id = $2 AND date = $3`
	if err := sqlx.GetContext(ctx, repo.ext, &row, query, enrollmentID, slotID, date); err != nil {
		return enrollment.Attendance{}, trapNoRows(err, enrollment.ErrAttendanceNotFound, "finding attendance")
	}
	return row.toDomain(), nil
}

func (repo *enrollmentRepository) QueryAttendances(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Attendance, error) {
	query := `SELECT a.* FROM attendance a JOIN enrollment e ON e.id = a.enrollment_id`
	where, args, join := enrollmentFilter(filter, "e")
	if filter.EnrollmentID != "" {
		args = append(args, filter.EnrollmentID)
		where = append(where, `a.enrollment_id = `+dollar(len(args)))
	}
	if filter.ScheduleSlotID != "" {
		args = append(args, filter.ScheduleSlotID)
		where = append(where, `a.schedule_slot_id = `+dollar(len(args)))
	}
	query += join + whereClause(where) + ` ORDER BY a.date DESC`

	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendances")
	}
	attendances := make([]enrollment.Attendance, 0, len(rows))
	for _, r := range rows {
		attendances = append(attendances, r.toDomain())
	}
	return attendances, nil
}

func (repo *enrollmentRepository) UpdateAttendance(ctx context.Context, a enrollment.Attendance) (enrollment.Attendance, error) {
	const query = `UPDATE attendance SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query, a.ID, a.Status, a.UpdatedAt)
	if err != nil {
		return enrollment.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return enrollment.Attendance{}, enrollment.ErrAttendanceNotFound
	}
	return a, nil
}

func (repo *enrollmentRepository) DeleteAttendance(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return enrollment.ErrAttendanceNotFound
	}
	return nil
}

// enrollmentFilter builds the filter conditions shared by enrollment, grade
// and attendance queries; alias is the enrollment table alias.
func enrollmentFilter(filter enrollment.QueryFilter, alias string) (where []string, args []interface{}, join string) {
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		where = append(where, alias+`.group_id = `+dollar(len(args)))
	}
	if filter.StudentPersonID != "" {
		args = append(args, filter.StudentPersonID)
		where = append(where, alias+`.student_person_id = `+dollar(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, alias+`.status = `+dollar(len(args)))
	}
	if filter.SchoolID != "" {
		join = ` JOIN class_group cg ON cg.id = ` + alias + `.group_id JOIN campus cam ON cam.id = cg.campus_id`
		args = append(args, filter.SchoolID)
		where = append(where, `cam.school_id = `+dollar(len(args)))
	}
	return where, args, join
}
