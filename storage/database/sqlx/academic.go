package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
)

type levelRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r levelRow) toDomain() academic.EducationLevel {
	return academic.EducationLevel{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type courseRow struct {
	ID          string      `db:"id"`
	SchoolID    string      `db:"school_id"`
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	SyllabusURL null.String `db:"syllabus_url"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r courseRow) toDomain() academic.Course {
	return academic.Course{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description.String,
		SyllabusURL: r.SyllabusURL.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type academicRepository struct {
	ext sqlx.ExtContext
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(ext sqlx.ExtContext) *academicRepository {
	return &academicRepository{ext: ext}
}

// Education levels

func (repo *academicRepository) CreateLevel(ctx context.Context, l academic.EducationLevel) (academic.EducationLevel, error) {
	const query = `
		INSERT INTO education_level (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.ext.ExecContext(ctx, query,
		l.ID, l.Name, null.NewString(l.Description, l.Description != ""), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.EducationLevel{}, core.NewError(core.KindDuplicateKey, "an education level with this name already exists")
		}
		return academic.EducationLevel{}, errors.Wrap(err, "inserting level")
	}
	return l, nil
}

func (repo *academicRepository) GetLevelByID(ctx context.Context, id string) (academic.EducationLevel, error) {
	var row levelRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM education_level WHERE id = $1`, id); err != nil {
		return academic.EducationLevel{}, trapNoRows(err, academic.ErrLevelNotFound, "getting level")
	}
	return row.toDomain(), nil
}

func (repo *academicRepository) QueryLevels(ctx context.Context) ([]academic.EducationLevel, error) {
	var rows []levelRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, `SELECT * FROM education_level ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying levels")
	}
	levels := make([]academic.EducationLevel, 0, len(rows))
	for _, r := range rows {
		levels = append(levels, r.toDomain())
	}
	return levels, nil
}

func (repo *academicRepository) UpdateLevel(ctx context.Context, l academic.EducationLevel) (academic.EducationLevel, error) {
	const query = `UPDATE education_level SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		l.ID, l.Name, null.NewString(l.Description, l.Description != ""), l.UpdatedAt)
	if err != nil {
		return academic.EducationLevel{}, errors.Wrap(err, "updating level")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.EducationLevel{}, academic.ErrLevelNotFound
	}
	return l, nil
}

func (repo *academicRepository) DeleteLevel(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM education_level WHERE id = $1`, id)
	if err != nil {
		// ON DELETE RESTRICT fires while years reference the level
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the level still has academic years"})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrLevelNotFound
	}
	return nil
}

// Academic years

func (repo *academicRepository) CreateYear(ctx context.Context, y academic.AcademicYear) (academic.AcademicYear, error) {
	const query = `
		INSERT INTO academic_year (id, level_id, number, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.ext.ExecContext(ctx, query, y.ID, y.LevelID, y.Number, y.Name, y.CreatedAt, y.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.AcademicYear{}, core.NewError(core.KindDuplicateKey, "an academic year with this number already exists for the level")
		}
		return academic.AcademicYear{}, errors.Wrap(err, "inserting year")
	}
	return y, nil
}

func (repo *academicRepository) GetYearByID(ctx context.Context, id string) (academic.AcademicYear, error) {
	var y academic.AcademicYear
	const query = `SELECT id, level_id, number, name, created_at, updated_at FROM academic_year WHERE id = $1`
	row := repo.ext.QueryRowxContext(ctx, query, id)
	if err := row.Scan(&y.ID, &y.LevelID, &y.Number, &y.Name, &y.CreatedAt, &y.UpdatedAt); err != nil {
		return academic.AcademicYear{}, trapNoRows(err, academic.ErrYearNotFound, "getting year")
	}
	return y, nil
}

func (repo *academicRepository) QueryYears(ctx context.Context, filter academic.QueryFilter) ([]academic.AcademicYear, error) {
	query := `SELECT id, level_id, number, name, created_at, updated_at FROM academic_year`
	var where []string
	var args []interface{}
	if filter.LevelID != "" {
		args = append(args, filter.LevelID)
		where = append(where, `level_id = `+dollar(len(args)))
	}
	query += whereClause(where) + ` ORDER BY number`

	rows, err := repo.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying years")
	}
	defer func() { _ = rows.Close() }()

	var years []academic.AcademicYear
	for rows.Next() {
		var y academic.AcademicYear
		if err = rows.Scan(&y.ID, &y.LevelID, &y.Number, &y.Name, &y.CreatedAt, &y.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning year")
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func (repo *academicRepository) FindYear(ctx context.Context, levelID string, number int) (academic.AcademicYear, error) {
	var y academic.AcademicYear
	const query = `SELECT id, level_id, number, name, created_at, updated_at FROM academic_year WHERE level_id = $1 AND number = $2`
	row := repo.ext.QueryRowxContext(ctx, query, levelID, number)
	if err := row.Scan(&y.ID, &y.LevelID, &y.Number, &y.Name, &y.CreatedAt, &y.UpdatedAt); err != nil {
		return academic.AcademicYear{}, trapNoRows(err, academic.ErrYearNotFound, "finding year")
	}
	return y, nil
}

func (repo *academicRepository) DeleteYear(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM academic_year WHERE id = $1`, id)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the year still has class groups"})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrYearNotFound
	}
	return nil
}

// Shifts

func (repo *academicRepository) CreateShift(ctx context.Context, s academic.Shift) (academic.Shift, error) {
	const query = `INSERT INTO shift (id, name, start_time, end_time, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := repo.ext.ExecContext(ctx, query, s.ID, s.Name, s.StartTime, s.EndTime, s.CreatedAt, s.UpdatedAt); err != nil {
		return academic.Shift{}, errors.Wrap(err, "inserting shift")
	}
	return s, nil
}

func (repo *academicRepository) GetShiftByID(ctx context.Context, id string) (academic.Shift, error) {
	var s academic.Shift
	row := repo.ext.QueryRowxContext(ctx, `SELECT id, name, start_time, end_time, created_at, updated_at FROM shift WHERE id = $1`, id)
	if err := row.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return academic.Shift{}, trapNoRows(err, academic.ErrShiftNotFound, "getting shift")
	}
	return s, nil
}

func (repo *academicRepository) QueryShifts(ctx context.Context) ([]academic.Shift, error) {
	rows, err := repo.ext.QueryxContext(ctx, `SELECT id, name, start_time, end_time, created_at, updated_at FROM shift ORDER BY start_time`)
	if err != nil {
		return nil, errors.Wrap(err, "querying shifts")
	}
	defer func() { _ = rows.Close() }()

	var shifts []academic.Shift
	for rows.Next() {
		var s academic.Shift
		if err = rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning shift")
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

func (repo *academicRepository) DeleteShift(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM shift WHERE id = $1`, id)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the shift still has class groups"})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrShiftNotFound
	}
	return nil
}

// Courses

func (repo *academicRepository) CreateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	const query = `
		INSERT INTO course (id, school_id, code, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.ext.ExecContext(ctx, query,
		c.ID, c.SchoolID, c.Code, c.Name, null.NewString(c.Description, c.Description != ""), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.Course{}, core.NewError(core.KindDuplicateKey, "a course with this code already exists in the school")
		}
		return academic.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *academicRepository) GetCourseByID(ctx context.Context, id string) (academic.Course, error) {
	var row courseRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return academic.Course{}, trapNoRows(err, academic.ErrCourseNotFound, "getting course")
	}
	return row.toDomain(), nil
}

func (repo *academicRepository) QueryCourses(ctx context.Context, filter academic.QueryFilter) ([]academic.Course, error) {
	query := `SELECT * FROM course`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		where = append(where, `school_id = `+dollar(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := dollar(len(args))
		where = append(where, `(name ILIKE `+n+` OR code ILIKE `+n+`)`)
	}
	query += whereClause(where) + ` ORDER BY name`

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]academic.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toDomain())
	}
	return courses, nil
}

func (repo *academicRepository) UpdateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	const query = `
		UPDATE course SET code = $2, name = $3, description = $4, syllabus_url = $5, updated_at = $6 WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		c.ID, c.Code, c.Name,
		null.NewString(c.Description, c.Description != ""),
		null.NewString(c.SyllabusURL, c.SyllabusURL != ""),
		c.UpdatedAt,
	)
	if err != nil {
		return academic.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Course{}, academic.ErrCourseNotFound
	}
	return c, nil
}

func (repo *academicRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrCourseNotFound
	}
	return nil
}

// Course-year assignments

func (repo *academicRepository) CreateCourseYear(ctx context.Context, a academic.CourseYearAssignment) (academic.CourseYearAssignment, error) {
	const query = `INSERT INTO course_year_assignment (id, course_id, year_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.ext.ExecContext(ctx, query, a.ID, a.CourseID, a.YearID, a.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return academic.CourseYearAssignment{}, core.NewError(core.KindDuplicateKey, "this course is already assigned to this academic year")
		}
		return academic.CourseYearAssignment{}, errors.Wrap(err, "inserting course-year assignment")
	}
	return a, nil
}

func (repo *academicRepository) GetCourseYearByID(ctx context.Context, id string) (academic.CourseYearAssignment, error) {
	var a academic.CourseYearAssignment
	row := repo.ext.QueryRowxContext(ctx, `SELECT id, course_id, year_id, created_at FROM course_year_assignment WHERE id = $1`, id)
	if err := row.Scan(&a.ID, &a.CourseID, &a.YearID, &a.CreatedAt); err != nil {
		return academic.CourseYearAssignment{}, trapNoRows(err, academic.ErrCourseYearNotFound, "getting course-year assignment")
	}
	return a, nil
}

func (repo *academicRepository) FindCourseYear(ctx context.Context, courseID, yearID string) (academic.CourseYearAssignment, error) {
	var a academic.CourseYearAssignment
	const query = `SELECT id, course_id, year_id, created_at FROM course_year_assignment WHERE course_id = $1 AND year_id = $2`
	row := repo.ext.QueryRowxContext(ctx, query, courseID, yearID)
	if err := row.Scan(&a.ID, &a.CourseID, &a.YearID, &a.CreatedAt); err != nil {
		return academic.CourseYearAssignment{}, trapNoRows(err, academic.ErrCourseYearNotFound, "finding course-year assignment")
	}
	return a, nil
}

func (repo *academicRepository) QueryCourseYears(ctx context.Context, filter academic.QueryFilter) ([]academic.CourseYearAssignment, error) {
	query := `SELECT a.id, a.course_id, a.year_id, a.created_at FROM course_year_assignment a`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		query += ` JOIN course c ON c.id = a.course_id`
		args = append(args, filter.SchoolID)
		where = append(where, `c.school_id = `+dollar(len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		where = append(where, `a.course_id = `+dollar(len(args)))
	}
	if filter.YearID != "" {
		args = append(args, filter.YearID)
		where = append(where, `a.year_id = `+dollar(len(args)))
	}
	query += whereClause(where)

	rows, err := repo.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying course-year assignments")
	}
	defer func() { _ = rows.Close() }()

	var assignments []academic.CourseYearAssignment
	for rows.Next() {
		var a academic.CourseYearAssignment
		if err = rows.Scan(&a.ID, &a.CourseID, &a.YearID, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning course-year assignment")
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (repo *academicRepository) DeleteCourseYear(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM course_year_assignment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course-year assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrCourseYearNotFound
	}
	return nil
}

// Teaching assignments

func (repo *academicRepository) CreateAssignment(ctx context.Context, a academic.TeachingAssignment) (academic.TeachingAssignment, error) {
	const query = `INSERT INTO teaching_assignment (id, teacher_person_id, course_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.ext.ExecContext(ctx, query, a.ID, a.TeacherPersonID, a.CourseID, a.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return academic.TeachingAssignment{}, core.NewError(core.KindDuplicateKey, "this teacher is already assigned to this course")
		}
		return academic.TeachingAssignment{}, errors.Wrap(err, "inserting teaching assignment")
	}
	return a, nil
}

func (repo *academicRepository) GetAssignmentByID(ctx context.Context, id string) (academic.TeachingAssignment, error) {
	var a academic.TeachingAssignment
	row := repo.ext.QueryRowxContext(ctx, `SELECT id, teacher_person_id, course_id, created_at FROM teaching_assignment WHERE id = $1`, id)
	if err := row.Scan(&a.ID, &a.TeacherPersonID, &a.CourseID, &a.CreatedAt); err != nil {
		return academic.TeachingAssignment{}, trapNoRows(err, academic.ErrAssignmentNotFound, "getting teaching assignment")
	}
	return a, nil
}

func (repo *academicRepository) FindAssignment(ctx context.Context, teacherPersonID, courseID string) (academic.TeachingAssignment, error) {
	var a academic.TeachingAssignment
	const query = `SELECT id, teacher_person_id, course_id, created_at FROM teaching_assignment WHERE teacher_person_id = $1 AND course_id = $2`
	row := repo.ext.QueryRowxContext(ctx, query, teacherPersonID, courseID)
	if err := row.Scan(&a.ID, &a.TeacherPersonID, &a.CourseID, &a.CreatedAt); err != nil {
		return academic.TeachingAssignment{}, trapNoRows(err, academic.ErrAssignmentNotFound, "finding teaching assignment")
	}
	return a, nil
}

func (repo *academicRepository) QueryAssignments(ctx context.Context, filter academic.QueryFilter) ([]academic.TeachingAssignment, error) {
	query := `SELECT a.id, a.teacher_person_id, a.course_id, a.created_at FROM teaching_assignment a`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		query += ` JOIN course c ON c.id = a.course_id`
		args = append(args, filter.SchoolID)
		where = append(where, `c.school_id = `+dollar(len(args)))
	}
	if filter.TeacherPersonID != "" {
		args = append(args, filter.TeacherPersonID)
		where = append(where, `a.teacher_person_id = `+dollar(len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		where = append(where, `a.course_id = `+dollar(len(args)))
	}
	query += whereClause(where)

	rows, err := repo.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying teaching assignments")
	}
	defer func() { _ = rows.Close() }()

	var assignments []academic.TeachingAssignment
	for rows.Next() {
		var a academic.TeachingAssignment
		if err = rows.Scan(&a.ID, &a.TeacherPersonID, &a.CourseID, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning teaching assignment")
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (repo *academicRepository) DeleteAssignment(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM teaching_assignment WHERE id = $1`, id)
	if err != nil {
		// grade.teaching_assignment_id is ON DELETE RESTRICT
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the assignment still has grades"})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrAssignmentNotFound
	}
	return nil
}

// Class groups

func (repo *academicRepository) CreateGroup(ctx context.Context, g academic.ClassGroup) (academic.ClassGroup, error) {
	const query = `
		INSERT INTO class_group (id, campus_id, year_id, classroom_id, shift_id, name, current_seat_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`
	_, err := repo.ext.ExecContext(ctx, query,
		g.ID, g.CampusID, g.YearID, g.ClassroomID, g.ShiftID, g.Name, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.ClassGroup{}, core.NewError(core.KindDuplicateKey, "a class group with this campus, year, classroom and shift already exists")
		}
		return academic.ClassGroup{}, errors.Wrap(err, "inserting class group")
	}
	return g, nil
}

func (repo *academicRepository) GetGroupByID(ctx context.Context, id string) (academic.ClassGroup, error) {
	var g academic.ClassGroup
	const query = `SELECT id, campus_id, year_id, classroom_id, shift_id, name, current_seat_count, created_at, updated_at FROM class_group WHERE id = $1`
	row := repo.ext.QueryRowxContext(ctx, query, id)
	if err := row.Scan(&g.ID, &g.CampusID, &g.YearID, &g.ClassroomID, &g.ShiftID, &g.Name, &g.CurrentSeatCount, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return academic.ClassGroup{}, trapNoRows(err, academic.ErrGroupNotFound, "getting class group")
	}
	return g, nil
}

func (repo *academicRepository) FindGroup(ctx context.Context, campusID, yearID, classroomID, shiftID string) (academic.ClassGroup, error) {
	var g academic.ClassGroup
	const query = `
		SELECT id, campus_id, year_id, classroom_id, shift_id, name, current_seat_count, created_at, updated_at
		FROM class_group WHERE campus_id = $1 AND year_id = $2 AND classroom_id = $3 AND shift_id = $4`
	row := repo.ext.QueryRowxContext(ctx, query, campusID, yearID, classroomID, shiftID)
	if err := row.Scan(&g.ID, &g.CampusID, &g.YearID, &g.ClassroomID, &g.ShiftID, &g.Name, &g.CurrentSeatCount, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return academic.ClassGroup{}, trapNoRows(err, academic.ErrGroupNotFound, "finding class group")
	}
	return g, nil
}

func (repo *academicRepository) QueryGroups(ctx context.Context, filter academic.QueryFilter) ([]academic.ClassGroup, error) {
	query := `SELECT g.id, g.campus_id, g.year_id, g.classroom_id, g.shift_id, g.name, g.current_seat_count, g.created_at, g.updated_at FROM class_group g`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		query += ` JOIN campus ca ON ca.id = g.campus_id`
		args = append(args, filter.SchoolID)
		where = append(where, `ca.school_id = `+dollar(len(args)))
	}
	if filter.CampusID != "" {
		args = append(args, filter.CampusID)
		where = append(where, `g.campus_id = `+dollar(len(args)))
	}
	if filter.YearID != "" {
		args = append(args, filter.YearID)
		where = append(where, `g.year_id = `+dollar(len(args)))
	}
	query += whereClause(where) + ` ORDER BY g.name`

	rows, err := repo.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying class groups")
	}
	defer func() { _ = rows.Close() }()

	var groups []academic.ClassGroup
	for rows.Next() {
		var g academic.ClassGroup
		if err = rows.Scan(&g.ID, &g.CampusID, &g.YearID, &g.ClassroomID, &g.ShiftID, &g.Name, &g.CurrentSeatCount, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning class group")
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (repo *academicRepository) UpdateGroup(ctx context.Context, g academic.ClassGroup) (academic.ClassGroup, error) {
	// the seat counter moves only through AdjustSeatCount
	const query = `UPDATE class_group SET classroom_id = $2, shift_id = $3, name = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query, g.ID, g.ClassroomID, g.ShiftID, g.Name, g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.ClassGroup{}, core.NewError(core.KindDuplicateKey, "a class group with this campus, year, classroom and shift already exists")
		}
		return academic.ClassGroup{}, errors.Wrap(err, "updating class group")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ClassGroup{}, academic.ErrGroupNotFound
	}
	return g, nil
}

func (repo *academicRepository) DeleteGroup(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM class_group WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting class group")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrGroupNotFound
	}
	return nil
}

// Schedule slots

func (repo *academicRepository) CreateSlot(ctx context.Context, s academic.ScheduleSlot) (academic.ScheduleSlot, error) {
	const query = `
		INSERT INTO schedule_slot (id, group_id, teaching_assignment_id, weekday, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.ext.ExecContext(ctx, query,
		s.ID, s.GroupID, s.TeachingAssignmentID, s.Weekday, s.StartTime, s.EndTime, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.ScheduleSlot{}, core.NewError(core.KindDuplicateKey, "a schedule slot with this group, weekday and time range already exists")
		}
		return academic.ScheduleSlot{}, errors.Wrap(err, "inserting schedule slot")
	}
	return s, nil
}

func (repo *academicRepository) GetSlotByID(ctx context.Context, id string) (academic.ScheduleSlot, error) {
	var s academic.ScheduleSlot
	const query = `SELECT id, group_id, teaching_assignment_id, weekday, start_time, end_time, created_at, updated_at FROM schedule_slot WHERE id = $1`
	row := repo.ext.QueryRowxContext(ctx, query, id)
	if err := row.Scan(&s.ID, &s.GroupID, &s.TeachingAssignmentID, &s.Weekday, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return academic.ScheduleSlot{}, trapNoRows(err, academic.ErrSlotNotFound, "getting schedule slot")
	}
	return s, nil
}

func (repo *academicRepository) FindSlot(ctx context.Context, groupID, weekday, start, end string) (academic.ScheduleSlot, error) {
	var s academic.ScheduleSlot
	const query = `
		SELECT id, group_id, teaching_assignment_id, weekday, start_time, end_time, created_at, updated_at
		FROM schedule_slot WHERE group_id = $1 AND weekday = $2 AND start_time = $3 AND end_time = $4`
	row := repo.ext.QueryRowxContext(ctx, query, groupID, weekday, start, end)
	if err := row.Scan(&s.ID, &s.GroupID, &s.TeachingAssignmentID, &s.Weekday, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return academic.ScheduleSlot{}, trapNoRows(err, academic.ErrSlotNotFound, "finding schedule slot")
	}
	return s, nil
}

func (repo *academicRepository) QuerySlots(ctx context.Context, filter academic.QueryFilter) ([]academic.ScheduleSlot, error) {
	query := `SELECT s.id, s.group_id, s.teaching_assignment_id, s.weekday, s.start_time, s.end_time, s.created_at, s.updated_at FROM schedule_slot s`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		query += ` JOIN class_group g ON g.id = s.group_id JOIN campus ca ON ca.id = g.campus_id`
		args = append(args, filter.SchoolID)
		where = append(where, `ca.school_id = `+dollar(len(args)))
	}
	if filter.TeacherPersonID != "" {
		query += ` JOIN teaching_assignment ta ON ta.id = s.teaching_assignment_id`
		args = append(args, filter.TeacherPersonID)
		where = append(where, `ta.teacher_person_id = `+dollar(len(args)))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		where = append(where, `s.group_id = `+dollar(len(args)))
	}
	query += whereClause(where) + ` ORDER BY s.weekday, s.start_time`

	return repo.scanSlots(ctx, query, args...)
}

func (repo *academicRepository) QueryGroupSlots(ctx context.Context, groupID, weekday string) ([]academic.ScheduleSlot, error) {
	const query = `
		SELECT s.id, s.group_id, s.teaching_assignment_id, s.weekday, s.start_time, s.end_time, s.created_at, s.updated_at
		FROM schedule_slot s WHERE s.group_id = $1 AND s.weekday = $2 ORDER BY s.start_time`
	return repo.scanSlots(ctx, query, groupID, weekday)
}

func (repo *academicRepository) scanSlots(ctx context.Context, query string, args ...interface{}) ([]academic.ScheduleSlot, error) {
	rows, err := repo.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying schedule slots")
	}
	defer func() { _ = rows.Close() }()

	var slots []academic.ScheduleSlot
	for rows.Next() {
		var s academic.ScheduleSlot
		if err = rows.Scan(&s.ID, &s.GroupID, &s.TeachingAssignmentID, &s.Weekday, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning schedule slot")
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (repo *academicRepository) UpdateSlot(ctx context.Context, s academic.ScheduleSlot) (academic.ScheduleSlot, error) {
	const query = `UPDATE schedule_slot SET weekday = $2, start_time = $3, end_time = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query, s.ID, s.Weekday, s.StartTime, s.EndTime, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.ScheduleSlot{}, core.NewError(core.KindDuplicateKey, "a schedule slot with this group, weekday and time range already exists")
		}
		return academic.ScheduleSlot{}, errors.Wrap(err, "updating schedule slot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ScheduleSlot{}, academic.ErrSlotNotFound
	}
	return s, nil
}

func (repo *academicRepository) DeleteSlot(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM schedule_slot WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting schedule slot")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.ErrSlotNotFound
	}
	return nil
}
