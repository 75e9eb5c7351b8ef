package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/colegia/backend/core/school"
)

type schoolRow struct {
	ID              string      `db:"id"`
	Name            string      `db:"name"`
	ModularCode     string      `db:"modular_code"`
	TaxID           string      `db:"tax_id"`
	InstitutionType string      `db:"institution_type"`
	AcademicRegime  string      `db:"academic_regime"`
	Address         string      `db:"address"`
	Phone           null.String `db:"phone"`
	Email           null.String `db:"email"`
	LogoURL         null.String `db:"logo_url"`
	LicenseURL      null.String `db:"license_url"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (r schoolRow) toDomain() school.School {
	return school.School{
		ID:              r.ID,
		Name:            r.Name,
		ModularCode:     r.ModularCode,
		TaxID:           r.TaxID,
		InstitutionType: r.InstitutionType,
		AcademicRegime:  r.AcademicRegime,
		Address:         r.Address,
		Phone:           r.Phone.String,
		Email:           r.Email.String,
		LogoURL:         r.LogoURL.String,
		LicenseURL:      r.LicenseURL.String,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type campusRow struct {
	ID        string      `db:"id"`
	SchoolID  string      `db:"school_id"`
	Name      string      `db:"name"`
	Address   string      `db:"address"`
	District  string      `db:"district"`
	City      string      `db:"city"`
	Phone     null.String `db:"phone"`
	PhotoURL  null.String `db:"photo_url"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r campusRow) toDomain() school.Campus {
	return school.Campus{
		ID:        r.ID,
		SchoolID:  r.SchoolID,
		Name:      r.Name,
		Address:   r.Address,
		District:  r.District,
		City:      r.City,
		Phone:     r.Phone.String,
		PhotoURL:  r.PhotoURL.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type classroomRow struct {
	ID        string      `db:"id"`
	CampusID  string      `db:"campus_id"`
	Name      string      `db:"name"`
	Capacity  int         `db:"capacity"`
	Kind      null.String `db:"kind"`
	PhotoURL  null.String `db:"photo_url"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r classroomRow) toDomain() school.Classroom {
	return school.Classroom{
		ID:        r.ID,
		CampusID:  r.CampusID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Kind:      r.Kind.String,
		PhotoURL:  r.PhotoURL.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type schoolRepository struct {
	ext sqlx.ExtContext
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(ext sqlx.ExtContext) *schoolRepository {
	return &schoolRepository{ext: ext}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, s school.School) (school.School, error) {
	const query = `
		INSERT INTO school (id, name, modular_code, tax_id, institution_type, academic_regime, address, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.ext.ExecContext(ctx, query,
		s.ID, s.Name, s.ModularCode, s.TaxID, s.InstitutionType, s.AcademicRegime, s.Address,
		null.NewString(s.Phone, s.Phone != ""),
		null.NewString(s.Email, s.Email != ""),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return school.School{}, errors.Wrap(school.ErrSchoolExists, "inserting school")
		}
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return s, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var row schoolRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM school WHERE id = $1`, id); err != nil {
		return school.School{}, trapNoRows(err, school.ErrSchoolNotFound, "getting school")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) QuerySchools(ctx context.Context, filter school.QueryFilter) ([]school.School, error) {
	query := `SELECT * FROM school`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		where = append(where, `id = `+dollar(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, `name ILIKE `+dollar(len(args)))
	}
	query += whereClause(where) + ` ORDER BY name`

	var rows []schoolRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, r := range rows {
		schools = append(schools, r.toDomain())
	}
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, s school.School) (school.School, error) {
	const query = `
		UPDATE school
		SET name = $2, academic_regime = $3, address = $4, phone = $5, email = $6, logo_url = $7, license_url = $8, updated_at = $9
		WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		s.ID, s.Name, s.AcademicRegime, s.Address,
		null.NewString(s.Phone, s.Phone != ""),
		null.NewString(s.Email, s.Email != ""),
		null.NewString(s.LogoURL, s.LogoURL != ""),
		null.NewString(s.LicenseURL, s.LicenseURL != ""),
		s.UpdatedAt,
	)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.School{}, school.ErrSchoolNotFound
	}
	return s, nil
}

func (repo *schoolRepository) DeleteSchool(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM school WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrSchoolNotFound
	}
	return nil
}

func (repo *schoolRepository) CreateCampus(ctx context.Context, c school.Campus) (school.Campus, error) {
	const query = `
		INSERT INTO campus (id, school_id, name, address, district, city, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.ext.ExecContext(ctx, query,
		c.ID, c.SchoolID, c.Name, c.Address, c.District, c.City,
		null.NewString(c.Phone, c.Phone != ""),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return school.Campus{}, errors.Wrap(err, "inserting campus")
	}
	return c, nil
}

func (repo *schoolRepository) GetCampusByID(ctx context.Context, id string) (school.Campus, error) {
	var row campusRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM campus WHERE id = $1`, id); err != nil {
		return school.Campus{}, trapNoRows(err, school.ErrCampusNotFound, "getting campus")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) QueryCampuses(ctx context.Context, filter school.QueryFilter) ([]school.Campus, error) {
	query := `SELECT * FROM campus`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		where = append(where, `school_id = `+dollar(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, `name ILIKE `+dollar(len(args)))
	}
	query += whereClause(where) + ` ORDER BY name`

	var rows []campusRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying campuses")
	}
	campuses := make([]school.Campus, 0, len(rows))
	for _, r := range rows {
		campuses = append(campuses, r.toDomain())
	}
	return campuses, nil
}

func (repo *schoolRepository) UpdateCampus(ctx context.Context, c school.Campus) (school.Campus, error) {
	const query = `
		UPDATE campus
		SET name = $2, address = $3, district = $4, city = $5, phone = $6, photo_url = $7, updated_at = $8
		WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		c.ID, c.Name, c.Address, c.District, c.City,
		null.NewString(c.Phone, c.Phone != ""),
		null.NewString(c.PhotoURL, c.PhotoURL != ""),
		c.UpdatedAt,
	)
	if err != nil {
		return school.Campus{}, errors.Wrap(err, "updating campus")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Campus{}, school.ErrCampusNotFound
	}
	return c, nil
}

func (repo *schoolRepository) DeleteCampus(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM campus WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting campus")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrCampusNotFound
	}
	return nil
}

func (repo *schoolRepository) CreateClassroom(ctx context.Context, c school.Classroom) (school.Classroom, error) {
	const query = `
		INSERT INTO classroom (id, campus_id, name, capacity, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.ext.ExecContext(ctx, query,
		c.ID, c.CampusID, c.Name, c.Capacity,
		null.NewString(c.Kind, c.Kind != ""),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return school.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return c, nil
}

func (repo *schoolRepository) GetClassroomByID(ctx context.Context, id string) (school.Classroom, error) {
	var row classroomRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM classroom WHERE id = $1`, id); err != nil {
		return school.Classroom{}, trapNoRows(err, school.ErrClassroomNotFound, "getting classroom")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) QueryClassrooms(ctx context.Context, filter school.QueryFilter) ([]school.Classroom, error) {
	query := `SELECT c.* FROM classroom c`
	var where []string
	var args []interface{}
	if filter.SchoolID != "" {
		query += ` JOIN campus ca ON ca.id = c.campus_id`
		args = append(args, filter.SchoolID)
		where = append(where, `ca.school_id = `+dollar(len(args)))
	}
	if filter.CampusID != "" {
		args = append(args, filter.CampusID)
		where = append(where, `c.campus_id = `+dollar(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, `c.name ILIKE `+dollar(len(args)))
	}
	query += whereClause(where) + ` ORDER BY c.name`

	var rows []classroomRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	classrooms := make([]school.Classroom, 0, len(rows))
	for _, r := range rows {
		classrooms = append(classrooms, r.toDomain())
	}
	return classrooms, nil
}

func (repo *schoolRepository) UpdateClassroom(ctx context.Context, c school.Classroom) (school.Classroom, error) {
	const query = `
		UPDATE classroom
		SET name = $2, capacity = $3, kind = $4, photo_url = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		c.ID, c.Name, c.Capacity,
		null.NewString(c.Kind, c.Kind != ""),
		null.NewString(c.PhotoURL, c.PhotoURL != ""),
		c.UpdatedAt,
	)
	if err != nil {
		return school.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Classroom{}, school.ErrClassroomNotFound
	}
	return c, nil
}

func (repo *schoolRepository) DeleteClassroom(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM classroom WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrClassroomNotFound
	}
	return nil
}
