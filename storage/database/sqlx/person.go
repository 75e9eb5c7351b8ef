package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/strmangle"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
)

type personRow struct {
	ID            string      `db:"id"`
	FirstName     string      `db:"first_name"`
	LastName      string      `db:"last_name"`
	NationalID    string      `db:"national_id"`
	BirthDate     null.Time   `db:"birth_date"`
	Gender        null.String `db:"gender"`
	Address       null.String `db:"address"`
	Phone         null.String `db:"phone"`
	Email         null.String `db:"email"`
	PhotoURL      null.String `db:"photo_url"`
	NationalIDURL null.String `db:"national_id_url"`
	ResumeURL     null.String `db:"resume_url"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r personRow) toDomain() person.Person {
	return person.Person{
		ID:            r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		NationalID:    r.NationalID,
		BirthDate:     r.BirthDate.Time,
		Gender:        r.Gender.String,
		Address:       r.Address.String,
		Phone:         r.Phone.String,
		Email:         r.Email.String,
		PhotoURL:      r.PhotoURL.String,
		NationalIDURL: r.NationalIDURL.String,
		ResumeURL:     r.ResumeURL.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type accountRow struct {
	ID           string      `db:"id"`
	PersonID     string      `db:"person_id"`
	Username     string      `db:"username"`
	Role         string      `db:"role"`
	HomeSchoolID null.String `db:"home_school_id"`
	Specialty    null.String `db:"specialty"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	LastLogin    null.Time   `db:"last_login"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r accountRow) toDomain() person.Account {
	return person.Account{
		ID:           r.ID,
		PersonID:     r.PersonID,
		Username:     r.Username,
		Role:         r.Role,
		HomeSchoolID: r.HomeSchoolID.String,
		Specialty:    r.Specialty.String,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin.Time,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type personRepository struct {
	ext sqlx.ExtContext
}

var _ person.Repository = (*personRepository)(nil) // interface compliance check

func NewPersonRepository(ext sqlx.ExtContext) *personRepository {
	return &personRepository{ext: ext}
}

func (repo *personRepository) CheckPersonUniqueness(ctx context.Context, nationalID string, excluded ...person.Person) error {
	query := `SELECT EXISTS (SELECT 1 FROM person WHERE national_id = $1`
	args := []interface{}{nationalID}
	if len(excluded) > 0 {
		ids := make([]interface{}, 0, len(excluded))
		for _, p := range excluded {
			ids = append(ids, p.ID)
		}
		query += ` AND id NOT IN (` + strmangle.Placeholders(true, len(ids), 2, 1) + `)`
		args = append(args, ids...)
	}
	query += `)`

	var exists bool
	if err := sqlx.GetContext(ctx, repo.ext, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking person uniqueness")
	}
	if exists {
		return person.ErrNationalIDExists
	}
	return nil
}

func (repo *personRepository) CheckUsernameUniqueness(ctx context.Context, username string, excluded ...person.Account) error {
	query := `SELECT EXISTS (SELECT 1 FROM account WHERE username = $1`
	args := []interface{}{username}
	if len(excluded) > 0 {
		ids := make([]interface{}, 0, len(excluded))
		for _, a := range excluded {
			ids = append(ids, a.ID)
		}
		query += ` AND id NOT IN (` + strmangle.Placeholders(true, len(ids), 2, 1) + `)`
		args = append(args, ids...)
	}
	query += `)`

	var exists bool
	if err := sqlx.GetContext(ctx, repo.ext, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return person.ErrUsernameExists
	}
	return nil
}

func (repo *personRepository) CreatePerson(ctx context.Context, p person.Person) (person.Person, error) {
	const query = `
		INSERT INTO person (id, first_name, last_name, national_id, birth_date, gender, address, phone, email, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.ext.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.NationalID,
		null.NewTime(p.BirthDate, !p.BirthDate.IsZero()),
		null.NewString(p.Gender, p.Gender != ""),
		null.NewString(p.Address, p.Address != ""),
		null.NewString(p.Phone, p.Phone != ""),
		null.NewString(p.Email, p.Email != ""),
		null.NewString(p.PhotoURL, p.PhotoURL != ""),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return person.Person{}, person.ErrNationalIDExists
		}
		return person.Person{}, errors.Wrap(err, "inserting person")
	}
	return p, nil
}

func (repo *personRepository) GetPersonByID(ctx context.Context, id string) (person.Person, error) {
	var row personRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM person WHERE id = $1`, id); err != nil {
		return person.Person{}, trapNoRows(err, person.ErrNotFound, "getting person")
	}
	return row.toDomain(), nil
}

func (repo *personRepository) QueryPersons(ctx context.Context, filter person.QueryFilter, orderings ...core.DBOrdering) ([]person.Person, error) {
	query := `SELECT p.* FROM person p`
	var where []string
	var args []interface{}

	if filter.Role != "" || filter.HomeSchoolID != "" {
		query += ` JOIN account a ON a.person_id = p.id`
		if filter.Role != "" {
			args = append(args, filter.Role)
			where = append(where, `a.role = `+dollar(len(args)))
		}
		if filter.HomeSchoolID != "" {
			args = append(args, filter.HomeSchoolID)
			where = append(where, `a.home_school_id = `+dollar(len(args)))
		}
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := dollar(len(args))
		where = append(where, `(p.first_name ILIKE `+n+` OR p.last_name ILIKE `+n+` OR p.national_id ILIKE `+n+`)`)
	}
	query += whereClause(where) + personOrderBy(orderings)

	var rows []personRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying persons")
	}
	persons := make([]person.Person, 0, len(rows))
	for _, r := range rows {
		persons = append(persons, r.toDomain())
	}
	return persons, nil
}

// personOrderBy builds an ORDER BY clause from whitelisted columns; unknown
// fields are ignored rather than interpolated.
func personOrderBy(orderings []core.DBOrdering) string {
	cols := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		switch ord.Field {
		case "first_name", "last_name", "national_id", "created_at":
			cols = append(cols, "p."+ord.String())
		}
	}
	if len(cols) == 0 {
		return ` ORDER BY p.last_name, p.first_name`
	}
	return ` ORDER BY ` + strings.Join(cols, ", ")
}

func (repo *personRepository) UpdatePerson(ctx context.Context, p person.Person) (person.Person, error) {
	const query = `
		UPDATE person
		SET first_name = $2, last_name = $3, address = $4, phone = $5, email = $6, photo_url = $7, national_id_url = $8, resume_url = $9, updated_at = $10
		WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName,
		null.NewString(p.Address, p.Address != ""),
		null.NewString(p.Phone, p.Phone != ""),
		null.NewString(p.Email, p.Email != ""),
		null.NewString(p.PhotoURL, p.PhotoURL != ""),
		null.NewString(p.NationalIDURL, p.NationalIDURL != ""),
		null.NewString(p.ResumeURL, p.ResumeURL != ""),
		p.UpdatedAt,
	)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "updating person")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return person.Person{}, person.ErrNotFound
	}
	return p, nil
}

func (repo *personRepository) DeletePersonsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `DELETE FROM person WHERE id IN (` + strmangle.Placeholders(true, len(args), 1, 1) + `)`
	res, err := repo.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting persons")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *personRepository) CreateAccount(ctx context.Context, a person.Account) (person.Account, error) {
	const query = `
		INSERT INTO account (id, person_id, username, role, home_school_id, specialty, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.ext.ExecContext(ctx, query,
		a.ID, a.PersonID, a.Username, a.Role,
		null.NewString(a.HomeSchoolID, a.HomeSchoolID != ""),
		null.NewString(a.Specialty, a.Specialty != ""),
		a.IsActive, a.PasswordHash, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return person.Account{}, person.ErrUsernameExists
		}
		return person.Account{}, errors.Wrap(err, "inserting account")
	}
	return a, nil
}

func (repo *personRepository) GetAccountByID(ctx context.Context, id string) (person.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM account WHERE id = $1`, id); err != nil {
		return person.Account{}, trapNoRows(err, person.ErrAccountNotFound, "getting account")
	}
	return row.toDomain(), nil
}

func (repo *personRepository) GetAccountByPersonID(ctx context.Context, personID string) (person.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM account WHERE person_id = $1`, personID); err != nil {
		return person.Account{}, trapNoRows(err, person.ErrAccountNotFound, "getting account by person")
	}
	return row.toDomain(), nil
}

func (repo *personRepository) GetAccountByUsername(ctx context.Context, username string) (person.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT * FROM account WHERE username = $1`, username); err != nil {
		return person.Account{}, trapNoRows(err, person.ErrAccountNotFound, "getting account by username")
	}
	return row.toDomain(), nil
}

func (repo *personRepository) UpdateAccount(ctx context.Context, a person.Account) (person.Account, error) {
	const query = `
		UPDATE account
		SET username = $2, role = $3, specialty = $4, is_active = $5, password_hash = $6, last_login = $7, updated_at = $8
		WHERE id = $1`
	res, err := repo.ext.ExecContext(ctx, query,
		a.ID, a.Username, a.Role,
		null.NewString(a.Specialty, a.Specialty != ""),
		a.IsActive, a.PasswordHash,
		null.NewTime(a.LastLogin, !a.LastLogin.IsZero()),
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return person.Account{}, person.ErrUsernameExists
		}
		return person.Account{}, errors.Wrap(err, "updating account")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return person.Account{}, person.ErrAccountNotFound
	}
	return a, nil
}
