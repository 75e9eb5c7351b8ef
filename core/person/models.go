package person

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/colegia/backend/core"
)

// Account roles. Teacher, Student and SchoolAdmin accounts carry a home school;
// a GlobalAdmin account has none and is authorized everywhere.
const (
	RoleGlobalAdmin = "global-admin"
	RoleSchoolAdmin = "school-admin"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
)

var AllRoles = []string{RoleGlobalAdmin, RoleSchoolAdmin, RoleTeacher, RoleStudent}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Person is a natural person known to the system: a student, a teacher, an
// administrator or a guardian. Account credentials live separately.
type Person struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	NationalID    string    `json:"national_id"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	BirthDate     time.Time `json:"birth_date,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Address       string    `json:"address,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	NationalIDURL string    `json:"national_id_url,omitempty"`
	ResumeURL     string    `json:"resume_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// Account holds the credentials and the role attached to a Person.
type Account struct {
	ID           string    `json:"id"`
	PersonID     string    `json:"person_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	HomeSchoolID string    `json:"home_school_id,omitempty"` // empty for global admins
	Specialty    string    `json:"specialty,omitempty"`      // teachers only
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Account) IsGlobalAdmin() bool { return a.Role == RoleGlobalAdmin }
func (a *Account) IsSchoolAdmin() bool { return a.Role == RoleSchoolAdmin }
func (a *Account) IsTeacher() bool     { return a.Role == RoleTeacher }
func (a *Account) IsStudent() bool     { return a.Role == RoleStudent }

// NewPerson contains the information needed to register a new Person.
type NewPerson struct {
	FirstName  string    `json:"first_name" validate:"required"`
	LastName   string    `json:"last_name" validate:"required"`
	NationalID string    `json:"national_id" validate:"required"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email" validate:"omitempty,email"`
	BirthDate  time.Time `json:"birth_date"`
	Gender     string    `json:"gender"`
	Address    string    `json:"address"`
}

func (np *NewPerson) Validate(validate *validator.Validate) error {
	np.FirstName = core.CleanString(np.FirstName)
	np.LastName = core.CleanString(np.LastName)
	np.NationalID = core.CleanString(np.NationalID)
	np.Email = core.CleanString(np.Email, true /* lower */)
	return validate.Struct(np)
}

// UpdatePerson defines what may be modified on an existing Person.
type UpdatePerson struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Address   string `json:"address"`
}

func (up *UpdatePerson) Validate(validate *validator.Validate) error {
	up.FirstName = core.CleanString(up.FirstName)
	up.LastName = core.CleanString(up.LastName)
	up.Email = core.CleanString(up.Email, true /* lower */)
	return validate.Struct(up)
}

// Register creates a Person together with its Account in one step.
type Register struct {
	Person       NewPerson `json:"person" validate:"required"`
	Username     string    `json:"username" validate:"required,min=4,alphanum_"`
	Password     string    `json:"password" validate:"required,min=8"`
	Role         string    `json:"role" validate:"required"`
	HomeSchoolID string    `json:"home_school_id"`
	Specialty    string    `json:"specialty"`
}

func (r *Register) Validate(validate *validator.Validate, translator ut.Translator) error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	if err := r.Person.Validate(validate); err != nil {
		return err
	}
	if err := validate.Struct(r); err != nil {
		return err
	}
	if !IsValidRole(r.Role) {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "unknown role"})
	}
	if r.Role == RoleGlobalAdmin && r.HomeSchoolID != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "home_school_id", Error: "global admins have no home school"})
	}
	if r.Role != RoleGlobalAdmin && r.HomeSchoolID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "home_school_id", Error: requiredForRoleText(r.Role)})
	}
	return nil
}

func requiredForRoleText(role string) string {
	return "a home school is required for role " + role
}

// Login carries the credentials presented at authentication.
type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Validate(validate *validator.Validate) error {
	l.Username = core.CleanString(l.Username, true /* lower */)
	return validate.Struct(l)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Role         string `query:"role"`
	HomeSchoolID string `query:"home_school_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
