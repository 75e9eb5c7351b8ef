package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/colegia/backend/core"
)

// School is the top-level tenant; every other record resolves to exactly one.
type School struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ModularCode     string    `json:"modular_code"`
	TaxID           string    `json:"tax_id"`
	InstitutionType string    `json:"institution_type"`
	AcademicRegime  string    `json:"academic_regime"`
	Address         string    `json:"address"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	LogoURL         string    `json:"logo_url,omitempty"`
	LicenseURL      string    `json:"license_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// Campus is a physical site of a School.
type Campus struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"school_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	District  string    `json:"district"`
	City      string    `json:"city"`
	Phone     string    `json:"phone,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Classroom is a physical room in a Campus; its capacity caps class groups.
type Classroom struct {
	ID        string    `json:"id"`
	CampusID  string    `json:"campus_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Kind      string    `json:"kind,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewSchool struct {
	Name            string `json:"name" validate:"required"`
	ModularCode     string `json:"modular_code" validate:"required"`
	TaxID           string `json:"tax_id" validate:"required"`
	InstitutionType string `json:"institution_type" validate:"required"`
	AcademicRegime  string `json:"academic_regime" validate:"required"`
	Address         string `json:"address" validate:"required"`
	Phone           string `json:"phone"`
	Email           string `json:"email" validate:"omitempty,email"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type UpdateSchool struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	AcademicRegime string `json:"academic_regime"`
}

func (us *UpdateSchool) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	return validate.Struct(us)
}

type NewCampus struct {
	SchoolID string `json:"school_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	District string `json:"district" validate:"required"`
	City     string `json:"city" validate:"required"`
	Phone    string `json:"phone"`
}

func (nc *NewCampus) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type UpdateCampus struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	District string `json:"district"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
}

func (uc *UpdateCampus) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

type NewClassroom struct {
	CampusID string `json:"campus_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
	Kind     string `json:"kind"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type UpdateClassroom struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity" validate:"omitempty,gt=0"`
	Kind     string `json:"kind"`
}

func (uc *UpdateClassroom) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

// QueryFilter scopes list queries at the data-access level; services derive it
// from the actor so an unscoped list is never computed for non-global actors.
type QueryFilter struct {
	SchoolID string `query:"school_id"`
	CampusID string `query:"campus_id"`
	Search   string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
