package school

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/scope"
)

var (
	ErrSchoolNotFound    = core.NewError(core.KindNotFound, "school not found")
	ErrSchoolExists      = core.NewError(core.KindDuplicateKey, "a school with this modular code already exists")
	ErrCampusNotFound    = core.NewError(core.KindNotFound, "campus not found")
	ErrClassroomNotFound = core.NewError(core.KindNotFound, "classroom not found")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, s School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		QuerySchools(ctx context.Context, filter QueryFilter) ([]School, error)
		UpdateSchool(ctx context.Context, s School) (School, error)
		// DeleteSchool cascades to campuses, classrooms, courses and below.
		DeleteSchool(ctx context.Context, id string) error

		CreateCampus(ctx context.Context, c Campus) (Campus, error)
		GetCampusByID(ctx context.Context, id string) (Campus, error)
		QueryCampuses(ctx context.Context, filter QueryFilter) ([]Campus, error)
		UpdateCampus(ctx context.Context, c Campus) (Campus, error)
		// DeleteCampus cascades to classrooms and class groups.
		DeleteCampus(ctx context.Context, id string) error

		CreateClassroom(ctx context.Context, c Classroom) (Classroom, error)
		GetClassroomByID(ctx context.Context, id string) (Classroom, error)
		QueryClassrooms(ctx context.Context, filter QueryFilter) ([]Classroom, error)
		UpdateClassroom(ctx context.Context, c Classroom) (Classroom, error)
		DeleteClassroom(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		resolver scope.Resolver
	}
)

func NewService(repo Repository, resolver scope.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Schools

func (svc *Service) CreateSchool(ctx context.Context, actor scope.Actor, ns NewSchool) (School, error) {
	// only global admins create tenants
	if err := scope.Authorize(actor, scope.ActionWrite, scope.Scope{}); err != nil {
		return School{}, err
	}
	now := time.Now().UTC()
	s := School{
		ID:              uuid.New().String(),
		Name:            ns.Name,
		ModularCode:     ns.ModularCode,
		TaxID:           ns.TaxID,
		InstitutionType: ns.InstitutionType,
		AcademicRegime:  ns.AcademicRegime,
		Address:         ns.Address,
		Phone:           ns.Phone,
		Email:           ns.Email,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateSchool(ctx, s)
}

func (svc *Service) GetSchool(ctx context.Context, actor scope.Actor, id string) (School, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntitySchool, id); err != nil {
		return School{}, err
	}
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) QuerySchools(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]School, error) {
	filter.Clean()
	if actor.Role != person.RoleGlobalAdmin {
		if actor.HomeSchoolID == "" {
			return nil, core.NewError(core.KindDenied, "insufficient permissions")
		}
		filter.SchoolID = actor.HomeSchoolID
	}
	return svc.repo.QuerySchools(ctx, filter)
}

func (svc *Service) UpdateSchool(ctx context.Context, actor scope.Actor, id string, us UpdateSchool) (School, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntitySchool, id); err != nil {
		return School{}, err
	}
	s, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if us.Name != "" {
		s.Name = us.Name
	}
	if us.Address != "" {
		s.Address = us.Address
	}
	if us.Phone != "" {
		s.Phone = us.Phone
	}
	if us.Email != "" {
		s.Email = us.Email
	}
	if us.AcademicRegime != "" {
		s.AcademicRegime = us.AcademicRegime
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, s)
}

func (svc *Service) DeleteSchool(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntitySchool, id); err != nil {
		return err
	}
	return svc.repo.DeleteSchool(ctx, id)
}

// SetSchoolDocumentURL attaches an uploaded logo or licence URL.
func (svc *Service) SetSchoolDocumentURL(ctx context.Context, actor scope.Actor, id, field, url string) (School, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntitySchool, id); err != nil {
		return School{}, err
	}
	s, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	switch field {
	case "logo":
		s.LogoURL = url
	case "license":
		s.LicenseURL = url
	default:
		return School{}, core.NewValidationError(nil, core.FieldError{Field: "document", Error: "unknown document field"})
	}
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, s)
}

// Campuses

func (svc *Service) CreateCampus(ctx context.Context, actor scope.Actor, nc NewCampus) (Campus, error) {
	if _, err := svc.repo.GetSchoolByID(ctx, nc.SchoolID); err != nil {
		return Campus{}, ErrSchoolNotFound
	}
	if err := scope.CheckSchool(actor, scope.ActionWrite, nc.SchoolID); err != nil {
		return Campus{}, err
	}
	now := time.Now().UTC()
	c := Campus{
		ID:        uuid.New().String(),
		SchoolID:  nc.SchoolID,
		Name:      nc.Name,
		Address:   nc.Address,
		District:  nc.District,
		City:      nc.City,
		Phone:     nc.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateCampus(ctx, c)
}

func (svc *Service) GetCampus(ctx context.Context, actor scope.Actor, id string) (Campus, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityCampus, id); err != nil {
		return Campus{}, err
	}
	return svc.repo.GetCampusByID(ctx, id)
}

func (svc *Service) QueryCampuses(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]Campus, error) {
	if err := svc.scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryCampuses(ctx, filter)
}

func (svc *Service) UpdateCampus(ctx context.Context, actor scope.Actor, id string, uc UpdateCampus) (Campus, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCampus, id); err != nil {
		return Campus{}, err
	}
	c, err := svc.repo.GetCampusByID(ctx, id)
	if err != nil {
		return Campus{}, err
	}
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.Address != "" {
		c.Address = uc.Address
	}
	if uc.District != "" {
		c.District = uc.District
	}
	if uc.City != "" {
		c.City = uc.City
	}
	if uc.Phone != "" {
		c.Phone = uc.Phone
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCampus(ctx, c)
}

func (svc *Service) DeleteCampus(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCampus, id); err != nil {
		return err
	}
	return svc.repo.DeleteCampus(ctx, id)
}

// SetCampusPhotoURL attaches an uploaded campus photo URL.
func (svc *Service) SetCampusPhotoURL(ctx context.Context, actor scope.Actor, id, url string) (Campus, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityCampus, id); err != nil {
		return Campus{}, err
	}
	c, err := svc.repo.GetCampusByID(ctx, id)
	if err != nil {
		return Campus{}, err
	}
	c.PhotoURL = url
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCampus(ctx, c)
}

// Classrooms

func (svc *Service) CreateClassroom(ctx context.Context, actor scope.Actor, nc NewClassroom) (Classroom, error) {
	campus, err := svc.repo.GetCampusByID(ctx, nc.CampusID)
	if err != nil {
		return Classroom{}, ErrCampusNotFound
	}
	if err := scope.CheckSchool(actor, scope.ActionWrite, campus.SchoolID); err != nil {
		return Classroom{}, err
	}
	now := time.Now().UTC()
	c := Classroom{
		ID:        uuid.New().String(),
		CampusID:  nc.CampusID,
		Name:      nc.Name,
		Capacity:  nc.Capacity,
		Kind:      nc.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClassroom(ctx, c)
}

func (svc *Service) GetClassroom(ctx context.Context, actor scope.Actor, id string) (Classroom, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionRead, scope.EntityClassroom, id); err != nil {
		return Classroom{}, err
	}
	return svc.repo.GetClassroomByID(ctx, id)
}

func (svc *Service) QueryClassrooms(ctx context.Context, actor scope.Actor, filter QueryFilter) ([]Classroom, error) {
	if err := svc.scopeListFilter(actor, &filter); err != nil {
		return nil, err
	}
	return svc.repo.QueryClassrooms(ctx, filter)
}

func (svc *Service) UpdateClassroom(ctx context.Context, actor scope.Actor, id string, uc UpdateClassroom) (Classroom, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityClassroom, id); err != nil {
		return Classroom{}, err
	}
	c, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		return Classroom{}, err
	}
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.Capacity > 0 {
		c.Capacity = uc.Capacity
	}
	if uc.Kind != "" {
		c.Kind = uc.Kind
	}
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClassroom(ctx, c)
}

// SetClassroomPhotoURL attaches an uploaded classroom photo URL.
func (svc *Service) SetClassroomPhotoURL(ctx context.Context, actor scope.Actor, id, url string) (Classroom, error) {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityClassroom, id); err != nil {
		return Classroom{}, err
	}
	c, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		return Classroom{}, err
	}
	c.PhotoURL = url
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClassroom(ctx, c)
}

func (svc *Service) DeleteClassroom(ctx context.Context, actor scope.Actor, id string) error {
	if _, err := scope.Check(ctx, svc.resolver, actor, scope.ActionWrite, scope.EntityClassroom, id); err != nil {
		return err
	}
	return svc.repo.DeleteClassroom(ctx, id)
}

// scopeListFilter pins list queries to the actor's home school; students have
// no business listing the physical hierarchy.
func (svc *Service) scopeListFilter(actor scope.Actor, filter *QueryFilter) error {
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
