package person

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/colegia/backend/core"
)

var (
	ErrNotFound         = core.NewError(core.KindNotFound, "person not found")
	ErrAccountNotFound  = core.NewError(core.KindNotFound, "account not found")
	ErrNationalIDExists = core.NewError(core.KindDuplicateKey, "a person with this national ID already exists")
	ErrUsernameExists   = core.NewError(core.KindDuplicateKey, "this username is already in use")
)

type (
	Repository interface {
		CheckPersonUniqueness(ctx context.Context, nationalID string, excluded ...Person) error
		CheckUsernameUniqueness(ctx context.Context, username string, excluded ...Account) error
		CreatePerson(ctx context.Context, p Person) (Person, error)
		GetPersonByID(ctx context.Context, id string) (Person, error)
		QueryPersons(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Person, error)
		UpdatePerson(ctx context.Context, p Person) (Person, error)
		DeletePersonsByID(ctx context.Context, ids ...string) (int, error)

		CreateAccount(ctx context.Context, a Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByPersonID(ctx context.Context, personID string) (Account, error)
		GetAccountByUsername(ctx context.Context, username string) (Account, error)
		UpdateAccount(ctx context.Context, a Account) (Account, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

// Register creates the Person and its Account. The caller is responsible for
// having authorized the operation (admins only).
func (svc *Service) Register(ctx context.Context, reg Register) (Person, Account, error) {
	if err := svc.repo.CheckPersonUniqueness(ctx, reg.Person.NationalID); err != nil {
		return Person{}, Account{}, err
	}
	if err := svc.repo.CheckUsernameUniqueness(ctx, reg.Username); err != nil {
		return Person{}, Account{}, err
	}

	now := time.Now().UTC()
	p := Person{
		ID:         uuid.New().String(),
		FirstName:  reg.Person.FirstName,
		LastName:   reg.Person.LastName,
		NationalID: reg.Person.NationalID,
		Phone:      reg.Person.Phone,
		Email:      reg.Person.Email,
		BirthDate:  reg.Person.BirthDate,
		Gender:     reg.Person.Gender,
		Address:    reg.Person.Address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p, err := svc.repo.CreatePerson(ctx, p)
	if err != nil {
		return Person{}, Account{}, errors.Wrap(err, "creating person")
	}

	a := Account{
		ID:           uuid.New().String(),
		PersonID:     p.ID,
		Username:     reg.Username,
		Role:         reg.Role,
		HomeSchoolID: reg.HomeSchoolID,
		Specialty:    reg.Specialty,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = a.SetPassword(reg.Password); err != nil {
		return Person{}, Account{}, errors.Wrap(err, "hashing password")
	}
	a, err = svc.repo.CreateAccount(ctx, a)
	if err != nil {
		return Person{}, Account{}, errors.Wrap(err, "creating account")
	}

	svc.sendWelcomeEmail(p, a)
	return p, a, nil
}

// Authenticate verifies the credentials and returns the Account and its Person.
func (svc *Service) Authenticate(ctx context.Context, login Login) (Person, Account, error) {
	a, err := svc.repo.GetAccountByUsername(ctx, login.Username)
	if err != nil {
		return Person{}, Account{}, err
	}
	if err = a.CheckPassword(login.Password); err != nil {
		return Person{}, Account{}, ErrAccountNotFound
	}
	if !a.IsActive {
		return Person{}, Account{}, core.NewError(core.KindDenied, "account deactivated")
	}
	p, err := svc.repo.GetPersonByID(ctx, a.PersonID)
	if err != nil {
		return Person{}, Account{}, errors.Wrap(err, "finding account person")
	}

	a.LastLogin = time.Now().UTC()
	if a, err = svc.repo.UpdateAccount(ctx, a); err != nil {
		return Person{}, Account{}, errors.Wrap(err, "setting lastLogin")
	}
	return p, a, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Person, error) {
	return svc.repo.GetPersonByID(ctx, id)
}

func (svc *Service) GetAccountByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetAccountByPersonID(ctx context.Context, personID string) (Account, error) {
	return svc.repo.GetAccountByPersonID(ctx, personID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Person, error) {
	filter.Clean()
	return svc.repo.QueryPersons(ctx, filter, orderings...)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePerson) (Person, error) {
	p, err := svc.repo.GetPersonByID(ctx, id)
	if err != nil {
		return Person{}, err
	}
	if up.FirstName != "" {
		p.FirstName = up.FirstName
	}
	if up.LastName != "" {
		p.LastName = up.LastName
	}
	if up.Phone != "" {
		p.Phone = up.Phone
	}
	if up.Email != "" {
		p.Email = up.Email
	}
	if up.Address != "" {
		p.Address = up.Address
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePerson(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeletePersonsByID(ctx, ids...)
	return err
}

// SetDocumentURL attaches an uploaded document URL to the Person.
func (svc *Service) SetDocumentURL(ctx context.Context, id, field, url string) (Person, error) {
	p, err := svc.repo.GetPersonByID(ctx, id)
	if err != nil {
		return Person{}, err
	}
	switch field {
	case "photo":
		p.PhotoURL = url
	case "national_id":
		p.NationalIDURL = url
	case "resume":
		p.ResumeURL = url
	default:
		return Person{}, core.NewValidationError(nil, core.FieldError{Field: "document", Error: "unknown document field"})
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePerson(ctx, p)
}

func (svc *Service) sendWelcomeEmail(p Person, a Account) {
	if svc.mailSvc == nil || p.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: p.FirstName + " " + p.LastName, Address: p.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		BodyText: fmt.Sprintf(
			"Hi %s,\n\nAn account has been created for you with username %q.\n", p.FirstName, a.Username),
	})
}
