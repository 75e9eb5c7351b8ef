package person_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
	emailsvc "github.com/colegia/backend/services/email"
	testutil "github.com/colegia/backend/tests"
)

func newPersonService(f *testutil.Fixture) *person.Service {
	conf := &core.Config{AppName: "Colegia", DefaultFromName: "Colegia", DefaultFromAddr: "noreply@localhost"}
	return person.NewService(f.PersonRepo, emailsvc.NewConsoleServiceMock(conf), conf)
}

func TestService_Register(t *testing.T) {
	f := testutil.NewFixture()
	svc := newPersonService(f)
	ctx := context.Background()

	s := f.CreateSchool(t, "North High", "mc-001")
	reg := person.Register{
		Person:       person.NewPerson{FirstName: "Ada", LastName: "Mwamba", NationalID: "nid-001"},
		Username:     "amwamba",
		Password:     "Sup3rSecret!",
		Role:         person.RoleTeacher,
		HomeSchoolID: s.ID,
	}

	p, acct, err := svc.Register(ctx, reg)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, p.ID, acct.PersonID)
	assert.True(t, acct.IsActive)
	assert.NoError(t, acct.CheckPassword("Sup3rSecret!"))

	// national ID is unique across all schools
	dup := reg
	dup.Username = "amwamba2"
	_, _, err = svc.Register(ctx, dup)
	assert.Equal(t, person.ErrNationalIDExists, err)

	// so is the username
	dup = reg
	dup.Person.NationalID = "nid-002"
	_, _, err = svc.Register(ctx, dup)
	assert.Equal(t, person.ErrUsernameExists, err)
}

func TestService_Authenticate(t *testing.T) {
	f := testutil.NewFixture()
	svc := newPersonService(f)
	ctx := context.Background()

	s := f.CreateSchool(t, "North High", "mc-001")
	_, acct := f.CreatePersonWithAccount(t, "teach1", person.RoleTeacher, s.ID)

	_, authed, err := svc.Authenticate(ctx, person.Login{Username: "teach1", Password: "Sup3rSecret!"})
	require.NoError(t, err)
	assert.Equal(t, acct.ID, authed.ID)
	assert.False(t, authed.LastLogin.IsZero())

	_, _, err = svc.Authenticate(ctx, person.Login{Username: "teach1", Password: "wrong"})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	_, _, err = svc.Authenticate(ctx, person.Login{Username: "whodis", Password: "Sup3rSecret!"})
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	// deactivated accounts cannot log in
	acct.IsActive = false
	_, err = f.PersonRepo.UpdateAccount(ctx, acct)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, person.Login{Username: "teach1", Password: "Sup3rSecret!"})
	assert.Equal(t, core.KindDenied, core.KindOf(err))
}

func TestService_SetDocumentURL(t *testing.T) {
	f := testutil.NewFixture()
	svc := newPersonService(f)
	ctx := context.Background()

	s := f.CreateSchool(t, "North High", "mc-001")
	p, _ := f.CreatePersonWithAccount(t, "stud1", person.RoleStudent, s.ID)

	updated, err := svc.SetDocumentURL(ctx, p.ID, "photo", "mem://persons/1/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "mem://persons/1/photo.jpg", updated.PhotoURL)

	_, err = svc.SetDocumentURL(ctx, p.ID, "selfie", "mem://persons/1/selfie.jpg")
	assert.Equal(t, core.KindInvalidRange, core.KindOf(err))
}

func TestService_Query_ordering(t *testing.T) {
	f := testutil.NewFixture()
	svc := newPersonService(f)
	ctx := context.Background()

	s := f.CreateSchool(t, "North High", "mc-001")
	f.CreatePersonWithAccount(t, "bb", person.RoleStudent, s.ID)
	f.CreatePersonWithAccount(t, "aa", person.RoleStudent, s.ID)
	f.CreatePersonWithAccount(t, "cc", person.RoleStudent, s.ID)

	persons, err := svc.Query(ctx, person.QueryFilter{}, core.DBOrdering{Field: "last_name", Ascending: true})
	require.NoError(t, err)
	require.Len(t, persons, 3)
	assert.Equal(t, []string{"aa", "bb", "cc"}, []string{persons[0].LastName, persons[1].LastName, persons[2].LastName})

	persons, err = svc.Query(ctx, person.QueryFilter{}, core.DBOrdering{Field: "last_name"})
	require.NoError(t, err)
	assert.Equal(t, "cc", persons[0].LastName)
}
