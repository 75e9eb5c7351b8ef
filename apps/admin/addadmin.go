package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
)

// addAdmin creates a global admin Person+Account, or refreshes the password
// and role of an existing account with that username.
func (cli *commandLine) addAdmin(uname, firstName, lastName, nationalID, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	acct, err := cli.repo.GetAccountByUsername(ctx, uname)
	if err == nil {
		acct.Role = person.RoleGlobalAdmin
		acct.HomeSchoolID = ""
		acct.IsActive = true
		if err := acct.SetPassword(pwd); err != nil {
			return err
		}
		acct.UpdatedAt = time.Now().UTC()
		_, err = cli.repo.UpdateAccount(ctx, acct)
		return err
	}
	if core.KindOf(err) != core.KindNotFound {
		return err
	}

	now := time.Now().UTC()
	p := person.Person{
		ID:         uuid.New().String(),
		FirstName:  core.CleanString(firstName),
		LastName:   core.CleanString(lastName),
		NationalID: core.CleanString(nationalID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := cli.repo.CheckPersonUniqueness(ctx, p.NationalID); err != nil {
		return err
	}
	if p, err = cli.repo.CreatePerson(ctx, p); err != nil {
		return err
	}

	acct = person.Account{
		ID:        uuid.New().String(),
		PersonID:  p.ID,
		Username:  uname,
		Role:      person.RoleGlobalAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.repo.CreateAccount(ctx, acct)
	return err
}
