package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
)

type personRepository struct {
	db *DB
}

var _ person.Repository = (*personRepository)(nil) // interface compliance check

func NewPersonRepository(db *DB) *personRepository {
	return &personRepository{db: db}
}

func (repo *personRepository) CheckPersonUniqueness(ctx context.Context, nationalID string, excluded ...person.Person) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.persons {
		if p.NationalID == nationalID && !personExcluded(p.ID, excluded) {
			return person.ErrNationalIDExists
		}
	}
	return nil
}

func (repo *personRepository) CheckUsernameUniqueness(ctx context.Context, username string, excluded ...person.Account) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.accounts {
		if a.Username == username && !accountExcluded(a.ID, excluded) {
			return person.ErrUsernameExists
		}
	}
	return nil
}

func (repo *personRepository) CreatePerson(ctx context.Context, p person.Person) (person.Person, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.persons[p.ID] = &p
	return p, nil
}

func (repo *personRepository) GetPersonByID(ctx context.Context, id string) (person.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.persons[id]; ok {
		return *p, nil
	}
	return person.Person{}, person.ErrNotFound
}

func (repo *personRepository) QueryPersons(ctx context.Context, filter person.QueryFilter, orderings ...core.DBOrdering) ([]person.Person, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	persons := make([]person.Person, 0, len(repo.db.persons))
	for _, p := range repo.db.persons {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.FirstName), search) &&
				!strings.Contains(strings.ToLower(p.LastName), search) &&
				!strings.Contains(strings.ToLower(p.NationalID), search) {
				continue
			}
		}
		if filter.Role != "" || filter.HomeSchoolID != "" {
			acct := repo.accountOf(p.ID)
			if acct == nil {
				continue
			}
			if filter.Role != "" && acct.Role != filter.Role {
				continue
			}
			if filter.HomeSchoolID != "" && acct.HomeSchoolID != filter.HomeSchoolID {
				continue
			}
		}
		persons = append(persons, *p)
	}
	orderPersons(persons, orderings)
	return persons, nil
}

func orderPersons(persons []person.Person, orderings []core.DBOrdering) {
	for i := len(orderings) - 1; i >= 0; i-- {
		ord := orderings[i]
		sort.SliceStable(persons, func(a, b int) bool {
			var less bool
			switch ord.Field {
			case "first_name":
				less = persons[a].FirstName < persons[b].FirstName
			case "last_name":
				less = persons[a].LastName < persons[b].LastName
			case "national_id":
				less = persons[a].NationalID < persons[b].NationalID
			case "created_at":
				less = persons[a].CreatedAt.Before(persons[b].CreatedAt)
			default:
				return false
			}
			if !ord.Ascending {
				return !less
			}
			return less
		})
	}
}

func (repo *personRepository) UpdatePerson(ctx context.Context, p person.Person) (person.Person, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.persons[p.ID]; !ok {
		return person.Person{}, person.ErrNotFound
	}
	repo.db.persons[p.ID] = &p
	return p, nil
}

func (repo *personRepository) DeletePersonsByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.persons[id]; !ok {
			continue
		}
		delete(repo.db.persons, id)
		for aid, a := range repo.db.accounts {
			if a.PersonID == id {
				delete(repo.db.accounts, aid)
			}
		}
		n++
	}
	return n, nil
}

func (repo *personRepository) CreateAccount(ctx context.Context, a person.Account) (person.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.accounts[a.ID] = &a
	return a, nil
}

func (repo *personRepository) GetAccountByID(ctx context.Context, id string) (person.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.accounts[id]; ok {
		return *a, nil
	}
	return person.Account{}, person.ErrAccountNotFound
}

func (repo *personRepository) GetAccountByPersonID(ctx context.Context, personID string) (person.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a := repo.accountOf(personID); a != nil {
		return *a, nil
	}
	return person.Account{}, person.ErrAccountNotFound
}

func (repo *personRepository) GetAccountByUsername(ctx context.Context, username string) (person.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.accounts {
		if a.Username == username {
			return *a, nil
		}
	}
	return person.Account{}, person.ErrAccountNotFound
}

func (repo *personRepository) UpdateAccount(ctx context.Context, a person.Account) (person.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.accounts[a.ID]; !ok {
		return person.Account{}, person.ErrAccountNotFound
	}
	repo.db.accounts[a.ID] = &a
	return a, nil
}

// accountOf finds the account of a person; callers hold the lock.
func (repo *personRepository) accountOf(personID string) *person.Account {
	for _, a := range repo.db.accounts {
		if a.PersonID == personID {
			return a
		}
	}
	return nil
}

func personExcluded(id string, excluded []person.Person) bool {
	for _, p := range excluded {
		if p.ID == id {
			return true
		}
	}
	return false
}

func accountExcluded(id string, excluded []person.Account) bool {
	for _, a := range excluded {
		if a.ID == id {
			return true
		}
	}
	return false
}
