package dummydb

import (
	"context"
	"strings"

	"github.com/colegia/backend/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, s school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.schools {
		if existing.ModularCode == s.ModularCode {
			return school.School{}, school.ErrSchoolExists
		}
	}
	repo.db.schools[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.schools[id]; ok {
		return *s, nil
	}
	return school.School{}, school.ErrSchoolNotFound
}

func (repo *schoolRepository) QuerySchools(ctx context.Context, filter school.QueryFilter) ([]school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, s := range repo.db.schools {
		if filter.SchoolID != "" && s.ID != filter.SchoolID {
			continue
		}
		if filter.Search != "" && !containsFold(s.Name, filter.Search) {
			continue
		}
		schools = append(schools, *s)
	}
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, s school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schools[s.ID]; !ok {
		return school.School{}, school.ErrSchoolNotFound
	}
	repo.db.schools[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) DeleteSchool(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrSchoolNotFound
	}
	delete(repo.db.schools, id)
	for cid, c := range repo.db.campuses {
		if c.SchoolID == id {
			repo.deleteCampusCascade(cid)
		}
	}
	for coid, co := range repo.db.courses {
		if co.SchoolID == id {
			delete(repo.db.courses, coid)
		}
	}
	return nil
}

func (repo *schoolRepository) CreateCampus(ctx context.Context, c school.Campus) (school.Campus, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.campuses[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) GetCampusByID(ctx context.Context, id string) (school.Campus, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.campuses[id]; ok {
		return *c, nil
	}
	return school.Campus{}, school.ErrCampusNotFound
}

func (repo *schoolRepository) QueryCampuses(ctx context.Context, filter school.QueryFilter) ([]school.Campus, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	campuses := make([]school.Campus, 0, len(repo.db.campuses))
	for _, c := range repo.db.campuses {
		if filter.SchoolID != "" && c.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Search != "" && !containsFold(c.Name, filter.Search) {
			continue
		}
		campuses = append(campuses, *c)
	}
	return campuses, nil
}

func (repo *schoolRepository) UpdateCampus(ctx context.Context, c school.Campus) (school.Campus, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.campuses[c.ID]; !ok {
		return school.Campus{}, school.ErrCampusNotFound
	}
	repo.db.campuses[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) DeleteCampus(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.campuses[id]; !ok {
		return school.ErrCampusNotFound
	}
	repo.deleteCampusCascade(id)
	return nil
}

func (repo *schoolRepository) CreateClassroom(ctx context.Context, c school.Classroom) (school.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.classrooms[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) GetClassroomByID(ctx context.Context, id string) (school.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classrooms[id]; ok {
		return *c, nil
	}
	return school.Classroom{}, school.ErrClassroomNotFound
}

func (repo *schoolRepository) QueryClassrooms(ctx context.Context, filter school.QueryFilter) ([]school.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classrooms := make([]school.Classroom, 0, len(repo.db.classrooms))
	for _, c := range repo.db.classrooms {
		if filter.CampusID != "" && c.CampusID != filter.CampusID {
			continue
		}
		if filter.SchoolID != "" && repo.db.campusSchoolID(c.CampusID) != filter.SchoolID {
			continue
		}
		if filter.Search != "" && !containsFold(c.Name, filter.Search) {
			continue
		}
		classrooms = append(classrooms, *c)
	}
	return classrooms, nil
}

func (repo *schoolRepository) UpdateClassroom(ctx context.Context, c school.Classroom) (school.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classrooms[c.ID]; !ok {
		return school.Classroom{}, school.ErrClassroomNotFound
	}
	repo.db.classrooms[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) DeleteClassroom(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classrooms[id]; !ok {
		return school.ErrClassroomNotFound
	}
	delete(repo.db.classrooms, id)
	return nil
}

// deleteCampusCascade removes a campus and everything under it; callers hold
// the lock.
func (repo *schoolRepository) deleteCampusCascade(id string) {
	delete(repo.db.campuses, id)
	for rid, room := range repo.db.classrooms {
		if room.CampusID == id {
			delete(repo.db.classrooms, rid)
		}
	}
	for gid, g := range repo.db.groups {
		if g.CampusID == id {
			delete(repo.db.groups, gid)
			for sid, s := range repo.db.slots {
				if s.GroupID == gid {
					delete(repo.db.slots, sid)
				}
			}
		}
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
