package dummydb

import (
	"context"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
)

type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{db: db}
}

// Education levels

func (repo *academicRepository) CreateLevel(ctx context.Context, l academic.EducationLevel) (academic.EducationLevel, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.levels[l.ID] = &l
	return l, nil
}

func (repo *academicRepository) GetLevelByID(ctx context.Context, id string) (academic.EducationLevel, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.levels[id]; ok {
		return *l, nil
	}
	return academic.EducationLevel{}, academic.ErrLevelNotFound
}

func (repo *academicRepository) QueryLevels(ctx context.Context) ([]academic.EducationLevel, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	levels := make([]academic.EducationLevel, 0, len(repo.db.levels))
	for _, l := range repo.db.levels {
		levels = append(levels, *l)
	}
	return levels, nil
}

func (repo *academicRepository) UpdateLevel(ctx context.Context, l academic.EducationLevel) (academic.EducationLevel, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.levels[l.ID]; !ok {
		return academic.EducationLevel{}, academic.ErrLevelNotFound
	}
	repo.db.levels[l.ID] = &l
	return l, nil
}

func (repo *academicRepository) DeleteLevel(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.levels[id]; !ok {
		return academic.ErrLevelNotFound
	}
	for _, y := range repo.db.years {
		if y.LevelID == id {
			return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the level still has academic years"})
		}
	}
	delete(repo.db.levels, id)
	return nil
}

// Academic years

func (repo *academicRepository) CreateYear(ctx context.Context, y academic.AcademicYear) (academic.AcademicYear, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.years[y.ID] = &y
	return y, nil
}

func (repo *academicRepository) GetYearByID(ctx context.Context, id string) (academic.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if y, ok := repo.db.years[id]; ok {
		return *y, nil
	}
	return academic.AcademicYear{}, academic.ErrYearNotFound
}

func (repo *academicRepository) QueryYears(ctx context.Context, filter academic.QueryFilter) ([]academic.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	years := make([]academic.AcademicYear, 0, len(repo.db.years))
	for _, y := range repo.db.years {
		if filter.LevelID != "" && y.LevelID != filter.LevelID {
			continue
		}
		years = append(years, *y)
	}
	return years, nil
}

func (repo *academicRepository) FindYear(ctx context.Context, levelID string, number int) (academic.AcademicYear, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, y := range repo.db.years {
		if y.LevelID == levelID && y.Number == number {
			return *y, nil
		}
	}
	return academic.AcademicYear{}, academic.ErrYearNotFound
}

func (repo *academicRepository) DeleteYear(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.years[id]; !ok {
		return academic.ErrYearNotFound
	}
	for _, g := range repo.db.groups {
		if g.YearID == id {
			return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the year still has class groups"})
		}
	}
	for cyid, cy := range repo.db.courseYears {
		if cy.YearID == id {
			delete(repo.db.courseYears, cyid)
		}
	}
	delete(repo.db.years, id)
	return nil
}

// Shifts

func (repo *academicRepository) CreateShift(ctx context.Context, s academic.Shift) (academic.Shift, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.shifts[s.ID] = &s
	return s, nil
}

func (repo *academicRepository) GetShiftByID(ctx context.Context, id string) (academic.Shift, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.shifts[id]; ok {
		return *s, nil
	}
	return academic.Shift{}, academic.ErrShiftNotFound
}

func (repo *academicRepository) QueryShifts(ctx context.Context) ([]academic.Shift, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	shifts := make([]academic.Shift, 0, len(repo.db.shifts))
	for _, s := range repo.db.shifts {
		shifts = append(shifts, *s)
	}
	return shifts, nil
}

func (repo *academicRepository) DeleteShift(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.shifts[id]; !ok {
		return academic.ErrShiftNotFound
	}
	for _, g := range repo.db.groups {
		if g.ShiftID == id {
			return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the shift still has class groups"})
		}
	}
	delete(repo.db.shifts, id)
	return nil
}

// Courses

func (repo *academicRepository) CreateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCourseByID(ctx context.Context, id string) (academic.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return academic.Course{}, academic.ErrCourseNotFound
}

func (repo *academicRepository) QueryCourses(ctx context.Context, filter academic.QueryFilter) ([]academic.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]academic.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter.SchoolID != "" && c.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Search != "" && !containsFold(c.Name, filter.Search) && !containsFold(c.Code, filter.Search) {
			continue
		}
		courses = append(courses, *c)
	}
	return courses, nil
}

func (repo *academicRepository) UpdateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return academic.Course{}, academic.ErrCourseNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return academic.ErrCourseNotFound
	}
	delete(repo.db.courses, id)
	for cyid, cy := range repo.db.courseYears {
		if cy.CourseID == id {
			delete(repo.db.courseYears, cyid)
		}
	}
	for taid, ta := range repo.db.assignments {
		if ta.CourseID == id {
			delete(repo.db.assignments, taid)
		}
	}
	return nil
}

// Course-year assignments

func (repo *academicRepository) CreateCourseYear(ctx context.Context, a academic.CourseYearAssignment) (academic.CourseYearAssignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.courseYears[a.ID] = &a
	return a, nil
}

func (repo *academicRepository) GetCourseYearByID(ctx context.Context, id string) (academic.CourseYearAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.courseYears[id]; ok {
		return *a, nil
	}
	return academic.CourseYearAssignment{}, academic.ErrCourseYearNotFound
}

func (repo *academicRepository) FindCourseYear(ctx context.Context, courseID, yearID string) (academic.CourseYearAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.courseYears {
		if a.CourseID == courseID && a.YearID == yearID {
			return *a, nil
		}
	}
	return academic.CourseYearAssignment{}, academic.ErrCourseYearNotFound
}

func (repo *academicRepository) QueryCourseYears(ctx context.Context, filter academic.QueryFilter) ([]academic.CourseYearAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]academic.CourseYearAssignment, 0, len(repo.db.courseYears))
	for _, a := range repo.db.courseYears {
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		if filter.YearID != "" && a.YearID != filter.YearID {
			continue
		}
		if filter.SchoolID != "" {
			c, ok := repo.db.courses[a.CourseID]
			if !ok || c.SchoolID != filter.SchoolID {
				continue
			}
		}
		assignments = append(assignments, *a)
	}
	return assignments, nil
}

func (repo *academicRepository) DeleteCourseYear(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courseYears[id]; !ok {
		return academic.ErrCourseYearNotFound
	}
	delete(repo.db.courseYears, id)
	return nil
}

// Teaching assignments

func (repo *academicRepository) CreateAssignment(ctx context.Context, a academic.TeachingAssignment) (academic.TeachingAssignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *academicRepository) GetAssignmentByID(ctx context.Context, id string) (academic.TeachingAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return academic.TeachingAssignment{}, academic.ErrAssignmentNotFound
}

func (repo *academicRepository) FindAssignment(ctx context.Context, teacherPersonID, courseID string) (academic.TeachingAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.assignments {
		if a.TeacherPersonID == teacherPersonID && a.CourseID == courseID {
			return *a, nil
		}
	}
	return academic.TeachingAssignment{}, academic.ErrAssignmentNotFound
}

func (repo *academicRepository) QueryAssignments(ctx context.Context, filter academic.QueryFilter) ([]academic.TeachingAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]academic.TeachingAssignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		if filter.TeacherPersonID != "" && a.TeacherPersonID != filter.TeacherPersonID {
			continue
		}
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		if filter.SchoolID != "" {
			c, ok := repo.db.courses[a.CourseID]
			if !ok || c.SchoolID != filter.SchoolID {
				continue
			}
		}
		assignments = append(assignments, *a)
	}
	return assignments, nil
}

func (repo *academicRepository) DeleteAssignment(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assignments[id]; !ok {
		return academic.ErrAssignmentNotFound
	}
	for _, g := range repo.db.grades {
		if g.TeachingAssignmentID == id {
			return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "the assignment still has grades"})
		}
	}
	delete(repo.db.assignments, id)
	for sid, s := range repo.db.slots {
		if s.TeachingAssignmentID == id {
			delete(repo.db.slots, sid)
		}
	}
	return nil
}

// Class groups

func (repo *academicRepository) CreateGroup(ctx context.Context, g academic.ClassGroup) (academic.ClassGroup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *academicRepository) GetGroupByID(ctx context.Context, id string) (academic.ClassGroup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return *g, nil
	}
	return academic.ClassGroup{}, academic.ErrGroupNotFound
}

func (repo *academicRepository) FindGroup(ctx context.Context, campusID, yearID, classroomID, shiftID string) (academic.ClassGroup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, g := range repo.db.groups {
		if g.CampusID == campusID && g.YearID == yearID && g.ClassroomID == classroomID && g.ShiftID == shiftID {
			return *g, nil
		}
	}
	return academic.ClassGroup{}, academic.ErrGroupNotFound
}

func (repo *academicRepository) QueryGroups(ctx context.Context, filter academic.QueryFilter) ([]academic.ClassGroup, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]academic.ClassGroup, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		if filter.CampusID != "" && g.CampusID != filter.CampusID {
			continue
		}
		if filter.YearID != "" && g.YearID != filter.YearID {
			continue
		}
		if filter.SchoolID != "" && repo.db.campusSchoolID(g.CampusID) != filter.SchoolID {
			continue
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

func (repo *academicRepository) UpdateGroup(ctx context.Context, g academic.ClassGroup) (academic.ClassGroup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.groups[g.ID]
	if !ok {
		return academic.ClassGroup{}, academic.ErrGroupNotFound
	}
	// the seat counter moves only through AdjustSeatCount
	g.CurrentSeatCount = orig.CurrentSeatCount
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *academicRepository) DeleteGroup(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.groups[id]; !ok {
		return academic.ErrGroupNotFound
	}
	delete(repo.db.groups, id)
	for sid, s := range repo.db.slots {
		if s.GroupID == id {
			delete(repo.db.slots, sid)
		}
	}
	return nil
}

// Schedule slots

func (repo *academicRepository) CreateSlot(ctx context.Context, s academic.ScheduleSlot) (academic.ScheduleSlot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.slots[s.ID] = &s
	return s, nil
}

func (repo *academicRepository) GetSlotByID(ctx context.Context, id string) (academic.ScheduleSlot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.slots[id]; ok {
		return *s, nil
	}
	return academic.ScheduleSlot{}, academic.ErrSlotNotFound
}

func (repo *academicRepository) FindSlot(ctx context.Context, groupID, weekday, start, end string) (academic.ScheduleSlot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.slots {
		if s.GroupID == groupID && s.Weekday == weekday && s.StartTime == start && s.EndTime == end {
			return *s, nil
		}
	}
	return academic.ScheduleSlot{}, academic.ErrSlotNotFound
}

func (repo *academicRepository) QuerySlots(ctx context.Context, filter academic.QueryFilter) ([]academic.ScheduleSlot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	slots := make([]academic.ScheduleSlot, 0, len(repo.db.slots))
	for _, s := range repo.db.slots {
		if filter.GroupID != "" && s.GroupID != filter.GroupID {
			continue
		}
		if filter.TeacherPersonID != "" {
			ta, ok := repo.db.assignments[s.TeachingAssignmentID]
			if !ok || ta.TeacherPersonID != filter.TeacherPersonID {
				continue
			}
		}
		if filter.SchoolID != "" && repo.db.groupSchoolID(s.GroupID) != filter.SchoolID {
			continue
		}
		slots = append(slots, *s)
	}
	return slots, nil
}

func (repo *academicRepository) QueryGroupSlots(ctx context.Context, groupID, weekday string) ([]academic.ScheduleSlot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var slots []academic.ScheduleSlot
	for _, s := range repo.db.slots {
		if s.GroupID == groupID && s.Weekday == weekday {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}

func (repo *academicRepository) UpdateSlot(ctx context.Context, s academic.ScheduleSlot) (academic.ScheduleSlot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.slots[s.ID]; !ok {
		return academic.ScheduleSlot{}, academic.ErrSlotNotFound
	}
	repo.db.slots[s.ID] = &s
	return s, nil
}

func (repo *academicRepository) DeleteSlot(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.slots[id]; !ok {
		return academic.ErrSlotNotFound
	}
	delete(repo.db.slots, id)
	return nil
}
