package scope

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
)

var (
	globalAdmin = Actor{PersonID: "p-global", Role: person.RoleGlobalAdmin}
	admin1      = Actor{PersonID: "p-admin1", Role: person.RoleSchoolAdmin, HomeSchoolID: "school1"}
	teacher1    = Actor{PersonID: "p-teacher1", Role: person.RoleTeacher, HomeSchoolID: "school1"}
	student1    = Actor{PersonID: "p-student1", Role: person.RoleStudent, HomeSchoolID: "school1"}
)

func TestAuthorize(t *testing.T) {
	school1 := Scope{SchoolID: "school1"}
	school2 := Scope{SchoolID: "school2"}
	ownedByTeacher1 := Scope{SchoolID: "school1", TeacherPersonID: "p-teacher1"}
	ownedByTeacher2 := Scope{SchoolID: "school1", TeacherPersonID: "p-teacher2"}
	ownedElsewhere := Scope{SchoolID: "school2", TeacherPersonID: "p-teacher1"}
	recordedByTeacher1 := Scope{SchoolID: "school1", StudentPersonID: "p-student2", RecorderPersonID: "p-teacher1"}
	recordedByTeacher2 := Scope{SchoolID: "school1", StudentPersonID: "p-student2", RecorderPersonID: "p-teacher2"}
	ownedByStudent1 := Scope{SchoolID: "school1", StudentPersonID: "p-student1"}
	ownedByStudent2 := Scope{SchoolID: "school1", StudentPersonID: "p-student2"}
	catalog := Scope{}

	tests := []struct {
		name     string
		actor    Actor
		action   Action
		sc       Scope
		wantKind core.Kind
		wantOK   bool
	}{
		{name: "global admin writes anywhere", actor: globalAdmin, action: ActionWrite, sc: school2, wantOK: true},
		{name: "global admin writes catalogs", actor: globalAdmin, action: ActionWrite, sc: catalog, wantOK: true},

		{name: "school admin writes own school", actor: admin1, action: ActionWrite, sc: school1, wantOK: true},
		{name: "school admin reads own school", actor: admin1, action: ActionRead, sc: school1, wantOK: true},
		{name: "school admin denied other school", actor: admin1, action: ActionWrite, sc: school2, wantKind: core.KindDenied},
		{name: "school admin denied catalogs", actor: admin1, action: ActionWrite, sc: catalog, wantKind: core.KindDenied},

		{name: "teacher writes owned", actor: teacher1, action: ActionWrite, sc: ownedByTeacher1, wantOK: true},
		{name: "teacher denied foreign-owned", actor: teacher1, action: ActionWrite, sc: ownedByTeacher2, wantKind: core.KindDenied},
		{name: "teacher denied owned entity in other school", actor: teacher1, action: ActionWrite, sc: ownedElsewhere, wantKind: core.KindDenied},
		{name: "teacher corrects mark they recorded", actor: teacher1, action: ActionWrite, sc: recordedByTeacher1, wantOK: true},
		{name: "teacher denied correcting another recorder's mark", actor: teacher1, action: ActionWrite, sc: recordedByTeacher2, wantKind: core.KindDenied},
		{name: "teacher reads own school", actor: teacher1, action: ActionRead, sc: school1, wantOK: true},
		{name: "teacher denied write on school", actor: teacher1, action: ActionWrite, sc: school1, wantKind: core.KindDenied},
		{name: "teacher denied read other school", actor: teacher1, action: ActionRead, sc: school2, wantKind: core.KindDenied},

		{name: "student reads own record", actor: student1, action: ActionRead, sc: ownedByStudent1, wantOK: true},
		{name: "student writes own record", actor: student1, action: ActionWrite, sc: ownedByStudent1, wantOK: true},
		{name: "student denied foreign record", actor: student1, action: ActionRead, sc: ownedByStudent2, wantKind: core.KindDenied},
		{name: "student denied school-level read", actor: student1, action: ActionRead, sc: school1, wantKind: core.KindDenied},

		{name: "unknown role denied", actor: Actor{Role: "janitor"}, action: ActionRead, sc: school1, wantKind: core.KindDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.sc)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.wantKind, core.KindOf(err))
		})
	}
}

type stubResolver struct {
	sc  Scope
	err error
}

func (r stubResolver) ResolveSchool(ctx context.Context, entity Entity, id string) (string, error) {
	return r.sc.SchoolID, r.err
}

func (r stubResolver) Resolve(ctx context.Context, entity Entity, id string) (Scope, error) {
	return r.sc, r.err
}

func TestCheck_masksCrossTenantDenials(t *testing.T) {
	ctx := context.Background()

	// a school1 admin probing a school2 entity sees not-found, not forbidden
	r := stubResolver{sc: Scope{SchoolID: "school2"}}
	_, err := Check(ctx, r, admin1, ActionWrite, EntityCampus, "c1")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))

	// a same-school denial stays explicit
	r = stubResolver{sc: Scope{SchoolID: "school1", StudentPersonID: "p-student2"}}
	_, err = Check(ctx, r, student1, ActionRead, EntityEnrollment, "e1")
	assert.Equal(t, core.KindDenied, core.KindOf(err))

	// resolver failures pass through untouched
	boom := errors.New("boom")
	_, err = Check(ctx, stubResolver{err: boom}, globalAdmin, ActionRead, EntitySchool, "s1")
	assert.Equal(t, boom, errors.Cause(err))
}

func TestCheckSchool(t *testing.T) {
	assert.NoError(t, CheckSchool(admin1, ActionWrite, "school1"))
	assert.Equal(t, core.KindNotFound, core.KindOf(CheckSchool(admin1, ActionWrite, "school2")))
	assert.NoError(t, CheckSchool(globalAdmin, ActionWrite, "school2"))
}
