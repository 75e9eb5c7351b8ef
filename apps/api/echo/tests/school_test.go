package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
)

func Test_schoolApi_create(t *testing.T) {
	_, globalAcct := f.CreatePersonWithAccount(t, "sch_global", person.RoleGlobalAdmin, "")
	s1 := f.CreateSchool(t, "Existing High", "mc-sch1")
	_, adminAcct := f.CreatePersonWithAccount(t, "sch_admin1", person.RoleSchoolAdmin, s1.ID)

	body := marshalObj(t, school.NewSchool{
		Name:            "Brand New High",
		ModularCode:     "mc-sch-new",
		TaxID:           "tax-sch-new",
		InstitutionType: "private",
		AcademicRegime:  "semester",
		Address:         "3 New St",
	})

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/schools", body: body,
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "school admins do not create tenants", method: http.MethodPost, path: "/v1/schools",
			body: body, token: getToken(t, adminAcct),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "wrong school"}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/schools",
			body: []byte(`{"name": "No Code High"}`), token: getToken(t, globalAcct),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "global admin creates", method: http.MethodPost, path: "/v1/schools",
			body: body, token: getToken(t, globalAcct),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate modular code", method: http.MethodPost, path: "/v1/schools",
			body: body, token: getToken(t, globalAcct),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "a school with this modular code already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_tenantIsolation(t *testing.T) {
	s1 := f.CreateSchool(t, "Isolation High", "mc-iso1")
	s2 := f.CreateSchool(t, "Isolation South", "mc-iso2")
	_, admin1Acct := f.CreatePersonWithAccount(t, "iso_admin1", person.RoleSchoolAdmin, s1.ID)
	_, teacher1Acct := f.CreatePersonWithAccount(t, "iso_teacher1", person.RoleTeacher, s1.ID)
	campus2 := f.CreateCampus(t, s2.ID, "South Main")

	admin1Token := getToken(t, admin1Acct)

	tests := []httpTest{
		{
			name: "own school reads fine", method: http.MethodGet, path: "/v1/schools/" + s1.ID,
			token: admin1Token, wantCode: http.StatusOK, wantData: marshalObj(t, s1),
		},
		{
			name: "teachers read their school", method: http.MethodGet, path: "/v1/schools/" + s1.ID,
			token: getToken(t, teacher1Acct), wantCode: http.StatusOK, wantData: marshalObj(t, s1),
		},
		{
			name: "a foreign school reads as not-found", method: http.MethodGet, path: "/v1/schools/" + s2.ID,
			token: admin1Token, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
		},
		{
			name: "a foreign campus reads as not-found", method: http.MethodGet, path: "/v1/campuses/" + campus2.ID,
			token: admin1Token, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
		},
		{
			name:   "no writing into a foreign campus", method: http.MethodPost, path: "/v1/classrooms",
			body:   marshalObj(t, school.NewClassroom{CampusID: campus2.ID, Name: "X-1", Capacity: 20}),
			token:  admin1Token,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the school list itself is pinned to the actor's tenant
	t.Run("school list is scoped", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools", admin1Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var schools []school.School
		if err := json.Unmarshal(rec.Body.Bytes(), &schools); err != nil {
			t.Fatalf("unmarshalling schools: %v", err)
		}
		if len(schools) != 1 || schools[0].ID != s1.ID {
			t.Errorf("failed! got %v; want only %v", rec.Body.String(), s1.ID)
		}
	})
}

func Test_schoolApi_campusLifecycle(t *testing.T) {
	s1 := f.CreateSchool(t, "Campus High", "mc-cmp1")
	_, adminAcct := f.CreatePersonWithAccount(t, "cmp_admin1", person.RoleSchoolAdmin, s1.ID)
	token := getToken(t, adminAcct)

	// create
	body := marshalObj(t, school.NewCampus{
		SchoolID: s1.ID, Name: "Annex", Address: "4 Side St", District: "Centro", City: "Lima",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/campuses", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var campus school.Campus
	if err := json.Unmarshal(rec.Body.Bytes(), &campus); err != nil {
		t.Fatalf("unmarshalling campus: %v", err)
	}

	// update
	req, rec = newAuthRequest(http.MethodPut, "/v1/campuses/"+campus.ID, token, []byte(`{"name": "Annex B"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}

	// a classroom fits under it
	roomBody := marshalObj(t, school.NewClassroom{CampusID: campus.ID, Name: "B-2", Capacity: 25})
	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms", token, roomBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("classroom: code = %v; want %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// delete
	req, rec = newAuthRequest(http.MethodDelete, "/v1/campuses/"+campus.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: code = %v; want %v; body %v", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/campuses/"+campus.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}
