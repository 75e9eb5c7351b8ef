package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/colegia/backend/apps/api/echo"
	"github.com/colegia/backend/core/person"
)

func Test_personApi_login(t *testing.T) {
	s := f.CreateSchool(t, "Login High", "mc-login")
	_, acct := f.CreatePersonWithAccount(t, "login_admin", person.RoleSchoolAdmin, s.ID)

	tests := []httpTest{
		{
			name: "empty credentials", method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown username", method: http.MethodPost, path: "/v1/auth/login",
			body:     []byte(`{"username": "whodis", "password": "Sup3rSecret!"}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body:     []byte(`{"username": "login_admin", "password": "nope nope"}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "invalid credentials"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("login ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login",
			[]byte(`{"username": "login_admin", "password": "Sup3rSecret!"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling LoginResponse: %v", err)
		}
		if resp.Token == "" {
			t.Error("failed! empty token")
		}

		// the token opens authenticated routes
		req, rec = newAuthRequest(http.MethodGet, "/v1/persons/"+acct.PersonID, resp.Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusOK)
		}
	})
}

func Test_personApi_register(t *testing.T) {
	s1 := f.CreateSchool(t, "Register High", "mc-reg1")
	s2 := f.CreateSchool(t, "Register South", "mc-reg2")
	_, globalAcct := f.CreatePersonWithAccount(t, "reg_global", person.RoleGlobalAdmin, "")
	_, adminAcct := f.CreatePersonWithAccount(t, "reg_admin1", person.RoleSchoolAdmin, s1.ID)
	_, teacherAcct := f.CreatePersonWithAccount(t, "reg_teacher", person.RoleTeacher, s1.ID)

	regBody := func(username, role, homeSchoolID string) []byte {
		return marshalObj(t, map[string]interface{}{
			"person": map[string]interface{}{
				"first_name":  "New",
				"last_name":   username,
				"national_id": "nid-" + username,
			},
			"username":       username,
			"password":       "Sup3rSecret!",
			"role":           role,
			"home_school_id": homeSchoolID,
		})
	}

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/persons",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodPost, path: "/v1/persons",
			token:    getToken(t, teacherAcct),
			body:     regBody("reg_s1", person.RoleStudent, s1.ID),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "school admin cannot mint global admins", method: http.MethodPost, path: "/v1/persons",
			token:    getToken(t, adminAcct),
			body:     regBody("reg_g2", person.RoleGlobalAdmin, ""),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "school admin cannot register into a foreign school", method: http.MethodPost, path: "/v1/persons",
			token:    getToken(t, adminAcct),
			body:     regBody("reg_s2", person.RoleStudent, s2.ID),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "school admin registers a student at home", method: http.MethodPost, path: "/v1/persons",
			token:    getToken(t, adminAcct),
			body:     regBody("reg_s3", person.RoleStudent, s1.ID),
			wantCode: http.StatusCreated,
		},
		{
			name: "global admin registers anywhere", method: http.MethodPost, path: "/v1/persons",
			token:    getToken(t, globalAcct),
			body:     regBody("reg_s4", person.RoleTeacher, s2.ID),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate national id", method: http.MethodPost, path: "/v1/persons",
			token:    getToken(t, globalAcct),
			body:     regBody("reg_s4", person.RoleTeacher, s2.ID),
			wantCode: http.StatusBadRequest,
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

func Test_personApi_retrieve(t *testing.T) {
	s1 := f.CreateSchool(t, "Retrieve High", "mc-ret1")
	s2 := f.CreateSchool(t, "Retrieve South", "mc-ret2")
	_, adminAcct := f.CreatePersonWithAccount(t, "ret_admin1", person.RoleSchoolAdmin, s1.ID)
	stud1, stud1Acct := f.CreatePersonWithAccount(t, "ret_stud1", person.RoleStudent, s1.ID)
	stud2, _ := f.CreatePersonWithAccount(t, "ret_stud2", person.RoleStudent, s2.ID)

	tests := []httpTest{
		{
			name: "own record", method: http.MethodGet, path: "/v1/persons/" + stud1.ID,
			token: getToken(t, stud1Acct), wantCode: http.StatusOK, wantData: marshalObj(t, stud1),
		},
		{
			name: "student probing another record reads not-found", method: http.MethodGet,
			path:  "/v1/persons/" + stud2.ID,
			token: getToken(t, stud1Acct), wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
		},
		{
			name: "school admin reads home records", method: http.MethodGet, path: "/v1/persons/" + stud1.ID,
			token: getToken(t, adminAcct), wantCode: http.StatusOK, wantData: marshalObj(t, stud1),
		},
		{
			name: "school admin probing a foreign record reads not-found", method: http.MethodGet,
			path:  "/v1/persons/" + stud2.ID,
			token: getToken(t, adminAcct), wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound),
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

func Test_personApi_query(t *testing.T) {
	s1 := f.CreateSchool(t, "Query High", "mc-qry1")
	s2 := f.CreateSchool(t, "Query South", "mc-qry2")
	_, adminAcct := f.CreatePersonWithAccount(t, "qry_admin1", person.RoleSchoolAdmin, s1.ID)
	f.CreatePersonWithAccount(t, "qry_stud1", person.RoleStudent, s1.ID)
	f.CreatePersonWithAccount(t, "qry_stud2", person.RoleStudent, s2.ID)

	token := getToken(t, adminAcct)

	// a school admin's directory is pinned to their home school, even when the
	// filter asks for another one
	req, rec := newAuthRequest(http.MethodGet, "/v1/persons?home_school_id="+s2.ID+"&role=student", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; want %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var persons []person.Person
	if err := json.Unmarshal(rec.Body.Bytes(), &persons); err != nil {
		t.Fatalf("unmarshalling persons: %v", err)
	}
	if len(persons) != 1 {
		t.Fatalf("failed! got %d persons; want 1", len(persons))
	}
	if persons[0].LastName != "qry_stud1" {
		t.Errorf("failed! got %q; want %q", persons[0].LastName, "qry_stud1")
	}
}
