package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/colegia/backend/apps/api/echo"
	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
	"github.com/colegia/backend/core/enrollment"
	"github.com/colegia/backend/core/person"
	"github.com/colegia/backend/core/school"
	blobsvc "github.com/colegia/backend/services/blobstore"
	emailsvc "github.com/colegia/backend/services/email"
	logsvc "github.com/colegia/backend/services/logger"
	testutil "github.com/colegia/backend/tests"
)

var (
	conf *core.Config
	f    *testutil.Fixture
	app  Server

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		TestMode:        true,
		Env:             "TEST",
		AppName:         "Colegia",
		SecretKey:       "s3cr3t-t3st-k3y",
		DefaultFromName: "Colegia",
		DefaultFromAddr: "noreply@localhost",
		Server: core.ServerConfig{
			JWTExpirationDelta:        1 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up repos & services
	f = testutil.NewFixture()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// set up server
	app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		PersonSvc:      person.NewService(f.PersonRepo, mailSvc, conf),
		SchoolSvc:      school.NewService(f.SchoolRepo, f.Resolver),
		AcademicSvc:    academic.NewService(f.AcademicRepo, f.SchoolRepo, f.PersonRepo, f.Resolver),
		EnrollmentSvc:  enrollment.NewService(f.EnrollmentRepo, f.AcademicRepo, f.PersonRepo, f.Resolver, mailSvc),
		BlobStorage:    blobsvc.NewMemoryStorage(),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, acct person.Account) string {
	t.Helper()
	token, err := GenerateToken(conf, GetAccountClaims(conf, acct))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
