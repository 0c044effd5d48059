package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/rekodi/apps/api/echo"
	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/schedule"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
	emailsvc "github.com/trezcool/rekodi/services/email"
	dummydb "github.com/trezcool/rekodi/storage/database/dummy"
)

var (
	app Server

	usrRepo   user.Repository
	secRepo   school.Repository
	recRepo   record.Repository
	schedRepo schedule.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf := &core.Config{
		AppName:          "Rekodi",
		TestMode:         true,
		SecretKey:        []byte("secret"),
		DefaultFromEmail: mail.Address{Address: "noreply@test.cd"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        1 * time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
	}

	db, err := dummydb.Open()
	if err != nil {
		os.Exit(1)
	}
	usrRepo = dummydb.NewUserRepository(db)
	secRepo = dummydb.NewSectionRepository(db)
	recRepo = dummydb.NewRecordRepository(db)
	schedRepo = dummydb.NewScheduleRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(nil, usrRepo, mailSvc, conf)
	secSvc := school.NewService(nil, secRepo, recRepo)
	recSvc := record.NewService(nil, recRepo, secSvc, usrSvc, mailSvc, conf)
	schedSvc := schedule.NewService(nil, schedRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	app = NewServer(ServerDeps{
		Conf:        conf,
		UserSvc:     usrSvc,
		SectionSvc:  secSvc,
		RecordSvc:   recSvc,
		ScheduleSvc: schedSvc,
		Validate:    validate,
		Translator:  translator,
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
	extra    interface{}
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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
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
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
