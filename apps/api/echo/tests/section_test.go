package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
	testutil "github.com/trezcool/rekodi/tests"
)

func Test_sectionApi(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "sec-teacher", "sec-teacher@test.cd", "", []string{user.RoleTeacher}, true)
	registrar := testutil.CreateUser(t, usrRepo, "Registrar", "sec-registrar", "sec-registrar@test.cd", "", []string{user.RoleAdminRegistrar}, true)

	teacherToken := getToken(t, teacher)
	registrarToken := getToken(t, registrar)

	t.Run("create is admin only", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		body := marchallObj(t, school.NewSection{Name: "Grade 10 - Oak", GradeLevel: 10, SchoolYear: "2025-2026"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/sections", teacherToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var sec school.Section
	t.Run("admin creates", func(t *testing.T) {
		body := marchallObj(t, school.NewSection{Name: "Grade 10 - Oak", GradeLevel: 10, SchoolYear: "2025-2026", AdviserID: teacher.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/sections", registrarToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &sec); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if sec.Version != 1 {
			t.Errorf("version = %d; want 1", sec.Version)
		}
	})

	t.Run("duplicate name for the school year", func(t *testing.T) {
		body := marchallObj(t, school.NewSection{Name: "Grade 10 - Oak", GradeLevel: 10, SchoolYear: "2025-2026"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/sections", registrarToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("teachers can read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/sections/"+sec.ID, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		body := marchallObj(t, school.UpdateSection{Name: "Grade 10 - Pine", Version: sec.Version + 1})
		req, rec := newAuthRequest(http.MethodPut, "/v1/sections/"+sec.ID, registrarToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusConflict)
		}
	})

	t.Run("update bumps the version", func(t *testing.T) {
		body := marchallObj(t, school.UpdateSection{Name: "Grade 10 - Pine", Version: sec.Version})
		req, rec := newAuthRequest(http.MethodPut, "/v1/sections/"+sec.ID, registrarToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated school.Section
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if updated.Name != "Grade 10 - Pine" {
			t.Errorf("name = %q; want %q", updated.Name, "Grade 10 - Pine")
		}
		if updated.Version != sec.Version+1 {
			t.Errorf("version = %d; want %d", updated.Version, sec.Version+1)
		}
	})

	t.Run("delete refuses a section with packages", func(t *testing.T) {
		busy := testutil.CreateSection(t, secRepo, "Grade 10 - Elm", 10, "2025-2026", teacher.ID)
		testutil.CreatePackage(t, recRepo, busy.ID, 1, teacher.ID, record.StatusPublished)

		req, rec := newAuthRequest(http.MethodDelete, "/v1/sections?id="+busy.ID, registrarToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusConflict)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/sections/"+busy.ID, registrarToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/sections?id="+sec.ID, registrarToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})
}
