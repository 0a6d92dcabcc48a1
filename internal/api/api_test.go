package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cpupd-dev/cpupd/internal/app/power"
	"github.com/cpupd-dev/cpupd/internal/domain"
	"github.com/cpupd-dev/cpupd/internal/infra/sqlite"
	"github.com/cpupd-dev/cpupd/internal/platform"
	"github.com/cpupd-dev/cpupd/internal/topology"
)

func newTestHandler(t *testing.T, db *sqlite.DB) (http.Handler, *power.Service) {
	t.Helper()

	model := domain.CostModel{
		Idle: []domain.IdleState{
			{Power: 56},
			{Power: 17, MinResidency: 100 * time.Microsecond, Param: 0x1010000},
		},
		Capacity: []domain.CapacityState{{Capacity: 447, Power: 57}},
	}
	desc, err := topology.New([]topology.Node{
		{Name: "soc", Cost: model},
		{Name: "cluster0", Parent: "soc", Cost: model},
	}, map[int]string{0: "cluster0", 1: "cluster0"})
	if err != nil {
		t.Fatalf("topology.New: %v", err)
	}

	svc := power.NewService(power.Config{
		Description: desc,
		Ops:         (&platform.Recorder{}).Ops(),
		DB:          db,
		Tolerance:   50 * time.Microsecond,
	})
	if err := svc.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := svc.AttachAll(); err != nil {
		t.Fatalf("AttachAll: %v", err)
	}
	return NewServer(svc).Handler(), svc
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("response %q is not JSON: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestAPI_HealthAndStatus(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, out := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("health = %d %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	if out["domains"].(float64) != 2 {
		t.Errorf("domains = %v, want 2", out["domains"])
	}
	if out["tolerance_us"].(float64) != 50 {
		t.Errorf("tolerance_us = %v, want 50", out["tolerance_us"])
	}
}

func TestAPI_Domains(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, out := doJSON(t, h, http.MethodGet, "/api/domains", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if n := len(out["domains"].([]any)); n != 2 {
		t.Errorf("domains listed = %d, want 2", n)
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/domains/cluster0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["parent"] != "soc" {
		t.Errorf("cluster0 parent = %v, want soc", out["parent"])
	}
	if n := len(out["members"].([]any)); n != 2 {
		t.Errorf("members = %v, want 2 CPUs", out["members"])
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/domains/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown domain code = %d, want 404", rec.Code)
	}
}

func TestAPI_AdmitLive(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, out := doJSON(t, h, http.MethodPost, "/api/domains/cluster0/admit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["admit"] != true || out["selected_state"].(float64) != 1 {
		t.Errorf("decision = %v, want admit at state 1", out)
	}
}

func TestAPI_AdmitWithOverrides(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	// The deep state needs 100us; a 50us wakeup window vetoes it.
	body := `{"tolerance_us": 50, "wakeups": [{"cpu": 0, "in_us": 50}]}`
	rec, out := doJSON(t, h, http.MethodPost, "/api/domains/cluster0/admit", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["admit"] != false {
		t.Errorf("decision = %v, want veto in a 50us window", out)
	}

	body = `{"tolerance_us": 50, "wakeups": [{"cpu": 0, "in_us": 50}], "offline": [0]}`
	rec, out = doJSON(t, h, http.MethodPost, "/api/domains/cluster0/admit", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["admit"] != true {
		t.Errorf("decision = %v, want admit with constraining CPU offline", out)
	}
}

func TestAPI_PowerOffAndJournal(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	defer db.Close()
	h, _ := newTestHandler(t, db)

	rec, out := doJSON(t, h, http.MethodPost, "/api/domains/cluster0/power_off", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %v", rec.Code, out)
	}
	if out["admit"] != true || out["status"].(float64) != 0 {
		t.Errorf("power_off = %v", out)
	}

	rec, out = doJSON(t, h, http.MethodGet, "/api/transitions?domain=cluster0&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if n := len(out["transitions"].([]any)); n != 1 {
		t.Errorf("journal entries = %d, want 1", n)
	}
}

func TestAPI_PowerOffVetoed(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	svc.SetTolerance(0)

	rec, out := doJSON(t, h, http.MethodPost, "/api/domains/cluster0/power_off", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", rec.Code)
	}
	if out["admit"] != false {
		t.Errorf("body = %v", out)
	}
}

func TestAPI_Tolerance(t *testing.T) {
	h, svc := newTestHandler(t, nil)

	rec, _ := doJSON(t, h, http.MethodPut, "/api/tolerance", `{"tolerance_us": 200}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if got := svc.Tolerance(); got != 200*time.Microsecond {
		t.Errorf("tolerance = %v, want 200us", got)
	}

	rec, out := doJSON(t, h, http.MethodGet, "/api/tolerance", "")
	if rec.Code != http.StatusOK || out["tolerance_us"].(float64) != 200 {
		t.Errorf("get tolerance = %d %v", rec.Code, out)
	}

	rec, _ = doJSON(t, h, http.MethodPut, "/api/tolerance", `{"tolerance_us": -1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative tolerance code = %d, want 400", rec.Code)
	}
}

func TestAPI_CpuStateFeedsLiveAdmission(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	// Elapsed wakeup on a member CPU closes the live window.
	rec, _ := doJSON(t, h, http.MethodPost, "/api/cpus/0/wakeup", `{"in_us": -10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set wakeup code = %d", rec.Code)
	}
	rec, out := doJSON(t, h, http.MethodPost, "/api/domains/cluster0/admit", "")
	if rec.Code != http.StatusOK || out["admit"] != false {
		t.Errorf("decision = %d %v, want veto with elapsed wakeup", rec.Code, out)
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/cpus/0/wakeup", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear wakeup code = %d", rec.Code)
	}
	rec, out = doJSON(t, h, http.MethodPost, "/api/domains/cluster0/admit", "")
	if rec.Code != http.StatusOK || out["admit"] != true {
		t.Errorf("decision = %d %v, want admit after clearing wakeup", rec.Code, out)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/cpus/9/online", `{"online": "no"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad online body code = %d, want 400", rec.Code)
	}
}
