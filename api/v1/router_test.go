package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go_netinv/internal/auth"
	"go_netinv/internal/cache"
	"go_netinv/internal/config"
	"go_netinv/internal/devicecmd"
	"go_netinv/internal/devicehealth"
	"go_netinv/internal/fanout"
	"go_netinv/internal/httpx"
	"go_netinv/internal/model"
	"go_netinv/internal/probe"
	"go_netinv/internal/sshexec"
	"go_netinv/internal/store"
	"go_netinv/internal/testutil"
)

const password = "correct-horse"

// reachable hosts answer ICMP and have their SSH port open
type fakeNetwork struct {
	reachable map[string]bool
}

func (f fakeNetwork) Probe(_ context.Context, address string) probe.Liveness {
	if f.reachable[address] {
		return probe.Liveness{Reachable: true}
	}
	return probe.Liveness{Err: &probe.Failure{Op: "icmp", Address: address, Err: errors.New("timeout")}}
}

func (f fakeNetwork) ProbePort(_ context.Context, address string, _ int, _ time.Duration) probe.PortState {
	return probe.PortState{Open: f.reachable[address]}
}

// fakeShell fails every command on unreachable hosts
type fakeShell struct {
	reachable map[string]bool
}

func (f fakeShell) Execute(_ context.Context, t sshexec.Target, command string) sshexec.Result {
	if !f.reachable[t.Host] {
		fail := &sshexec.ExecutionFailure{Stage: sshexec.StageDial, Addr: t.Addr(), Err: errors.New("connection refused")}
		return sshexec.Result{Output: fail.Error(), Err: fail}
	}
	return sshexec.Result{Success: true, Output: "ok: " + command, Stdout: "ok: " + command}
}

type fakeSNMP struct {
	descr string
	err   error
}

func (f fakeSNMP) SysDescr(context.Context, string, int, string) (string, error) {
	return f.descr, f.err
}

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Store
	tokens map[string]string
}

func newTestEnv(t *testing.T, snmp fakeSNMP) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWT("router-test-secret")

	gdb := testutil.NewDB(t)
	st := store.New(gdb)

	pool, err := fanout.New("api-test", 4)
	if err != nil {
		t.Fatalf("creating pool: %v", err)
	}
	t.Cleanup(pool.Release)

	reachable := map[string]bool{"10.0.0.1": true, "10.0.0.3": true}
	redisClient, _ := testutil.NewRedis(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "router-test-secret", ExpireMinutes: 60, Issuer: "netinv"}}

	r := gin.New()
	SetupRouter(r, Deps{
		Config:       cfg,
		Store:        st,
		Reconciler:   devicehealth.NewReconciler(st, fakeNetwork{reachable}, pool, cache.NewStatusCache(redisClient, time.Minute), nil, devicehealth.Options{}),
		Orchestrator: devicecmd.New(st, fakeShell{reachable}, pool, nil),
		Discoverer:   snmp,
	})

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	env := &testEnv{t: t, router: r, store: st, tokens: map[string]string{}}
	for _, role := range []string{model.RoleAdmin, model.RoleEngineer, model.RoleViewer} {
		testutil.SeedUser(t, gdb, role, role, hash)
		env.tokens[role] = env.login(role, password)
	}
	return env
}

func (e *testEnv) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, httpx.Response) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp httpx.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

// data decodes the data field of the last response into out
func (e *testEnv) data(resp httpx.Response, out interface{}) {
	e.t.Helper()
	b, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(b, out); err != nil {
		e.t.Fatalf("decoding data: %v", err)
	}
}

func (e *testEnv) login(username, pw string) string {
	e.t.Helper()
	w, resp := e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": pw})
	if w.Code != http.StatusOK {
		e.t.Fatalf("login %s failed: %d %s", username, w.Code, w.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	e.data(resp, &out)
	return out.Token
}

func (e *testEnv) createDevice(name, ip string) int {
	e.t.Helper()
	w, resp := e.do(http.MethodPost, "/api/v1/devices/create", e.tokens[model.RoleEngineer], gin.H{
		"name": name, "device_type": "router", "ip_address": ip, "vendor": "cisco",
		"ssh_username": "netops", "ssh_password": "pw",
	})
	if w.Code != http.StatusOK {
		e.t.Fatalf("create %s failed: %d %s", name, w.Code, w.Body.String())
	}
	var d model.Device
	e.data(resp, &d)
	return d.ID
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, fakeSNMP{})

	w, resp := env.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	if w.Code != http.StatusUnauthorized || resp.Code != httpx.CodeInvalidToken {
		t.Errorf("Expected 401 for wrong password, got %d/%d", w.Code, resp.Code)
	}

	logs, _, err := env.store.ListAuditLogs(context.Background(), store.AuditFilter{Action: string(model.AuditActionLogin)})
	if err != nil {
		t.Fatalf("ListAuditLogs failed: %v", err)
	}
	// one per successful login in newTestEnv
	if len(logs) != 3 {
		t.Errorf("Expected 3 LOGIN entries, got %d", len(logs))
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, fakeSNMP{})

	_, resp := env.do(http.MethodGet, "/api/v1/me", env.tokens[model.RoleViewer], nil)
	var actor model.Actor
	env.data(resp, &actor)
	if actor.Username != "viewer" || actor.Role != model.RoleViewer {
		t.Errorf("Unexpected actor: %+v", actor)
	}

	if w, _ := env.do(http.MethodGet, "/api/v1/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestDeviceCRUD_Roles(t *testing.T) {
	env := newTestEnv(t, fakeSNMP{})
	body := gin.H{"name": "core-sw-01", "device_type": "switch", "ip_address": "10.0.0.2"}

	if w, _ := env.do(http.MethodPost, "/api/v1/devices/create", env.tokens[model.RoleViewer], body); w.Code != http.StatusForbidden {
		t.Errorf("Expected viewer create to be forbidden, got %d", w.Code)
	}

	w, resp := env.do(http.MethodPost, "/api/v1/devices/create", env.tokens[model.RoleEngineer], body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected engineer create to succeed, got %d %s", w.Code, w.Body.String())
	}
	var created model.Device
	env.data(resp, &created)
	if created.Status != model.DeviceStatusOffline || created.SSHPort != 22 {
		t.Errorf("Expected defaults, got %+v", created)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("ssh_password")) {
		t.Error("Secrets must not be serialized")
	}

	if w, resp := env.do(http.MethodPost, "/api/v1/devices/create", env.tokens[model.RoleEngineer], body); w.Code != http.StatusConflict || resp.Code != httpx.CodeAlreadyExists {
		t.Errorf("Expected 409 on duplicate name, got %d/%d", w.Code, resp.Code)
	}

	bad := gin.H{"name": "x", "device_type": "toaster", "ip_address": "10.0.0.9"}
	if w, _ := env.do(http.MethodPost, "/api/v1/devices/create", env.tokens[model.RoleAdmin], bad); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid type, got %d", w.Code)
	}

	w, resp = env.do(http.MethodPost, "/api/v1/devices/update", env.tokens[model.RoleEngineer], gin.H{"id": created.ID, "status": "maintenance", "location": "dc1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Update failed: %d %s", w.Code, w.Body.String())
	}
	var updated model.Device
	env.data(resp, &updated)
	if updated.Status != model.DeviceStatusMaintenance || updated.Location != "dc1" {
		t.Errorf("Unexpected update result: %+v", updated)
	}

	w, _ = env.do(http.MethodGet, "/api/v1/devices?status=maintenance&pageSize=5", env.tokens[model.RoleViewer], nil)
	var list httpx.ListData
	json.Unmarshal(w.Body.Bytes(), &struct {
		Data *httpx.ListData `json:"data"`
	}{&list})
	if list.Total != 1 || list.PageSize != 5 {
		t.Errorf("Unexpected list: %+v", list)
	}

	deleteBody := gin.H{"ids": []int{created.ID}}
	if w, _ := env.do(http.MethodPost, "/api/v1/devices/delete", env.tokens[model.RoleEngineer], deleteBody); w.Code != http.StatusForbidden {
		t.Errorf("Expected engineer delete to be forbidden, got %d", w.Code)
	}
	if w, _ := env.do(http.MethodPost, "/api/v1/devices/delete", env.tokens[model.RoleAdmin], deleteBody); w.Code != http.StatusOK {
		t.Errorf("Expected admin delete to succeed, got %d", w.Code)
	}
	if w, _ := env.do(http.MethodGet, "/api/v1/devices/"+strconv.Itoa(created.ID), env.tokens[model.RoleViewer], nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}

	for _, action := range []model.AuditAction{model.AuditActionCreate, model.AuditActionUpdate, model.AuditActionDelete} {
		logs, _, _ := env.store.ListAuditLogs(context.Background(), store.AuditFilter{Action: string(action)})
		if len(logs) != 1 {
			t.Errorf("Expected 1 %s audit entry, got %d", action, len(logs))
		}
	}
}

func TestStatusEndpoints(t *testing.T) {
	env := newTestEnv(t, fakeSNMP{})
	up := env.createDevice("up", "10.0.0.1")
	down := env.createDevice("down", "10.0.0.2")

	w, resp := env.do(http.MethodPost, "/api/v1/devices/ping", env.tokens[model.RoleViewer], gin.H{"device_id": up})
	if w.Code != http.StatusOK {
		t.Fatalf("Ping failed: %d %s", w.Code, w.Body.String())
	}
	var ping devicehealth.PingResult
	env.data(resp, &ping)
	if !ping.IsReachable || ping.DeviceName != "up" || ping.IPAddress != "10.0.0.1" {
		t.Errorf("Unexpected ping result: %+v", ping)
	}

	if w, _ := env.do(http.MethodPost, "/api/v1/devices/ping", env.tokens[model.RoleViewer], gin.H{"device_id": 9999}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown device, got %d", w.Code)
	}

	w, resp = env.do(http.MethodPost, "/api/v1/devices/update-status", env.tokens[model.RoleViewer], nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update-status failed: %d %s", w.Code, w.Body.String())
	}
	var msg struct {
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}
	env.data(resp, &msg)
	if msg.Message == "" || msg.Timestamp.IsZero() {
		t.Errorf("Unexpected update-status payload: %+v", msg)
	}

	d, _ := env.store.GetDevice(context.Background(), down)
	if d.Status != model.DeviceStatusOffline || d.LastSeen == nil {
		t.Errorf("Expected down device offline with last_seen, got %+v", d)
	}

	w, resp = env.do(http.MethodGet, "/api/v1/devices/"+strconv.Itoa(down)+"/status", env.tokens[model.RoleViewer], nil)
	if w.Code != http.StatusOK {
		t.Fatalf("device status failed: %d %s", w.Code, w.Body.String())
	}
	var status devicehealth.DeviceStatus
	env.data(resp, &status)
	if status.Status != model.DeviceStatusOffline || status.LastObservation == nil {
		t.Fatalf("Expected offline with an observation, got %+v", status)
	}
	if status.LastObservation.Reachable || status.LastObservation.Error == "" {
		t.Errorf("Unexpected observation for unreachable device: %+v", status.LastObservation)
	}

	if w, _ := env.do(http.MethodGet, "/api/v1/devices/9999/status", env.tokens[model.RoleViewer], nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown device status, got %d", w.Code)
	}

	_, resp = env.do(http.MethodGet, "/api/v1/devices/statistics", env.tokens[model.RoleViewer], nil)
	var stats map[string]interface{}
	env.data(resp, &stats)
	for _, key := range []string{"total", "online", "offline", "maintenance", "error", "device_types_breakdown", "vendors_breakdown", "uptime_percentage"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Statistics missing key %q", key)
		}
	}
	if stats["uptime_percentage"] != 50.0 {
		t.Errorf("Expected uptime 50, got %v", stats["uptime_percentage"])
	}
}

func TestCommandEndpoints(t *testing.T) {
	env := newTestEnv(t, fakeSNMP{})
	a := env.createDevice("a", "10.0.0.1")
	b := env.createDevice("b", "10.0.0.2")
	c := env.createDevice("c", "10.0.0.3")

	if w, _ := env.do(http.MethodPost, "/api/v1/devices/bulk-command", env.tokens[model.RoleViewer], gin.H{"command": "show version", "device_ids": []int{a}}); w.Code != http.StatusForbidden {
		t.Errorf("Expected viewer bulk command to be forbidden, got %d", w.Code)
	}
	if w, _ := env.do(http.MethodPost, "/api/v1/devices/bulk-command", env.tokens[model.RoleEngineer], gin.H{"command": "show version", "device_ids": []int{}}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty device_ids, got %d", w.Code)
	}

	w, resp := env.do(http.MethodPost, "/api/v1/devices/bulk-command", env.tokens[model.RoleEngineer], gin.H{
		"command":    "show version",
		"device_ids": []int{a, b, 777, c},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk-command failed: %d %s", w.Code, w.Body.String())
	}
	var bulk struct {
		Results []devicecmd.BulkResult `json:"results"`
	}
	env.data(resp, &bulk)
	if len(bulk.Results) != 3 {
		t.Fatalf("Expected 3 results, got %+v", bulk.Results)
	}
	wantStatus := []model.CommandStatus{model.CommandStatusCompleted, model.CommandStatusFailed, model.CommandStatusCompleted}
	for i, r := range bulk.Results {
		if r.Status != wantStatus[i] {
			t.Errorf("Result %d (%s): expected %s, got %s", i, r.DeviceName, wantStatus[i], r.Status)
		}
	}

	w, resp = env.do(http.MethodPost, "/api/v1/devices/"+strconv.Itoa(a)+"/commands", env.tokens[model.RoleAdmin], gin.H{"command": "show clock"})
	if w.Code != http.StatusOK {
		t.Fatalf("command failed: %d %s", w.Code, w.Body.String())
	}
	var rec model.DeviceCommand
	env.data(resp, &rec)
	if rec.Status != model.CommandStatusCompleted || rec.Output != "ok: show clock" {
		t.Errorf("Unexpected command record: %+v", rec)
	}

	if w, _ := env.do(http.MethodPost, "/api/v1/devices/9999/commands", env.tokens[model.RoleAdmin], gin.H{"command": "x"}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown device, got %d", w.Code)
	}

	_, resp = env.do(http.MethodGet, "/api/v1/devices/"+strconv.Itoa(a)+"/commands", env.tokens[model.RoleEngineer], nil)
	var history struct {
		Items []model.DeviceCommand `json:"items"`
	}
	env.data(resp, &history)
	if len(history.Items) != 2 || history.Items[0].Command != "show clock" {
		t.Errorf("Unexpected history: %+v", history.Items)
	}

	w, resp = env.do(http.MethodPost, "/api/v1/devices/"+strconv.Itoa(a)+"/configurations", env.tokens[model.RoleEngineer], gin.H{
		"config_name": "baseline", "config_content": "hostname a",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("configuration failed: %d %s", w.Code, w.Body.String())
	}
	var cfg model.DeviceConfiguration
	env.data(resp, &cfg)
	if cfg.BackupConfig != "ok: show running-config" || !cfg.IsActive {
		t.Errorf("Unexpected configuration: %+v", cfg)
	}

	logs, _, _ := env.store.ListAuditLogs(context.Background(), store.AuditFilter{Action: string(model.AuditActionExecute)})
	if len(logs) != 2 {
		t.Errorf("Expected 2 EXECUTE audit entries, got %d", len(logs))
	}
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name       string
		snmp       fakeSNMP
		community  string
		wantStatus int
	}{
		{"ok", fakeSNMP{descr: "Cisco IOS XE 17.9"}, "public", http.StatusOK},
		{"no community", fakeSNMP{descr: "x"}, "", http.StatusBadRequest},
		{"snmp timeout", fakeSNMP{err: errors.New("request timeout")}, "public", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.snmp)
			w, resp := env.do(http.MethodPost, "/api/v1/devices/create", env.tokens[model.RoleAdmin], gin.H{
				"name": "r1", "device_type": "router", "ip_address": "10.0.0.1", "snmp_community": tt.community,
			})
			var d model.Device
			env.data(resp, &d)

			w, _ = env.do(http.MethodPost, "/api/v1/devices/"+strconv.Itoa(d.ID)+"/discover", env.tokens[model.RoleEngineer], nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				got, _ := env.store.GetDevice(context.Background(), d.ID)
				if got.SysDescr != tt.snmp.descr || got.DiscoveredAt == nil {
					t.Errorf("Expected discovery stored, got %+v", got)
				}
			}
		})
	}
}

func TestAuditLogs_Visibility(t *testing.T) {
	env := newTestEnv(t, fakeSNMP{})
	env.createDevice("r1", "10.0.0.1")

	count := func(role string) int64 {
		_, resp := env.do(http.MethodGet, "/api/v1/audit/logs", env.tokens[role], nil)
		var list httpx.ListData
		env.data(resp, &list)
		return list.Total
	}

	// 3 logins + 1 create by engineer
	if got := count(model.RoleAdmin); got != 4 {
		t.Errorf("Expected admin to see 4 entries, got %d", got)
	}
	if got := count(model.RoleEngineer); got != 2 {
		t.Errorf("Expected engineer to see 2 entries, got %d", got)
	}
	if got := count(model.RoleViewer); got != 1 {
		t.Errorf("Expected viewer to see 1 entry, got %d", got)
	}
}
