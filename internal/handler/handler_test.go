package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"komagene-kasa/internal/ledger"
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/service"
	"komagene-kasa/internal/store"
	"komagene-kasa/internal/syncer"
	"komagene-kasa/internal/ws"
	"komagene-kasa/pkg/kv"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC) }

type fakeRemote struct {
	fail bool
}

func (f *fakeRemote) err() error {
	if f.fail {
		return errors.New("remote unavailable")
	}
	return nil
}

func (f *fakeRemote) UpsertRecord(context.Context, model.DailyRecord) error { return f.err() }
func (f *fakeRemote) UpsertLedger(context.Context, model.LedgerItem) error  { return f.err() }
func (f *fakeRemote) DeleteRecord(context.Context, string, string) error    { return f.err() }
func (f *fakeRemote) DeleteLedger(context.Context, string, string) error    { return f.err() }
func (f *fakeRemote) FetchRecords(context.Context, string) ([]model.DailyRecord, error) {
	return nil, f.err()
}
func (f *fakeRemote) FetchLedgers(context.Context, string) ([]model.LedgerItem, error) {
	return nil, f.err()
}

type testEnv struct {
	app    *fiber.App
	store  *store.Store
	remote *fakeRemote
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.New(kv.NewMemory(), store.Options{Now: fixedNow})
	if err := st.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	remote := &fakeRemote{}

	records := NewRecordHandler(service.NewRecordService(st, fixedNow))
	credits := NewCreditHandler(service.NewCreditService(st, fixedNow))
	reports := NewReportHandler(service.NewReportService(st, 0, fixedNow), fixedNow)
	backups := NewBackupHandler(service.NewBackupService(st, nil, fixedNow), fixedNow)
	settings := NewSettingsHandler(st)
	orders := NewOrderHandler(service.NewOrderService(st, nil, nil, fixedNow))
	syncs := NewSyncHandler(syncer.New(st, remote, nil), nil)

	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", "00000000-0000-0000-0000-000000000001")
		c.Locals("branch_id", "b1")
		return c.Next()
	})
	api.Get("/records", records.List)
	api.Post("/records", records.Create)
	api.Get("/records/:id", records.Get)
	api.Put("/records/:id", records.Update)
	api.Delete("/records/:id", records.Delete)
	api.Post("/records/:id/close", records.Close)
	api.Get("/ledgers", credits.List)
	api.Post("/ledgers", credits.Create)
	api.Delete("/ledgers/:id", credits.Delete)
	api.Post("/ledgers/:id/pay", credits.Pay)
	api.Get("/reports/summary", reports.Summary)
	api.Get("/reports/forecast", reports.Forecast)
	api.Get("/reports/export.csv", reports.ExportCSV)
	api.Get("/backup", backups.Download)
	api.Post("/backup/restore", backups.Restore)
	api.Get("/settings", settings.Get)
	api.Put("/settings", settings.Update)
	api.Post("/orders/import", orders.Import)
	api.Get("/sync/status", syncs.Status)
	api.Post("/sync/push", syncs.Push)
	api.Post("/sync/pull", syncs.Pull)

	return &testEnv{app: app, store: st, remote: remote}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, out
}

func TestRecordRoutes(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, "POST", "/api/v1/records",
		`{"date":"2024-03-09","income":{"cash":"1250,50","creditCard":300,"online":{"getir":null}},"expenses":[{"category":"supplier","amount":200}]}`)
	if resp.StatusCode != 201 {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]interface{})
	id := data["id"].(string)
	income := data["income"].(map[string]interface{})
	if income["cash"].(float64) != 1250.5 {
		t.Errorf("cash = %v, want 1250.5", income["cash"])
	}

	resp, _ = e.do(t, "PUT", "/api/v1/records/"+id, `{"date":"2024-03-09","note":"kasa sayıldı"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("update status = %d", resp.StatusCode)
	}

	resp, _ = e.do(t, "POST", "/api/v1/records/"+id+"/close", "")
	if resp.StatusCode != 200 {
		t.Fatalf("close status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, "PUT", "/api/v1/records/"+id, `{"date":"2024-03-09","note":"again"}`)
	if resp.StatusCode != 409 {
		t.Errorf("edit of closed record status = %d, want 409", resp.StatusCode)
	}

	resp, _ = e.do(t, "GET", "/api/v1/records/missing", "")
	if resp.StatusCode != 404 {
		t.Errorf("missing record status = %d, want 404", resp.StatusCode)
	}

	resp, body = e.do(t, "GET", "/api/v1/records?start=2024-03-01&sort=netProfit&dir=desc", "")
	if resp.StatusCode != 200 || body["count"].(float64) != 1 {
		t.Errorf("list status = %d, body %v", resp.StatusCode, body)
	}

	resp, _ = e.do(t, "GET", "/api/v1/records?sort=mood", "")
	if resp.StatusCode != 400 {
		t.Errorf("bad sort status = %d, want 400", resp.StatusCode)
	}

	resp, _ = e.do(t, "POST", "/api/v1/records", `{"date":"2024-03-09","expenses":[{"category":"fun","amount":1}]}`)
	if resp.StatusCode != 400 {
		t.Errorf("bad category status = %d, want 400", resp.StatusCode)
	}

	resp, _ = e.do(t, "DELETE", "/api/v1/records/"+id, "")
	if resp.StatusCode != 200 {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}

func TestLedgerRoutes_PayMovesIntoCash(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, "POST", "/api/v1/ledgers", `{"customer":"Mehmet Abi","amount":"90"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	id := body["data"].(map[string]interface{})["id"].(string)

	resp, body = e.do(t, "POST", "/api/v1/ledgers/"+id+"/pay", `{"date":"2024-03-08"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("pay status = %d, body %v", resp.StatusCode, body)
	}
	rec := body["data"].(map[string]interface{})
	if rec["date"] != "2024-03-08" || rec["income"].(map[string]interface{})["cash"].(float64) != 90 {
		t.Errorf("paid into %v", rec)
	}

	resp, _ = e.do(t, "POST", "/api/v1/ledgers/"+id+"/pay", "")
	if resp.StatusCode != 404 {
		t.Errorf("second pay status = %d, want 404", resp.StatusCode)
	}

	_, body = e.do(t, "GET", "/api/v1/ledgers", "")
	if body["count"].(float64) != 0 {
		t.Errorf("open tabs = %v", body)
	}
}

func TestReportRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/v1/records", `{"date":"2024-03-01","income":{"cash":100}}`)
	e.do(t, "POST", "/api/v1/records", `{"date":"2024-03-02","income":{"cash":300}}`)

	resp, body := e.do(t, "GET", "/api/v1/reports/summary", "")
	if resp.StatusCode != 200 || body["totalIncome"].(float64) != 400 || body["averageNet"].(float64) != 200 {
		t.Errorf("summary status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = e.do(t, "GET", "/api/v1/reports/forecast", "")
	if resp.StatusCode != 200 || body["trend"] != string(ledger.TrendUp) {
		t.Errorf("forecast status = %d, body %v", resp.StatusCode, body)
	}
	resp, _ = e.do(t, "GET", "/api/v1/reports/forecast?window=1", "")
	if resp.StatusCode != 400 {
		t.Errorf("window=1 status = %d, want 400", resp.StatusCode)
	}

	resp, _ = e.do(t, "GET", "/api/v1/reports/export.csv", "")
	if resp.StatusCode != 200 {
		t.Fatalf("csv status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "gunkasa-rapor-2024-03-10.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(raw), ledger.BOM) {
		t.Error("csv must start with a BOM")
	}
}

func TestBackupRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/v1/records", `{"date":"2024-03-01","income":{"cash":100}}`)

	resp, _ := e.do(t, "GET", "/api/v1/backup", "")
	if resp.StatusCode != 200 {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	backup, _ := io.ReadAll(resp.Body)

	e.do(t, "POST", "/api/v1/records", `{"date":"2024-03-05","income":{"cash":1}}`)

	resp, _ = e.do(t, "POST", "/api/v1/backup/restore", string(backup))
	if resp.StatusCode != 400 {
		t.Errorf("unconfirmed restore status = %d, want 400", resp.StatusCode)
	}
	resp, body := e.do(t, "POST", "/api/v1/backup/restore?confirm=true", string(backup))
	if resp.StatusCode != 200 || body["records"].(float64) != 1 {
		t.Fatalf("restore status = %d, body %v", resp.StatusCode, body)
	}
	if recs := e.store.Records(); len(recs) != 1 || recs[0].Date != "2024-03-01" {
		t.Errorf("records after restore = %+v", recs)
	}

	resp, _ = e.do(t, "POST", "/api/v1/backup/restore?confirm=true", `{"version":1,"date":"x","data":[]}`)
	if resp.StatusCode != 400 {
		t.Errorf("legacy restore status = %d, want 400", resp.StatusCode)
	}
}

func TestSettingsRoutes(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, "PUT", "/api/v1/settings", `{"theme":"dark","brightness":150}`)
	if resp.StatusCode != 200 || body["theme"] != "dark" || body["brightness"].(float64) != 100 {
		t.Errorf("status = %d, body %v", resp.StatusCode, body)
	}
	resp, _ = e.do(t, "PUT", "/api/v1/settings", `{"theme":"neon"}`)
	if resp.StatusCode != 400 {
		t.Errorf("bad theme status = %d, want 400", resp.StatusCode)
	}
}

func TestOrderImportRoute(t *testing.T) {
	e := newTestEnv(t)
	payload := `{"external_id":"YS-77","source":"yemeksepeti","items":[{"name":"Dürüm","quantity":2,"price":"60"}],"total_amount":"120"}`

	resp, _ := e.do(t, "POST", "/api/v1/orders/import", payload)
	if resp.StatusCode != 201 {
		t.Fatalf("first import status = %d", resp.StatusCode)
	}
	resp, body := e.do(t, "POST", "/api/v1/orders/import", payload)
	if resp.StatusCode != 200 || !body["data"].(map[string]interface{})["duplicate"].(bool) {
		t.Errorf("duplicate import status = %d, body %v", resp.StatusCode, body)
	}
	rec, _ := e.store.RecordByDate("2024-03-10")
	if rec.Income.Online.Yemeksepeti != 120 {
		t.Errorf("yemeksepeti = %v, want 120", rec.Income.Online.Yemeksepeti)
	}

	resp, _ = e.do(t, "POST", "/api/v1/orders/import", `{"external_id":"x","source":"getir","total_amount":0}`)
	if resp.StatusCode != 400 {
		t.Errorf("zero total status = %d, want 400", resp.StatusCode)
	}
}

func TestSyncRoutes(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/v1/records", `{"date":"2024-03-01","income":{"cash":100}}`)

	e.remote.fail = true
	resp, body := e.do(t, "POST", "/api/v1/sync/push", "")
	if resp.StatusCode != 502 {
		t.Fatalf("failing push status = %d, body %v", resp.StatusCode, body)
	}

	e.remote.fail = false
	resp, body = e.do(t, "POST", "/api/v1/sync/push", "")
	if resp.StatusCode != 200 {
		t.Fatalf("push status = %d, body %v", resp.StatusCode, body)
	}
	if pushed := body["result"].(map[string]interface{})["pushed"].(float64); pushed != 1 {
		t.Errorf("pushed = %v, want 1", pushed)
	}

	_, body = e.do(t, "GET", "/api/v1/sync/status", "")
	if body["pending"].(float64) != 0 {
		t.Errorf("status = %v", body)
	}

	resp, _ = e.do(t, "POST", "/api/v1/sync/pull", "")
	if resp.StatusCode != 409 {
		t.Errorf("pull without session status = %d, want 409", resp.StatusCode)
	}
}

func TestSyncPush_ProgressArrivesInOrder(t *testing.T) {
	st := store.New(kv.NewMemory(), store.Options{Now: fixedNow})
	if err := st.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"} {
		st.AddRecord(model.NewDailyRecord("", d))
	}
	hub := ws.NewHub(nil)
	syncs := NewSyncHandler(syncer.New(st, &fakeRemote{}, nil), hub)
	app := fiber.New()
	app.Post("/sync/push", syncs.Push)

	e := &testEnv{app: app, store: st}
	if resp, body := e.do(t, "POST", "/sync/push", ""); resp.StatusCode != 200 {
		t.Fatalf("push status = %d, body %v", resp.StatusCode, body)
	}

	for want := 1; want <= 4; want++ {
		select {
		case msg := <-hub.Broadcast:
			var got map[string]interface{}
			if err := json.Unmarshal(msg, &got); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if got["type"] != "sync_progress" || got["done"].(float64) != float64(want) {
				t.Errorf("message %d = %v", want, got)
			}
		default:
			t.Fatalf("progress message %d missing", want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{store.ErrRecordNotFound, 404},
		{service.ErrRecordClosed, 409},
		{syncer.ErrSyncInProgress, 409},
		{service.ErrWrongBranch, 403},
		{store.ErrLegacyBackup, 400},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
