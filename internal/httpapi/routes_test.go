package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-go/internal/app"
	"hr-go/internal/config"
	"hr-go/internal/hr"
	"hr-go/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestServer(t *testing.T) (http.Handler, *app.HRApp) {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Store = config.StoreConfig{Type: "memory"}
	cfg.Attachments.Type = "memory"
	cfg.Attachments.MaxSize = 64
	cfg.Vaults = []config.VaultConfig{{Type: "memory", Name: "mem"}}

	a, err := app.NewHRApp(context.Background(), cfg, "Serve",
		app.WithClock(testutil.FixedClock()),
		app.WithIDGenerator(testutil.NewStubIDGenerator()),
		app.WithConsole(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return NewRouter(a), a
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func upload(t *testing.T, h http.Handler, ref, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/hindrances/"+ref+"/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHindranceRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/hindrances",
		`{"nature":"Rain","startDate":"2024-01-01","responsibleParty":"Client","siteNote":"gate 3"}`,
		ActorHeader, "site.eng")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[hr.HindranceView](t, rec)
	assert.Equal(t, "HR-001", created.Record.SrNo)
	assert.Equal(t, "site.eng", created.Record.CreatedBy)
	assert.Equal(t, hr.StatusOverdue, created.EffectiveStatus)
	assert.Equal(t, 14, created.DaysPending)
	assert.Contains(t, rec.Body.String(), `"siteNote":"gate 3"`)

	rec = do(t, h, http.MethodPost, "/hindrances", `{"nature":"Drawing delay","startDate":"2024-01-14"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/hindrances?status=Overdue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]hr.HindranceView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, "HR-001", views[0].Record.SrNo)

	rec = do(t, h, http.MethodPatch, "/hindrances/hr-001", `{"removalDate":"2024-01-04"}`, ActorHeader, "pm")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[hr.HindranceView](t, rec)
	assert.Equal(t, hr.StatusResolved, updated.EffectiveStatus)
	assert.Equal(t, "pm", updated.Record.UpdatedBy)

	rec = do(t, h, http.MethodGet, "/hindrances/HR-001/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]hr.AuditEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, hr.ActionUpdate, entries[0].Action)
	assert.Equal(t, "pm", entries[0].User)
	assert.Equal(t, "site.eng", entries[1].User)

	rec = do(t, h, http.MethodDelete, "/hindrances/HR-002", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/hindrances/HR-002", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestHindranceRoutes_BadInput(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "create with malformed json", method: http.MethodPost, path: "/hindrances", body: `{"nature":`, want: http.StatusBadRequest},
		{name: "create with array", method: http.MethodPost, path: "/hindrances", body: `[1]`, want: http.StatusBadRequest},
		{name: "update unknown", method: http.MethodPatch, path: "/hindrances/HR-404", body: `{}`, want: http.StatusNotFound},
		{name: "delete unknown", method: http.MethodDelete, path: "/hindrances/HR-404", want: http.StatusNotFound},
		{name: "restore garbage", method: http.MethodPost, path: "/restore", body: `{"version":1}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestUserRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/users", `{"username":"sup","password":"pw","role":"supervisor","active":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), `"pw"`)

	rec = do(t, h, http.MethodPost, "/users", `{"username":" sup ","password":"x","role":"supervisor","active":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]app.PublicUser](t, rec)
	assert.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "admin123")

	rec = do(t, h, http.MethodPost, "/login", `{"username":"sup","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[app.PublicUser](t, rec)
	assert.NotNil(t, me.LastLogin)

	rec = do(t, h, http.MethodPost, "/login", `{"username":"sup","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPatch, "/users/sup", `{"active":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/login", `{"username":"sup","password":"pw"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/users/sup", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/users/sup", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttachmentRoutes(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/hindrances", `{"nature":"Rain"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = upload(t, h, "HR-001", "site.png", pngHeader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	meta := decode[attachmentMeta](t, rec)
	assert.Equal(t, "image/png", meta.MimeType)
	assert.NotContains(t, rec.Body.String(), "base64")

	rec = upload(t, h, "HR-001", "big.png", bytes.Repeat([]byte{0}, 65))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = upload(t, h, "HR-001", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(t, h, "HR-404", "site.png", pngHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/hindrances/HR-001/attachments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]attachmentMeta](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/attachments/"+meta.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = do(t, h, http.MethodDelete, "/attachments/"+meta.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/attachments/"+meta.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteHindranceRemovesAttachments(t *testing.T) {
	h, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/hindrances", `{}`).Code)
	rec := upload(t, h, "HR-001", "site.png", pngHeader)
	require.Equal(t, http.StatusCreated, rec.Code)
	meta := decode[attachmentMeta](t, rec)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/hindrances/HR-001", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/attachments/"+meta.ID, "").Code)
}

func TestAdminRoutes(t *testing.T) {
	h, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/hindrances", `{"nature":"Rain","startDate":"2024-01-01"}`).Code)

	rec := do(t, h, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[hr.Stats](t, rec)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, "Rain", stats.MostCommonNature)

	rec = do(t, h, http.MethodGet, "/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Hindrance_Register_")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(t, h, http.MethodGet, "/backup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hr-backup-")
	snapshot := rec.Body.String()

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/hindrances", `{"nature":"Earthwork"}`).Code)
	rec = do(t, h, http.MethodPost, "/restore", snapshot)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/hindrances", "")
	assert.Len(t, decode[[]hr.HindranceView](t, rec), 1)
}

func TestSettingsRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/settings/system", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[hr.SystemConfig](t, rec).SLAThresholdDays)

	rec = do(t, h, http.MethodPut, "/settings/system", `{"slaThresholdDays":20,"autoBackup":false,"theme":"dark"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/settings/system", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, decode[hr.SystemConfig](t, rec).SLAThresholdDays)
	assert.Contains(t, rec.Body.String(), `"theme":"dark"`)

	// a larger threshold changes derived status on read
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/hindrances", `{"startDate":"2024-01-01"}`).Code)
	rec = do(t, h, http.MethodGet, "/hindrances/HR-001", "")
	assert.Equal(t, hr.StatusActive, decode[hr.HindranceView](t, rec).EffectiveStatus)

	rec = do(t, h, http.MethodPut, "/settings/project", `{"projectName":"Ring Road","contractNo":"C-7"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/settings/project", "")
	assert.Equal(t, "C-7", decode[hr.ProjectConfig](t, rec).ContractNo)
}

func TestFilterFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/hindrances?status=Active,Overdue&phase=MEP&phase=Roofing&party=Client&from=2024-01-01", nil)
	f := filterFromQuery(req.URL.Query())

	assert.Equal(t, []hr.Status{hr.StatusActive, hr.StatusOverdue}, f.Statuses)
	assert.Equal(t, []string{"MEP", "Roofing"}, f.WorkPhases)
	assert.Equal(t, "Client", f.ResponsibleParty)
	assert.Equal(t, "2024-01-01", f.From)
	assert.Empty(t, f.To)
}

func TestActorHeaderTrustedAsSent(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/hindrances", `{"startDate":"2024-01-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, hr.SystemActor, decode[hr.HindranceView](t, rec).Record.CreatedBy)

	rec = do(t, h, http.MethodPost, "/hindrances", `{"startDate":"2024-01-10"}`, ActorHeader, "  anyone  ")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "anyone", decode[hr.HindranceView](t, rec).Record.CreatedBy)
}

func TestHindranceRoutes_UninterpretedFields(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/hindrances",
		`{"startDate":"2024-01-10","estimatedDelay":"3","costImpact":"12,000","severity":3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/hindrances/HR-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"estimatedDelay":"3"`)
	assert.Contains(t, body, `"costImpact":"12,000"`)
	assert.Contains(t, body, `"severity":3`)

	rec = do(t, h, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[hr.Stats](t, rec).BySeverity["3"])
}
