package web

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/site-safety-desk/internal/adapter/archive"
	"github.com/couchcryptid/site-safety-desk/internal/adapter/weather"
	"github.com/couchcryptid/site-safety-desk/internal/catalog"
	"github.com/couchcryptid/site-safety-desk/internal/desk"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
	"github.com/couchcryptid/site-safety-desk/internal/observability"
)

type client struct {
	t    *testing.T
	http *http.Client
	base string
}

func newTestApp(t *testing.T, wind float64) (*client, *archive.Memory) {
	t.Helper()
	return newTestAppWith(t, wind, nil)
}

func newTestAppWith(t *testing.T, wind float64, configure func(*Options)) (*client, *archive.Memory) {
	t.Helper()
	mem := archive.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := desk.New(desk.Deps{
		Catalog:    catalog.Default(),
		Archive:    mem,
		Weather:    weather.Fixed(wind),
		Clock:      clockwork.NewFakeClockAt(time.Date(2026, time.January, 21, 7, 0, 0, 0, time.UTC)),
		Logger:     logger,
		Metrics:    observability.NewMetricsForTesting(),
		SessionTTL: time.Hour,
	})
	opts := Options{
		SessionKey:     []byte("0123456789abcdef0123456789abcdef"),
		SessionTTL:     time.Hour,
		MaxUploadBytes: 1 << 20,
	}
	if configure != nil {
		configure(&opts)
	}
	h, err := NewHandler(d, opts, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, http: &http.Client{Jar: jar}, base: srv.URL}, mem
}

func (c *client) get() string {
	c.t.Helper()
	resp, err := c.http.Get(c.base + "/")
	require.NoError(c.t, err)
	return c.body(resp)
}

func (c *client) post(path string, form url.Values) string {
	c.t.Helper()
	resp, err := c.http.PostForm(c.base+path, form)
	require.NoError(c.t, err)
	return c.body(resp)
}

func (c *client) upload(path string, fields map[string]string, fileField, filename string) string {
	c.t.Helper()
	resp := c.uploadRaw(path, fields, fileField, filename, []byte{0xff, 0xd8, 0xff, 0xe0})
	return c.body(resp)
}

func (c *client) uploadRaw(path string, fields map[string]string, fileField, filename string, data []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(c.t, err)
		_, err = fw.Write(data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())

	resp, err := c.http.Post(c.base+path, mw.FormDataContentType(), &buf)
	require.NoError(c.t, err)
	return resp
}

func (c *client) navigate(action domain.Action) string {
	return c.post("/navigate", url.Values{"action": {string(action)}})
}

func (c *client) body(resp *http.Response) string {
	c.t.Helper()
	defer resp.Body.Close()
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return string(b)
}

func TestLoginPage(t *testing.T) {
	c, _ := newTestApp(t, 4.0)

	page := c.get()
	assert.Contains(t, page, `id="site-login"`)
	assert.Contains(t, page, `id="admin-dashboard"`)
	assert.Contains(t, page, "<details")
	assert.NotContains(t, page, `id="wind-`)
}

func TestNavigationRoundTrip(t *testing.T) {
	c, _ := newTestApp(t, 4.0)

	page := c.navigate(domain.ActionSiteLogin)
	assert.Contains(t, page, "현장 안전 관리")
	assert.Contains(t, page, `id="back"`)

	page = c.navigate(domain.ActionBack)
	assert.Contains(t, page, `id="site-login"`)

	page = c.navigate(domain.ActionAdminDashboard)
	assert.Contains(t, page, "통합 관제 대시보드")

	page = c.navigate(domain.ActionLogout)
	assert.Contains(t, page, `id="site-login"`)
}

func TestInvalidNavigationShowsNotice(t *testing.T) {
	c, _ := newTestApp(t, 4.0)

	page := c.navigate(domain.ActionLogout)
	assert.Contains(t, page, `id="site-login"`)
	assert.Contains(t, page, `class="notice notice-error"`)
}

func TestTBMGate(t *testing.T) {
	c, mem := newTestApp(t, 4.0)
	c.navigate(domain.ActionSiteLogin)

	page := c.upload("/field/tbm", map[string]string{"site": "pyeongtaek", "participants": "김반장"}, "photo", "tbm.jpg")
	assert.Contains(t, page, "사진 업로드 및 위험요인 체크는 필수입니다.")
	assert.Empty(t, mem.Entries())

	page = c.upload("/field/tbm", map[string]string{"site": "pyeongtaek", "hazards_ack": "on"}, "", "")
	assert.Contains(t, page, "사진 업로드 및 위험요인 체크는 필수입니다.")
	assert.Empty(t, mem.Entries())

	page = c.upload("/field/tbm", map[string]string{"site": "pyeongtaek", "participants": "김반장", "hazards_ack": "on"}, "photo", "tbm.jpg")
	assert.Contains(t, page, "TBM 내용이 본사 서버로 전송되었습니다.")

	entries := mem.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CategoryTBM, entries[0].Category)
	assert.Equal(t, "경기-평택", entries[0].Site)
	assert.Equal(t, "tbm.jpg", entries[0].Attachment.Filename)
}

func TestSafetyLock(t *testing.T) {
	for _, site := range []string{"anseong", "chungcheong"} {
		t.Run(site, func(t *testing.T) {
			c, mem := newTestApp(t, 4.0)
			c.navigate(domain.ActionSiteLogin)
			page := c.post("/field/site", url.Values{"site": {site}})
			assert.NotContains(t, page, `id="start-work"`)
			assert.Contains(t, page, `id="safety-lock"`)

			page = c.upload("/field/hazard/photo", nil, "photo", "skylight.png")
			assert.Contains(t, page, `id="start-work"`)
			assert.NotContains(t, page, `id="safety-lock"`)

			page = c.post("/field/hazard/start", url.Values{"site": {site}})
			assert.Contains(t, page, "작업 시작 시간이 기록되었습니다.")
			require.Len(t, mem.Entries(), 1)
			assert.Equal(t, domain.CategoryHazardReport, mem.Entries()[0].Category)
		})
	}
}

func TestStartWorkRefusedWhileLocked(t *testing.T) {
	c, mem := newTestApp(t, 4.0)
	c.navigate(domain.ActionSiteLogin)

	page := c.post("/field/hazard/start", url.Values{"site": {"anseong"}})
	assert.Contains(t, page, `id="safety-lock"`)
	assert.Empty(t, mem.Entries())
}

func TestWindBoundary(t *testing.T) {
	tests := []struct {
		speed float64
		want  string
		not   string
	}{
		{9.9, `id="wind-ok"`, `id="wind-alert"`},
		{10.0, `id="wind-alert"`, `id="wind-ok"`},
	}
	for _, tt := range tests {
		c, _ := newTestApp(t, tt.speed)
		page := c.navigate(domain.ActionSiteLogin)
		assert.Contains(t, page, tt.want)
		assert.NotContains(t, page, tt.not)

		c.navigate(domain.ActionBack)
		page = c.navigate(domain.ActionAdminDashboard)
		assert.Contains(t, page, tt.want)
	}
}

func TestPlanApprovalAndDirective(t *testing.T) {
	c, mem := newTestApp(t, 4.0)
	c.navigate(domain.ActionSiteLogin)

	page := c.upload("/field/plan", map[string]string{"site": "incheon", "work_type": "지게차"}, "plan", "plan.pdf")
	assert.Contains(t, page, "승인 요청이 전송되었습니다.")
	require.Len(t, mem.Entries(), 1)
	assert.Equal(t, domain.CategoryWorkPlan, mem.Entries()[0].Category)

	page = c.post("/field/directive/ack", nil)
	assert.Contains(t, page, `id="directive-signature"`)
	assert.NotContains(t, page, `id="ack-directive"`)
}

func TestDashboardLogAndEmergency(t *testing.T) {
	c, _ := newTestApp(t, 4.0)
	c.navigate(domain.ActionSiteLogin)
	c.upload("/field/tbm", map[string]string{"site": "anseong", "participants": "김반장", "hazards_ack": "on"}, "photo", "tbm.jpg")
	c.navigate(domain.ActionBack)

	page := c.navigate(domain.ActionAdminDashboard)
	assert.Contains(t, page, `id="archive-log"`)
	assert.Contains(t, page, `[NAS 업로드] 경로: \\NAS\Safety_Data\경기-안성\2026-01-21\ | 분류: TBM`)
	assert.Contains(t, page, "(1/6 완료)")

	page = c.post("/hq/emergency", url.Values{"target": {"전체 현장"}})
	assert.Contains(t, page, "[전체 현장]에 긴급 메시지가 발송되었습니다.")
}

func TestDashboardEmptyLog(t *testing.T) {
	c, _ := newTestApp(t, 4.0)

	page := c.navigate(domain.ActionAdminDashboard)
	assert.Contains(t, page, `id="archive-log-empty"`)
}

func TestTamperedCookieStartsNewSession(t *testing.T) {
	c, _ := newTestApp(t, 4.0)
	c.navigate(domain.ActionSiteLogin)

	u, err := url.Parse(c.base)
	require.NoError(t, err)
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: cookieName, Value: "forged", Path: "/"}})

	page := c.get()
	assert.Contains(t, page, `id="site-login"`)
}

func TestUploadTooLarge(t *testing.T) {
	c, mem := newTestAppWith(t, 4.0, func(o *Options) { o.MaxUploadBytes = 1 << 10 })
	c.navigate(domain.ActionSiteLogin)

	resp := c.uploadRaw("/field/hazard/photo", nil, "photo", "skylight.jpg", bytes.Repeat([]byte{0xff}, 4<<10))
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	page := c.get()
	assert.Contains(t, page, `id="safety-lock"`)
	assert.NotContains(t, page, `id="start-work"`)
	assert.Empty(t, mem.Entries())
}

var csrfTokenField = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func TestCSRFRequired(t *testing.T) {
	c, _ := newTestAppWith(t, 4.0, func(o *Options) { o.CSRFKey = []byte("fedcba9876543210fedcba9876543210") })

	page := c.get()
	m := csrfTokenField.FindStringSubmatch(page)
	require.Len(t, m, 2, "login page carries a csrf field")

	resp, err := c.http.PostForm(c.base+"/navigate", url.Values{"action": {string(domain.ActionSiteLogin)}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, c.get(), `id="site-login"`)

	page = c.post("/navigate", url.Values{
		"action":             {string(domain.ActionSiteLogin)},
		"gorilla.csrf.Token": {m[1]},
	})
	assert.Contains(t, page, `id="back"`)
}
