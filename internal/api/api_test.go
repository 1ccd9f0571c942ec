package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agropulse/internal/database"
	"agropulse/internal/services/community"
	"agropulse/internal/services/cropadvisor"
	"agropulse/internal/services/history"
	"agropulse/internal/services/market"
	"agropulse/internal/services/papers"
	"agropulse/internal/services/weather"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeWeather struct {
	rain float64
	err  error
}

func (f fakeWeather) ForecastFor(_ context.Context, location string, date time.Time) weather.Forecast {
	return weather.Forecast{Location: location, Date: date.Format("2006-01-02"), Source: weather.SourceNotAvailable}
}

func (f fakeWeather) AnalyzeLand(_ context.Context, lat, lon float64) (weather.LandReport, error) {
	return weather.LandReport{Latitude: lat, Longitude: lon, Suitability: weather.Score(weather.DefaultRequirements, 28, 160)}, f.err
}

func (f fakeWeather) TodayPrecipitation(context.Context, float64, float64) (float64, error) {
	return f.rain, f.err
}

type acceptAll struct{}

func (acceptAll) Validate([]byte) (int, error) { return 2, nil }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func testTable() *market.Table {
	return market.NewTable([]market.Record{
		{Date: day("2024-03-01"), State: "Punjab", District: "Ludhiana", Market: "Khanna", Commodity: "Wheat", MinPrice: 1900, MaxPrice: 2100, ModalPrice: 2000},
		{Date: day("2024-03-02"), State: "Punjab", District: "Ludhiana", Market: "Khanna", Commodity: "Wheat", MinPrice: 2000, MaxPrice: 2300, ModalPrice: 2200},
		{Date: day("2024-03-02"), State: "Haryana", District: "Karnal", Market: "Karnal", Commodity: "Wheat", MinPrice: 1950, MaxPrice: 2150, ModalPrice: 2100},
	})
}

type testEnv struct {
	router  *gin.Engine
	logFile string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	scaler, err := cropadvisor.LoadScaler("../services/cropadvisor/testdata/scaler.json")
	require.NoError(t, err)
	forest, err := cropadvisor.LoadForest("../services/cropadvisor/testdata/forest.json")
	require.NoError(t, err)
	adv, err := cropadvisor.New(scaler, forest, nil, nil, cropadvisor.Options{})
	require.NoError(t, err)

	db, err := database.Initialize("sqlite:" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	store, err := papers.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	logFile := filepath.Join(t.TempDir(), "agropulse.log")
	acc := 0.99
	r := NewRouter(Services{
		Advisor:    adv,
		ModelInfo:  &cropadvisor.ModelInfo{Version: scaler.Version, Accuracy: &acc},
		History:    history.NewStore(db),
		Market:     testTable(),
		MarketOpts: market.DefaultOptions(),
		Weather:    fakeWeather{rain: 4.2},
		Papers:     papers.NewService(db, store, acceptAll{}, 0),
		Community:  community.NewService(db),
		AdminToken: "s3cret",
		LogFile:    logFile,
	})
	return testEnv{router: r, logFile: logFile}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w, _ := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecommend(t *testing.T) {
	e := newTestEnv(t)
	sample := map[string]float64{"nitrogen": 90, "phosphorus": 42, "potassium": 43, "temperature": 20.9, "humidity": 82, "ph": 6.5, "rainfall": 202.9}

	w, env := e.do(t, http.MethodPost, "/api/v1/recommend", sample)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res cropadvisor.RecommendationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, cropadvisor.StatusSuccess, res.Status)
	assert.Equal(t, "Rice", res.CropName)

	delete(sample, "ph")
	w, env = e.do(t, http.MethodPost, "/api/v1/recommend", sample)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400, env.Code)

	sample["ph"] = 20
	w, _ = e.do(t, http.MethodPost, "/api/v1/recommend", sample)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/admin/recommendations", nil, "X-Admin-Token", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var recs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Rice", recs[0]["crop_name"])
}

func TestCrops(t *testing.T) {
	e := newTestEnv(t)
	w, env := e.do(t, http.MethodGet, "/api/v1/crops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var crops []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &crops))
	assert.Len(t, crops, 22)

	w, _ = e.do(t, http.MethodGet, "/api/v1/crops/99", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Unmapped (99)")
}

func TestMarketQuery(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, http.MethodGet, "/api/v1/market/query?commodity=wheat&region=punjab", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res market.QueryResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, market.StatusSuccess, res.Status)
	require.NotNil(t, res.Insights)
	assert.Equal(t, 2200.0, res.Insights.CurrentModal)

	_, env = e.do(t, http.MethodGet, "/api/v1/market/query?commodity=wheat&region=Kerala", nil)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.NationalFallback)
	assert.Len(t, res.Data, 3)

	_, env = e.do(t, http.MethodGet, "/api/v1/market/query?commodity=saffron", nil)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, market.StatusNoData, res.Status)

	w, _ = e.do(t, http.MethodGet, "/api/v1/market/query", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMarketExportAndOverview(t *testing.T) {
	e := newTestEnv(t)

	w, _ := e.do(t, http.MethodGet, "/api/v1/market/export?commodity=wheat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	back, err := market.LoadXLSX(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, back.Len())

	w, env := e.do(t, http.MethodGet, "/api/v1/market/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ov market.Overview
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Equal(t, 1, ov.Commodities)
	assert.Equal(t, 2, ov.ActiveStates)

	w, env = e.do(t, http.MethodGet, "/api/v1/market/series?commodity=wheat&window=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"points"`)

	w, _ = e.do(t, http.MethodGet, "/api/v1/market/series", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarAndWeather(t *testing.T) {
	e := newTestEnv(t)

	_, env := e.do(t, http.MethodGet, "/api/v1/calendar/WHEAT", nil)
	assert.Contains(t, string(env.Data), "North India")
	w, env := e.do(t, http.MethodGet, "/api/v1/calendar/quinoa", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"Unknown"`)

	w, _ = e.do(t, http.MethodGet, "/api/v1/guide?season=autumn", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/weather/rain-alert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"alert":true`)

	w, _ = e.do(t, http.MethodGet, "/api/v1/weather/rain-alert?lat=north", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/weather/forecast?location=pune&date=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/weather/land?lat=30.9&lon=75.8", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report weather.LandReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "Rice", report.Suitability[0].Crop)

	w, _ = e.do(t, http.MethodGet, "/api/v1/weather/land?lat=95&lon=75", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistantREST(t *testing.T) {
	e := newTestEnv(t)
	w, env := e.do(t, http.MethodPost, "/api/v1/assistant/choose", map[string]string{"option": "market"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"id":"market"`)

	w, _ = e.do(t, http.MethodPost, "/api/v1/assistant/choose", map[string]string{"step": "main", "option": "weather"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/assistant/menu/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistantSocket(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/assistant/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first socketReply
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "main", first.Menu.ID)

	require.NoError(t, conn.WriteJSON(socketMessage{Option: "issues"}))
	var next socketReply
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "issues", next.Menu.ID)

	require.NoError(t, conn.WriteJSON(socketMessage{Option: "bogus"}))
	var bad socketReply
	require.NoError(t, conn.ReadJSON(&bad))
	assert.NotEmpty(t, bad.Error)
	assert.Equal(t, "issues", bad.Menu.ID)

	require.NoError(t, conn.WriteJSON(socketMessage{Option: "reset"}))
	var reset socketReply
	require.NoError(t, conn.ReadJSON(&reset))
	assert.Equal(t, "main", reset.Menu.ID)
}

func TestLocale(t *testing.T) {
	e := newTestEnv(t)
	_, env := e.do(t, http.MethodGet, "/api/v1/locale?lang=hi", nil)
	assert.Contains(t, string(env.Data), `"language":"Hindi"`)
	_, env = e.do(t, http.MethodGet, "/api/v1/locale?lang=klingon", nil)
	assert.Contains(t, string(env.Data), `"fallback":true`)
}

func TestCommunityRoutes(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, http.MethodPost, "/api/v1/community/posts", map[string]string{"name": "Balwinder", "location": "Bathinda", "message": "Cotton <b>whitefly</b> alert"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post struct {
		ID      uint   `json:"id"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))
	assert.Equal(t, "Cotton whitefly alert", post.Message)

	w, _ = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/community/posts/%d/replies", post.ID), map[string]string{"name": "Jaspreet", "message": "Spray neem oil"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = e.do(t, http.MethodPost, "/api/v1/community/posts/777/replies", map[string]string{"name": "Jaspreet", "message": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/v1/community/posts", map[string]string{"name": "Balwinder"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env = e.do(t, http.MethodGet, "/api/v1/community/posts", nil)
	assert.Contains(t, string(env.Data), "Spray neem oil")

	w, _ = e.do(t, http.MethodPost, "/api/v1/contact", map[string]string{"name": "Uma", "email": "uma@", "message": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = e.do(t, http.MethodPost, "/api/v1/contact", map[string]string{"name": "Uma", "email": "uma@example.org", "message": "hi"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func upload(t *testing.T, e testEnv, title string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("topic", "Soil"))
	if data != nil {
		fw, err := mw.CreateFormFile("file", "soil.pdf")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestPapersRoutes(t *testing.T) {
	e := newTestEnv(t)
	pdf := []byte("%PDF-1.4 test")

	w := upload(t, e, "Soil Organic Carbon", pdf)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var paper struct {
		ID    uint `json:"id"`
		Pages int  `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &paper))
	assert.Equal(t, 2, paper.Pages)

	assert.Equal(t, http.StatusBadRequest, upload(t, e, "No file", nil).Code)
	assert.Equal(t, http.StatusBadRequest, upload(t, e, "", pdf).Code)

	_, env = e.do(t, http.MethodGet, "/api/v1/papers?q=carbon", nil)
	assert.Contains(t, string(env.Data), "Soil Organic Carbon")

	w, _ = e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/papers/%d/download", paper.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdf, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "soil.pdf")

	w, _ = e.do(t, http.MethodGet, "/api/v1/papers/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = e.do(t, http.MethodGet, "/api/v1/papers/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodDelete, "/api/v1/admin/papers", nil, "Authorization", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	_, env = e.do(t, http.MethodGet, "/api/v1/papers", nil)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestUploadPaperRejectsOversizeBeforeReading(t *testing.T) {
	db, err := database.Initialize("sqlite:" + filepath.Join(t.TempDir(), "limit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	store, err := papers.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	svc := papers.NewService(db, store, acceptAll{}, 1024)
	e := testEnv{router: NewRouter(Services{Papers: svc})}

	w := upload(t, e, "Too Big", append([]byte("%PDF-1.4 "), make([]byte, 2048)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	w = upload(t, e, "Huge Body", make([]byte, 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	w = upload(t, e, "Fits", []byte("%PDF-1.4 small"))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAdmin(t *testing.T) {
	e := newTestEnv(t)

	w, _ := e.do(t, http.MethodGet, "/api/v1/admin/overview", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = e.do(t, http.MethodGet, "/api/v1/admin/overview", nil, "X-Admin-Token", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := e.do(t, http.MethodGet, "/api/v1/admin/overview", nil, "X-Admin-Token", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var ov map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Equal(t, 0.99, ov["model_accuracy"])
	assert.Equal(t, "crop-rf-test-1", ov["model_version"])
	assert.Equal(t, 3.0, ov["market_rows"])

	var lines []string
	for i := 1; i <= 60; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	require.NoError(t, os.WriteFile(e.logFile, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	_, env = e.do(t, http.MethodGet, "/api/v1/admin/logs", nil, "X-Admin-Token", "s3cret")
	var tail []string
	require.NoError(t, json.Unmarshal(env.Data, &tail))
	require.Len(t, tail, 50)
	assert.Equal(t, "line 11", tail[0])
	assert.Equal(t, "line 60", tail[49])
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	r := NewRouter(Services{Market: testTable()})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/overview", nil)
	req.Header.Set("X-Admin-Token", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/recommend", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
