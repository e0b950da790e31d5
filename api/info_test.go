package api

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/go-resty/resty/v2"
)

func getJSON(t *testing.T, url string, v interface{}) *resty.Response {
	resp, err := resty.New().R().Get(url)
	ok(t, err)
	ok(t, json.Unmarshal(resp.Body(), v))
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	var res datastructures.HealthResult
	resp := getJSON(t, env.url("/api/health"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, "healthy", res.Status)
	equals(t, true, res.ModelLoaded)
	equals(t, "2024-01-02T03:04:05.000000", res.Timestamp)
}

func TestHealthDegraded(t *testing.T) {
	env := newTestEnv(t, predict.NewStore(nil, nil), nil)

	var res datastructures.HealthResult
	resp := getJSON(t, env.url("/api/health"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, "degraded", res.Status)
	equals(t, false, res.ModelLoaded)
}

func TestModelInfo(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	var res datastructures.ModelInfoResult
	resp := getJSON(t, env.url("/api/model-info"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, []string{"Normal", "Pneumonia"}, res.ClassNames)
	equals(t, 0.92, res.TestMetrics["accuracy"])
	equals(t, 4, len(res.InputShape))
	equals(t, (*int64)(nil), res.InputShape[0])
	equals(t, int64(150), *res.InputShape[1])
	equals(t, true, res.ModelLoaded)
}

func TestModelInfoUnavailable(t *testing.T) {
	env := newTestEnv(t, predict.NewStore(nil, nil), nil)

	var res datastructures.ErrorResult
	resp := getJSON(t, env.url("/api/model-info"), &res)
	equals(t, http.StatusInternalServerError, resp.StatusCode())
	equals(t, "Model info not available", res.Error)
}

func TestDebug(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	var res datastructures.DebugResult
	resp := getJSON(t, env.url("/api/debug"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, true, res.ModelLoaded)
	equals(t, true, res.ModelExists)
	equals(t, true, res.ModelInfoExists)
	equals(t, true, res.UploadFolderExists)
	equals(t, env.uploadDir, res.UploadFolder)
	equals(t, "(None, 150, 150, 1)", *res.InputShape)
	equals(t, "(None, 1)", *res.OutputShape)
}

func TestShapeString(t *testing.T) {
	equals(t, "(None, 150, 150, 1)", shapeString([]int64{-1, 150, 150, 1}))
	equals(t, "(None, 64, None, 3)", shapeString([]int64{1, 64, -1, 3}))
	equals(t, "(None,)", shapeString([]int64{1}))
	equals(t, "()", shapeString(nil))
}

func TestDebugWithoutModel(t *testing.T) {
	env := newTestEnv(t, predict.NewStore(nil, nil), nil)
	ok(t, os.RemoveAll(env.uploadDir))

	var res datastructures.DebugResult
	resp := getJSON(t, env.url("/api/debug"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, false, res.ModelLoaded)
	equals(t, false, res.ModelExists)
	equals(t, false, res.UploadFolderExists)
	equals(t, (*string)(nil), res.InputShape)
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	var res datastructures.Statistics
	resp := getJSON(t, env.url("/api/statistics"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, 10, res.TotalScans)
	equals(t, 4, res.PneumoniaCases)
	equals(t, 6, res.NormalCases)
	equals(t, 94.2, res.Accuracy)
	equals(t, true, res.ModelLoaded)
}

func TestResultFromCache(t *testing.T) {
	cache := &memoryCache{}
	ok(t, cache.Put("20240102_030405_xray.png", datastructures.PredictMeResult{ClassName: "Normal", Confidence: 81.5}))
	env := newTestEnv(t, loadedStore(0.9), func(opts *Options) {
		opts.Cache = cache
	})

	var res datastructures.PredictMeResult
	resp := getJSON(t, env.url("/api/results/20240102_030405_xray.png"), &res)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, "Normal", res.ClassName)
	equals(t, 81.5, res.Confidence)

	var errRes datastructures.ErrorResult
	resp = getJSON(t, env.url("/api/results/unknown.png"), &errRes)
	equals(t, http.StatusNotFound, resp.StatusCode())

	cache.setErr(errCacheDown)
	resp = getJSON(t, env.url("/api/results/20240102_030405_xray.png"), &errRes)
	equals(t, http.StatusInternalServerError, resp.StatusCode())
}

func TestResultWithoutCache(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	var res datastructures.ErrorResult
	resp := getJSON(t, env.url("/api/results/x.png"), &res)
	equals(t, http.StatusServiceUnavailable, resp.StatusCode())
	equals(t, "Result cache not configured", res.Error)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	resp, err := resty.New().R().Options(env.url("/predict"))
	ok(t, err)
	equals(t, http.StatusOK, resp.StatusCode())
	equals(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	notEquals(t, "", resp.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, loadedStore(0.9), nil)

	resp, err := resty.New().R().SetHeader("X-Request-Id", "abc-123").Get(env.url("/api/health"))
	ok(t, err)
	equals(t, "abc-123", resp.Header().Get("X-Request-Id"))
}
