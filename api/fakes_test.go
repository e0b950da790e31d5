package api

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/gin-gonic/gin"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

type fakeModel struct {
	raw float32
	err error
}

func (m *fakeModel) Run(input []float32) (float32, error) { return m.raw, m.err }
func (m *fakeModel) InputShape() []int64                  { return []int64{1, 150, 150, 1} }
func (m *fakeModel) OutputShape() []int64                 { return []int64{1, 1} }
func (m *fakeModel) Close()                               {}

type countingPredictor struct {
	mu    sync.Mutex
	calls int
	next  Predictor
	panic interface{}
}

func (p *countingPredictor) Predict(filename string) predict.Outcome {
	p.mu.Lock()
	p.calls++
	panicWith := p.panic
	p.mu.Unlock()
	if panicWith != nil {
		panic(panicWith)
	}
	return p.next.Predict(filename)
}

func (p *countingPredictor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *countingPredictor) setPanic(v interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panic = v
}

type memoryCache struct {
	mu      sync.Mutex
	results map[string]datastructures.PredictMeResult
	err     error
}

func (m *memoryCache) Put(name string, result datastructures.PredictMeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.results == nil {
		m.results = make(map[string]datastructures.PredictMeResult)
	}
	m.results[name] = result
	return nil
}

func (m *memoryCache) Get(name string) (*datastructures.PredictMeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	res, ok := m.results[name]
	if !ok {
		return nil, ErrResultNotFound
	}
	return &res, nil
}

func (m *memoryCache) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

var errCacheDown = errors.New("connection refused")

func modelInfo() *datastructures.ModelInfo {
	side := int64(150)
	return &datastructures.ModelInfo{
		InputShape:  []*int64{nil, &side, &side, nil},
		ClassNames:  []string{"Normal", "Pneumonia"},
		TestMetrics: map[string]float64{"accuracy": 0.92, "recall": 0.95},
	}
}

type testEnv struct {
	server    *httptest.Server
	uploadDir string
	predictor *countingPredictor
}

func newTestEnv(t *testing.T, store *predict.Store, mutate func(*Options)) *testEnv {
	gin.SetMode(gin.TestMode)

	uploadDir := t.TempDir()
	counting := &countingPredictor{next: predict.NewPredictor(store)}

	opts := Options{
		Store:      store,
		Predictor:  counting,
		UploadDir:  uploadDir,
		Statistics: datastructures.Statistics{TotalScans: 10, PneumoniaCases: 4, NormalCases: 6, Accuracy: 94.2},
		Now:        func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}

	ts := httptest.NewServer(NewServer(opts).Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, uploadDir: uploadDir, predictor: counting}
}

func (e *testEnv) url(path string) string {
	return e.server.URL + path
}

func (e *testEnv) uploads(t *testing.T) []string {
	entries, err := os.ReadDir(e.uploadDir)
	ok(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func pngBytes(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 6)})
		}
	}
	var buf bytes.Buffer
	ok(t, png.Encode(&buf, img))
	return buf.Bytes()
}
