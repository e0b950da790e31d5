package predict

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Pragyan2004/pneumoscan/datastructures"
)

// ok fails the test if an err is not nil.
func ok(tb testing.TB, err error) {
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d: unexpected error: %s\033[39m\n\n", filepath.Base(file), line, err.Error())
		tb.FailNow()
	}
}

// equals fails the test if exp is not equal to act.
func equals(tb testing.TB, exp, act interface{}) {
	if !reflect.DeepEqual(exp, act) {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d:\n\n\texp: %#v\n\n\tgot: %#v\033[39m\n\n", filepath.Base(file), line, exp, act)
		tb.FailNow()
	}
}

// notEquals fails the test if exp is equal to act.
func notEquals(tb testing.TB, exp, act interface{}) {
	if reflect.DeepEqual(exp, act) {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d:\n\n\texp: %#v (not equal)\n\n\tgot: %#v\033[39m\n\n", filepath.Base(file), line, exp, act)
		tb.FailNow()
	}
}

type fakeModel struct {
	mu        sync.Mutex
	raw       float32
	err       error
	panicWith interface{}
	delay     time.Duration
	calls     int
	inputLen  int
	closed    bool

	active    int32
	maxActive int32
}

func (m *fakeModel) Run(input []float32) (float32, error) {
	n := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		max := atomic.LoadInt32(&m.maxActive)
		if n <= max || atomic.CompareAndSwapInt32(&m.maxActive, max, n) {
			break
		}
	}

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.calls++
	m.inputLen = len(input)
	m.mu.Unlock()

	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.raw, m.err
}

func (m *fakeModel) InputShape() []int64  { return []int64{1, 150, 150, 1} }
func (m *fakeModel) OutputShape() []int64 { return []int64{1, 1} }
func (m *fakeModel) Close()               { m.closed = true }

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testModelInfo() *datastructures.ModelInfo {
	return &datastructures.ModelInfo{
		ClassNames:  []string{"Normal", "Pneumonia"},
		TestMetrics: map[string]float64{"accuracy": 0.9},
	}
}

func writePNG(t *testing.T, dir string, name string, w int, h int, c color.Color) string {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	ok(t, err)
	defer f.Close()
	ok(t, png.Encode(f, img))
	return path
}
