package predict

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	StatusSuccess          = "Success"
	StatusModelNotLoaded   = "Model not loaded properly"
	StatusPreprocessFailed = "Image preprocessing failed"
)

var ErrModelNotLoaded = errors.New("model not loaded")

// Outcome is the result of one prediction. Label and Confidence are only
// set when Status is StatusSuccess.
type Outcome struct {
	Label      string
	Confidence float64
	Status     string
	Err        error
	Timestamp  time.Time
}

func (o Outcome) Success() bool {
	return o.Status == StatusSuccess
}

// Predictor runs the preprocess -> inference -> classification chain for a
// single image on disk.
type Predictor struct {
	store  *Store
	width  int
	height int
	now    func() time.Time
}

func NewPredictor(store *Store) *Predictor {
	w, h := TargetSize(store.Info())
	return &Predictor{
		store:  store,
		width:  w,
		height: h,
		now:    time.Now,
	}
}

func (p *Predictor) Store() *Store {
	return p.store
}

func (p *Predictor) Predict(filename string) Outcome {
	res := Outcome{Timestamp: p.now()}

	if !p.store.Loaded() {
		log.Error("[Predicting] Model not loaded, cannot make prediction")
		res.Status = StatusModelNotLoaded
		res.Err = ErrModelNotLoaded
		return res
	}

	tensor, err := Preprocess(filename, p.width, p.height)
	if err != nil {
		res.Status = StatusPreprocessFailed
		res.Err = err
		return res
	}

	log.Debug("[Predicting] Making prediction...")
	raw, err := p.run(tensor)
	if err != nil {
		log.Error("[Predicting] Prediction error: ", err.Error())
		res.Status = err.Error()
		res.Err = err
		return res
	}
	log.Debug("[Predicting] Raw prediction output: ", raw)

	res.Label, res.Confidence = Classify(raw)
	res.Status = StatusSuccess
	log.Infof("[Predicting] Result: %s with %.3f confidence", res.Label, res.Confidence)
	return res
}

func (p *Predictor) run(tensor *Tensor) (raw float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("[Predicting] Inference panicked: ", r, "\n", string(debug.Stack()))
			err = fmt.Errorf("inference failed: %v", r)
		}
	}()
	return p.store.Model().Run(tensor.Data)
}
