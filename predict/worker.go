package predict

import (
	log "github.com/sirupsen/logrus"
)

// InferenceWorkers is the number of workers a server dispatcher runs. The
// model is used by one inference at a time.
const InferenceWorkers = 1

// Job holds the attributes needed to perform unit of work.
type Job struct {
	Filename string
	result   chan Outcome
}

// NewWorker creates takes a numeric id and a channel w/ worker pool.
func NewWorker(id int, workerPool chan chan Job, predictor *Predictor) Worker {
	return Worker{
		id:         id,
		jobQueue:   make(chan Job),
		workerPool: workerPool,
		quitChan:   make(chan bool),
		predictor:  predictor,
	}
}

type Worker struct {
	id         int
	jobQueue   chan Job
	workerPool chan chan Job
	quitChan   chan bool
	predictor  *Predictor
}

func (w Worker) start() {
	log.Debug("[Worker] Worker ", w.id, " starting")

	go func() {
		for {
			// Add my jobQueue to the worker pool.
			w.workerPool <- w.jobQueue

			select {
			case job := <-w.jobQueue:
				job.result <- w.predictor.Predict(job.Filename)

			case <-w.quitChan:
				log.Debug("[Worker] Worker ", w.id, " stopping")
				return
			}
		}
	}()
}

func (w Worker) stop() {
	go func() {
		w.quitChan <- true
	}()
}

// NewDispatcher creates, and returns a new Dispatcher object.
func NewDispatcher(predictor *Predictor, maxWorkers int, maxQueueSize int) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Dispatcher{
		jobQueue:   make(chan Job, maxQueueSize),
		maxWorkers: maxWorkers,
		workerPool: make(chan chan Job, maxWorkers),
		predictor:  predictor,
		quitChan:   make(chan bool),
	}
}

// Dispatcher hands prediction jobs to a fixed set of workers. Each worker
// processes one job at a time.
type Dispatcher struct {
	workerPool chan chan Job
	maxWorkers int
	jobQueue   chan Job
	predictor  *Predictor
	workers    []Worker
	quitChan   chan bool
}

func (d *Dispatcher) Run() {
	for i := 0; i < d.maxWorkers; i++ {
		worker := NewWorker(i+1, d.workerPool, d.predictor)
		worker.start()
		d.workers = append(d.workers, worker)
	}

	go d.dispatch()
}

func (d *Dispatcher) Stop() {
	for _, w := range d.workers {
		w.stop()
	}
	close(d.quitChan)
}

// Predict queues the image and blocks until a worker has handled it.
func (d *Dispatcher) Predict(filename string) Outcome {
	job := Job{Filename: filename, result: make(chan Outcome, 1)}
	d.jobQueue <- job
	return <-job.result
}

func (d *Dispatcher) Predictor() *Predictor {
	return d.predictor
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func() {
				workerJobQueue := <-d.workerPool
				workerJobQueue <- job
			}()
		case <-d.quitChan:
			return
		}
	}
}
