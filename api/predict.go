package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/Pragyan2004/pneumoscan/predict"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	uploadFormField = "file"
	uploadPathKey   = "upload_path"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func (s *Server) predict(c *gin.Context) {
	log.Info("[Predicting] Received prediction request")

	if c.Request.ContentLength > s.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, datastructures.ErrorResult{Error: "File too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, datastructures.ErrorResult{Error: "File too large"})
			return
		}
		log.Error("[Predicting] No file in request: ", err.Error())
		c.JSON(http.StatusBadRequest, datastructures.ErrorResult{Error: "No file uploaded"})
		return
	}

	files := form.File[uploadFormField]
	if len(files) == 0 {
		// a part without filename ends up in the value map
		if _, ok := form.Value[uploadFormField]; ok {
			log.Error("[Predicting] Empty filename")
			c.JSON(http.StatusBadRequest, datastructures.ErrorResult{Error: "No file selected"})
			return
		}
		log.Error("[Predicting] No file in request")
		c.JSON(http.StatusBadRequest, datastructures.ErrorResult{Error: "No file uploaded"})
		return
	}
	header := files[0]

	name := uploadName(header.Filename)
	if name == "" {
		log.Error("[Predicting] Empty filename")
		c.JSON(http.StatusBadRequest, datastructures.ErrorResult{Error: "No file selected"})
		return
	}

	if !s.store.Loaded() {
		log.Error("[Predicting] Model not loaded")
		c.JSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: "AI model not loaded properly. Please try again later."})
		return
	}

	ext := uploadExt(name)
	if !allowedExtensions[ext] {
		log.Info("[Predicting] Invalid file type: ", ext)
		c.JSON(http.StatusBadRequest, datastructures.ErrorResult{Error: "File type " + ext + " not supported. Please use JPG or PNG files."})
		return
	}

	// one upload at a time, the timestamp prefix alone does not keep
	// same named uploads apart
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	filename := s.now().Format("20060102_150405_") + name
	path := filepath.Join(s.uploadDir, filename)
	c.Set(uploadPathKey, path)
	defer func() {
		if r := recover(); r != nil {
			removeUpload(path)
			c.Set(uploadPathKey, "")
			panic(r)
		}
	}()

	if err := c.SaveUploadedFile(header, path); err != nil {
		log.Error("[Predicting] Couldn't save uploaded file: ", err.Error())
		removeUpload(path)
		c.JSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: "Failed to save uploaded file"})
		return
	}

	fi, err := os.Stat(path)
	if err != nil {
		log.Error("[Predicting] File was not saved successfully")
		c.JSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: "Failed to save uploaded file"})
		return
	}
	log.Info("[Predicting] File saved to: ", path, " (", fi.Size(), " bytes)")

	outcome := s.predictor.Predict(path)
	log.Info("[Predicting] Prediction result - Status: ", outcome.Status, ", Class: ", outcome.Label, ", Confidence: ", outcome.Confidence)

	if !outcome.Success() {
		removeUpload(path)
		c.JSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: outcome.Status})
		return
	}

	var chartPtr *string
	if chart, err := s.renderChart(outcome.Confidence); err == nil {
		chartPtr = &chart
	} else {
		log.Error("[Predicting] Couldn't render chart: ", err.Error())
	}

	result := datastructures.PredictMeResult{
		ClassName:   outcome.Label,
		Confidence:  predict.Percent(outcome.Confidence),
		ImageUrl:    UploadURLPrefix + filename,
		Chart:       chartPtr,
		Timestamp:   s.now().Format("2006-01-02 15:04:05"),
		ModelLoaded: s.store.Loaded(),
	}

	if s.cache != nil {
		if err := s.cache.Put(filename, result); err != nil {
			log.Error("[Predicting] Couldn't cache result: ", err.Error())
		}
	}

	// the upload is kept from here on
	c.Set(uploadPathKey, "")

	log.Info("[Predicting] Prediction completed successfully")
	c.JSON(http.StatusOK, result)
}

// uploadName strips any directory part from the client supplied filename.
// It returns "" when nothing usable is left.
func uploadName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// uploadExt returns the lower cased extension. Leading dots belong to the
// name, so ".png" has no extension.
func uploadExt(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimLeft(name, ".")))
}

func removeUpload(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Error("[Predicting] Couldn't remove file ", err.Error())
	}
}
