package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Pragyan2004/pneumoscan/datastructures"
	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-File-Name, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatusJSON(http.StatusOK, struct{}{})
			return
		}
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			if u, err := uuid.NewV4(); err == nil {
				id = u.String()
			}
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// recovery turns a panic into a 500, removes a half processed upload and
// reports the crash to Sentry if configured.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}

			log.WithField(requestIDKey, c.GetString(requestIDKey)).
				Error("[Recovery] Unhandled error: ", err.Error(), "\n", string(debug.Stack()))

			if raven.URL() != "" {
				raven.CaptureError(err, map[string]string{
					"path":       c.Request.URL.Path,
					requestIDKey: c.GetString(requestIDKey),
				})
			}

			removeUpload(c.GetString(uploadPathKey))

			c.AbortWithStatusJSON(http.StatusInternalServerError, datastructures.ErrorResult{Error: "Internal server error: " + err.Error()})
		}()
		c.Next()
	}
}
