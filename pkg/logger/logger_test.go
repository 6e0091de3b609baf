package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log := New("loud")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log = New("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestGinMiddleware_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(&buf)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware(log))
	router.GET("/boom/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom/42", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "/boom/:id", line["path"])
	assert.EqualValues(t, http.StatusInternalServerError, line["status"])
}
