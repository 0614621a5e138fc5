package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	t.Run("stdout json", func(t *testing.T) {
		l, err := New(Config{Level: "debug", Format: "json", Output: "stdout"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.log")
		l, err := New(Config{Level: "warn", Format: "console", Output: path})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("unwritable file fails", func(t *testing.T) {
		_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestContextLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTenantID(ctx, "tenant-1")
	ctx = WithIdempotencyKey(ctx, "idem-1")

	L(ctx).Info("settled")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
	assert.Equal(t, "idem-1", fields["idempotency_key"])
	assert.NotContains(t, fields, "operator_id")
	assert.NotContains(t, fields, "trace_id")
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Equal(t, "", GetTenantID(context.Background()))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs request with handler-provided context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/accounts", func(c *gin.Context) {
			c.Request = c.Request.WithContext(WithTenantID(c.Request.Context(), "t-9"))
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts?page=2", nil))

		require.Equal(t, 1, recorded.Len())
		entry := recorded.All()[0]
		assert.Equal(t, "HTTP Request", entry.Message)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, "t-9", fields["tenant_id"])
		assert.Equal(t, "page=2", fields["query"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
	})

	t.Run("client errors log at warn", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, zapcore.WarnLevel, recorded.All()[0].Level)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "Panic recovered", recorded.All()[0].Message)
}

func TestGormLogger(t *testing.T) {
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("errors are logged except record not found", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 0)

		gl.Trace(context.Background(), time.Now(), sqlFn, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, recorded.Len())

		gl.Trace(context.Background(), time.Now(), sqlFn, errors.New("deadlock detected"))
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "SQL Error", recorded.All()[0].Message)
	})

	t.Run("slow queries warn", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, time.Millisecond)

		gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, zapcore.WarnLevel, recorded.All()[0].Level)
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 0).LogMode(gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), sqlFn, errors.New("x"))
		assert.Equal(t, 0, recorded.Len())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
