// Package logging builds the aggregator's structured logger: zap with a
// lumberjack-rotated JSON sink, split by level the same way the
// teacher's utils.InitLogger did, but returned as a value instead of
// stashed in a package-level var — per the design notes, the only
// ambient globals this module allows are configuration and the snapshot
// store.
package logging

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap.SugaredLogger with the Error helper the rest of the
// codebase expects.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a Logger writing JSON to logDir/app.log (from level up to,
// but not including, error), logDir/error.log (error and above), and
// stdout (level and above).
func New(logDir string, level string) (*Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.StacktraceKey = "stacktrace"
	encoderCfg.CallerKey = "caller"

	jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)

	minLevel := parseLevel(level)

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl < zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, "error.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		}), highPriority),
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, "app.log"),
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 5,
			Compress:   true,
			LocalTime:  true,
		}), lowPriority),
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(os.Stdout), minLevel),
	)

	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{SugaredLogger: base.Sugar()}, nil
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// WithError logs msg at error level with err and stack context attached,
// plus any additional structured fields.
func (l *Logger) WithError(err error, msg string, fields ...interface{}) {
	l.Errorw(msg, append([]interface{}{"error", err}, fields...)...)
}

// RequestLogger is HTTP middleware that logs one line per request with a
// generated request id, mirroring the teacher's RequestLogger.
func (l *Logger) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		l.Infow("request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		l.Infow("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
