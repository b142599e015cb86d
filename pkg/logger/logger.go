// Package logger provides the shop's structured logger built on log/slog.
//
// Handlers get a request-scoped logger through WithCtx, which already carries
// the request_id attached by the Logger middleware:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_number", o.OrderNumber)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/bytekstore/bytek/config"
)

var L *slog.Logger

var mongoSink *MongoHandler

func init() {
	L = slog.New(newHandler(config.AppEnv(), os.Stdout))
	slog.SetDefault(L)
}

// newHandler picks JSON output for production and text everywhere else.
func newHandler(env string, w io.Writer) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// AttachMongo fans log records out to MongoDB when LOG_MONGO_URI is set.
// A failed connection is reported and the stdout logger keeps working.
func AttachMongo() {
	uri := config.LogMongoURI()
	if uri == "" {
		return
	}
	h, err := NewMongoHandler(uri, config.LogMongoDatabase(), config.LogMongoCollection())
	if err != nil {
		L.Warn("logger: mongo sink disabled", "error", err)
		return
	}
	mongoSink = h
	L = slog.New(NewMultiHandler(L.Handler(), h))
	slog.SetDefault(L)
}

// Close flushes the Mongo sink, if any.
func Close() {
	if mongoSink != nil {
		mongoSink.Close()
		mongoSink = nil
	}
}

type ctxKey struct{}

// WithCtx returns the logger stored by InjectLogger, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-tagged logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
