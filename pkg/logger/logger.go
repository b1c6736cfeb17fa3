package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// Config mirrors config.LoggerConfig but avoids importing the config package here.
type Config struct {
	Level       string
	Encoding    string
	Development bool
}

// RequestInfo is the per-request metadata every log line of a request carries.
type RequestInfo struct {
	RequestID      string
	UserID         string
	OrganizationID string
	RemoteAddr     string
}

func New(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

// WithRequestInfo stores info on ctx, replacing any earlier value.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(ctxKey{}).(RequestInfo)
	return info, ok
}

// ForContext returns base annotated with the request metadata on ctx, or base
// itself when there is none.
func ForContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	info, ok := RequestInfoFrom(ctx)
	if !ok || base == nil {
		return base
	}

	fields := make([]zap.Field, 0, 4)
	for _, f := range []struct{ key, value string }{
		{"request_id", info.RequestID},
		{"user_id", info.UserID},
		{"organization_id", info.OrganizationID},
		{"remote_addr", info.RemoteAddr},
	} {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
