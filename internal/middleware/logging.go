// Package middleware holds Connect interceptors shared by all services.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// billScoped is implemented by requests that target a single bill.
type billScoped interface {
	GetBillID() string
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, the bill ID when the request carries one,
// duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := []any{"procedure", req.Spec().Procedure}
			if scoped, ok := req.Any().(billScoped); ok && scoped.GetBillID() != "" {
				attrs = append(attrs, "bill_id", scoped.GetBillID())
			}

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					attrs = append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())
					if connectErr.Code() == connect.CodeInternal || connectErr.Code() == connect.CodeUnknown {
						slog.Error("RPC error", attrs...)
					} else {
						slog.Warn("RPC error", attrs...)
					}
				} else {
					slog.Error("RPC error", append(attrs, "error", err)...)
				}
			} else {
				slog.Info("RPC ok", attrs...)
			}

			return resp, err
		}
	}
}
