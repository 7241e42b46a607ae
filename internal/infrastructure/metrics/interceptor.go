package metrics

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// UnaryServerInterceptor returns a gRPC interceptor that records every call.
// exporter may be nil.
func UnaryServerInterceptor(collector *Collector, exporter *PrometheusExporter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		seconds := time.Since(start).Seconds()

		collector.RecordCall(info.FullMethod, seconds, err != nil)
		if exporter != nil {
			exporter.ObserveCall(info.FullMethod, seconds, err)
		}
		return resp, err
	}
}
