package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingUnaryInterceptor(t *testing.T) {
	logger := &recLogger{}
	s := NewHealthServer("", "x", logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}

	t.Run("ok", func(t *testing.T) {
		resp, err := s.loggingUnaryInterceptor(context.Background(), "req", info,
			func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil })
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("error passes through", func(t *testing.T) {
		want := status.Error(codes.PermissionDenied, "no")
		_, err := s.loggingUnaryInterceptor(context.Background(), "req", info,
			func(ctx context.Context, req interface{}) (interface{}, error) { return nil, want })
		require.ErrorIs(t, err, want)
	})

	var codesSeen []any
	for _, e := range logger.entries {
		if e.msg == "grpc call" {
			assert.Contains(t, e.args, "/pkg.Service/Method")
			codesSeen = append(codesSeen, e.args[3])
		}
	}
	assert.Equal(t, []any{"OK", "PermissionDenied"}, codesSeen)
}

type fakeStream struct {
	grpc.ServerStream
}

func (fakeStream) Context() context.Context { return context.Background() }

func TestLoggingStreamInterceptor(t *testing.T) {
	logger := &recLogger{}
	s := NewHealthServer("", "x", logger)
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Service/Watch", IsServerStream: true}

	err := s.loggingStreamInterceptor(nil, fakeStream{}, info, func(srv interface{}, ss grpc.ServerStream) error {
		return errors.New("plain")
	})
	require.Error(t, err)

	e, ok := logger.find("grpc stream")
	require.True(t, ok)
	assert.Contains(t, e.args, "/pkg.Service/Watch")
	assert.Contains(t, e.args, "Unknown")
}
