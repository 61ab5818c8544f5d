package kafka

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	ctx := context.Background()
	assert.NoError(t, NewHealthChecker([]string{" ", ln.Addr().String()}).Check(ctx))
	assert.Error(t, NewHealthChecker(nil).Check(ctx))
	assert.Equal(t, "kafka", NewHealthChecker(nil).Name())
}
