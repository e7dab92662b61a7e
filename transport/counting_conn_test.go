package transport

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingConn(t *testing.T) {
	a, b := net.Pipe()
	ca := newCountingConn(a)
	cb := newCountingConn(b)
	defer ca.Close()
	defer cb.Close()

	data := make([]byte, 16)
	data[3] = 0x42
	go func() {
		_, _ = ca.Write(data)
	}()

	got := make([]byte, 16)
	_, err := io.ReadFull(cb, got)
	require.NoError(t, err)
	assert.EqualValues(t, data, got)
	assert.EqualValues(t, 16, cb.Received())
	assert.EqualValues(t, 0, cb.Sent())
}
