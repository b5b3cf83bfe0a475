package dcc

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerAndClientConnection(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 2000)
	server := NewServerConnection(0, NewTransfer(bytes.NewBuffer(data), int64(len(data))))

	var mu sync.Mutex
	var events []string
	server.OnConnected = func() {
		mu.Lock()
		events = append(events, "connected")
		mu.Unlock()
	}
	server.OnDisconnected = func(reason error) {
		mu.Lock()
		events = append(events, "disconnected")
		mu.Unlock()
	}

	require.NoError(t, server.Send(context.Background()))
	assert.Equal(t, Connecting, server.Status())
	assert.ErrorIs(t, server.Send(context.Background()), ErrAlreadyStarted)

	port := server.Addr().(*net.TCPAddr).Port
	out := &bytes.Buffer{}
	client := NewClientConnection("127.0.0.1", port, NewTransfer(out, int64(len(data))))
	require.NoError(t, client.Receive(context.Background()))

	client.Wait()
	server.Wait()

	assert.NoError(t, client.Err())
	assert.NoError(t, server.Err())
	assert.Equal(t, data, out.Bytes())
	assert.Equal(t, Disconnected, server.Status())
	assert.Equal(t, Disconnected, client.Status())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"connected", "disconnected"}, events)
}

func TestServerConnectionTimeout(t *testing.T) {
	server := NewServerConnection(0, NewTransfer(&bytes.Buffer{}, 10))
	server.Timeout = 50 * time.Millisecond

	reasons := make(chan error, 2)
	server.OnDisconnected = func(reason error) { reasons <- reason }

	require.NoError(t, server.Send(context.Background()))
	server.Wait()

	assert.Equal(t, Disconnected, server.Status())
	assert.ErrorIs(t, server.Err(), ErrTimeout)
	assert.ErrorIs(t, <-reasons, ErrTimeout)
	assert.Len(t, reasons, 0)
}

func TestServerConnectionDisconnectWhileListening(t *testing.T) {
	server := NewServerConnection(0, NewTransfer(&bytes.Buffer{}, 10))
	require.NoError(t, server.Send(context.Background()))

	server.Disconnect()
	server.Wait()

	assert.Equal(t, Disconnected, server.Status())
	assert.NoError(t, server.Err())

	// the session can be started again once finished
	require.NoError(t, server.Send(context.Background()))
	server.DisconnectForce()
	server.Wait()
	assert.Equal(t, Disconnected, server.Status())
}

func TestClientConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	client := NewClientConnection("127.0.0.1", port, NewTransfer(&bytes.Buffer{}, 10))
	require.NoError(t, client.Receive(context.Background()))
	client.Wait()

	assert.Error(t, client.Err())
	assert.Equal(t, Disconnected, client.Status())
}

func TestServerConnectionRestartWaitsForWorker(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 4096)
	transfer := NewTransfer(bytes.NewBuffer(data), int64(len(data)))
	transfer.BufferSize = 1024
	transfer.SendAhead = false
	server := NewServerConnection(0, transfer)
	require.NoError(t, server.Send(context.Background()))

	peer, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	chunk := make([]byte, 1024)
	_, err = io.ReadFull(peer, chunk)
	require.NoError(t, err)

	// the worker is blocked on an ack that never comes
	server.Disconnect()
	assert.Equal(t, Disconnected, server.Status())
	assert.ErrorIs(t, server.Send(context.Background()), ErrAlreadyStarted)

	peer.Close()
	server.Wait()

	require.NoError(t, server.Send(context.Background()))
	assert.Equal(t, Connecting, server.Status())
	assert.NotNil(t, server.Addr())
	server.DisconnectForce()
	server.Wait()
	assert.Equal(t, Disconnected, server.Status())
}

func TestConnectionWithoutTransfer(t *testing.T) {
	server := NewServerConnection(0, nil)
	assert.ErrorIs(t, server.Send(context.Background()), ErrNoTransfer)
	assert.Equal(t, Disconnected, server.Status())

	client := NewClientConnection("127.0.0.1", 1, nil)
	assert.ErrorIs(t, client.Receive(context.Background()), ErrNoTransfer)
	server.Wait()
}
