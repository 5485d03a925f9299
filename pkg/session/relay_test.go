package session

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_PendingOutputShownFirst(t *testing.T) {
	ch := newFakeChannel()
	go func() {
		ch.say("second\r\n")
		ch.hangup()
	}()
	var out bytes.Buffer
	returned, err := relay(ch, strings.NewReader(""), &out, []byte("first\r\n"), nil)
	require.NoError(t, err)
	assert.False(t, returned)
	assert.Equal(t, "first\r\nsecond\r\n", out.String())
}

func TestRelay_SentinelInPendingOutput(t *testing.T) {
	ch := newFakeChannel()
	var out bytes.Buffer
	returned, err := relay(ch, strings.NewReader(""), &out, []byte("bye\r\n"+PromptSentinel), &GatewayFilter{})
	require.NoError(t, err)
	assert.True(t, returned)
	assert.Equal(t, "bye\r\n", out.String())
}

func TestRelay_FlushesHeldBytesAtEOF(t *testing.T) {
	ch := newFakeChannel()
	go func() {
		ch.say("ends with [PEX")
		ch.hangup()
	}()
	var out bytes.Buffer
	returned, err := relay(ch, strings.NewReader(""), &out, nil, &GatewayFilter{})
	require.NoError(t, err)
	assert.False(t, returned)
	assert.Equal(t, "ends with [PEX", out.String())
}

func TestRelay_CopiesInput(t *testing.T) {
	ch := newFakeChannel()
	go func() {
		assert.Equal(t, "whoami", ch.recv())
		ch.say("root\r\n")
		ch.hangup()
	}()
	var out bytes.Buffer
	_, err := relay(ch, strings.NewReader("whoami\r"), &out, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "root\r\n", out.String())
}

func TestForwardResize_StopsDelivery(t *testing.T) {
	src := make(ChanResizeSource, 1)
	ch := newFakeChannel()
	stop := forwardResize(src, ch)

	src <- Winsize{Rows: 10, Cols: 20}
	select {
	case ws := <-ch.resized:
		assert.Equal(t, Winsize{Rows: 10, Cols: 20}, ws)
	case <-time.After(5 * time.Second):
		t.Fatal("resize not forwarded")
	}

	stop()
	time.Sleep(20 * time.Millisecond)
	src <- Winsize{Rows: 1, Cols: 1}
	select {
	case ws := <-ch.resized:
		t.Fatalf("unexpected resize after stop: %+v", ws)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestForwardResize_NilSource(t *testing.T) {
	stop := forwardResize(nil, newFakeChannel())
	stop()
}
