package httpsource

import (
	"bytes"
	"net"
	"net/http"
	"testing"
	"time"

	vipflow "github.com/brunotm/vipflow"
	"github.com/brunotm/vipflow/internal/httpserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func waitUp(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("source never came up on %s", addr)
}

func TestSourceForwardsDecodedPayloadToOutput(t *testing.T) {
	addr := freeAddr(t)

	n, src, err := New("ingest", Config{Config: httpserver.Config{Addr: addr}})
	require.NoError(t, err)
	require.NoError(t, src.Start())
	defer src.Close()
	waitUp(t, addr)

	var got vipflow.AnyData
	done := make(chan struct{}, 1)
	sink := vipflow.NewNode("Sink", "sink", vipflow.ProcessorFunc(func(node *vipflow.Node) error {
		got = node.InputAt(0).Data()
		done <- struct{}{}
		return nil
	}))
	sink.SetSchedule(vipflow.OneInput | vipflow.NoThread)
	sink.AddInput("in")

	pool := vipflow.NewPool("root", nil)
	require.NoError(t, pool.AddNode("ingest", n))
	require.NoError(t, pool.AddNode("sink", sink))
	require.NoError(t, pool.Connect(n,
		vipflow.Address{Class: "HttpSource", Node: "ingest", Port: "data"},
		vipflow.Address{Class: "Sink", Node: "sink", Port: "in"}))

	resp, err := http.Post("http://"+addr+"/mytopic", "application/json", bytes.NewBufferString(`{"value":42}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never received the forwarded record")
	}

	m, ok := got.Data().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), m["value"])

	topic, _ := got.Attribute("topic")
	assert.Equal(t, "mytopic", topic)
}

func TestSourceRejectsUnregisteredTopic(t *testing.T) {
	addr := freeAddr(t)

	n, src, err := New("ingest", Config{
		Config: httpserver.Config{Addr: addr},
		Topics: []string{"allowed"},
	})
	require.NoError(t, err)
	require.NoError(t, src.Start())
	defer src.Close()
	t.Cleanup(func() { n.Destroy() })
	waitUp(t, addr)

	resp, err := http.Post("http://"+addr+"/not-allowed", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSourceRejectsInvalidJSON(t *testing.T) {
	addr := freeAddr(t)

	n, src, err := New("ingest", Config{Config: httpserver.Config{Addr: addr}})
	require.NoError(t, err)
	require.NoError(t, src.Start())
	defer src.Close()
	t.Cleanup(func() { n.Destroy() })
	waitUp(t, addr)

	resp, err := http.Post("http://"+addr+"/topic", "application/json", bytes.NewBufferString(`not json`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNewRejectsEmptyAddress(t *testing.T) {
	_, _, err := New("ingest", Config{})
	assert.Error(t, err)
}

func TestSourceBasicAuthRejectsWrongCredentials(t *testing.T) {
	addr := freeAddr(t)

	n, src, err := New("ingest", Config{
		Config:   httpserver.Config{Addr: addr},
		User:     "u",
		Password: "p",
	})
	require.NoError(t, err)
	require.NoError(t, src.Start())
	defer src.Close()
	t.Cleanup(func() { n.Destroy() })
	waitUp(t, addr)

	req, err := http.NewRequest(http.MethodPost, "http://"+addr+"/topic", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.SetBasicAuth("u", "wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
