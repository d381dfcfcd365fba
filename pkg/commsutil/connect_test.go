package commsutil

import (
	"testing"
	"time"

	comms "github.com/nats-io/nats.go"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "test-client")
	if err == nil {
		if nc != nil {
			nc.Close()
		}
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestStartEmbedded_ConnectAndRoundTrip(t *testing.T) {
	srv, err := StartEmbedded("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("%s - StartEmbedded failed: %v", connectTestPrefix, err)
	}
	defer srv.Shutdown()

	nc, err := Connect(srv.ClientURL(), "connect-test", comms.Timeout(5*time.Second))
	if err != nil {
		t.Fatalf("%s - Connect failed: %v", connectTestPrefix, err)
	}
	defer nc.Close()

	if nc.Opts.Name != "connect-test" {
		t.Errorf("%s - Name = %q, want %q", connectTestPrefix, nc.Opts.Name, "connect-test")
	}

	received := make(chan []byte, 1)
	sub, err := nc.Subscribe("commsutil.test", func(msg *comms.Msg) {
		received <- msg.Data
	})
	if err != nil {
		t.Fatalf("%s - Subscribe failed: %v", connectTestPrefix, err)
	}
	defer sub.Unsubscribe()

	if err := nc.Publish("commsutil.test", []byte("ping")); err != nil {
		t.Fatalf("%s - Publish failed: %v", connectTestPrefix, err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if string(got) != "ping" {
			t.Errorf("%s - got %q, want %q", connectTestPrefix, got, "ping")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timeout waiting for message", connectTestPrefix)
	}
}
