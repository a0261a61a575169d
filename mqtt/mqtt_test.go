package mqtt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{ClientID: "lobby"}
	tests := []struct {
		got, want string
	}{
		{topics.Print(), "nametags/control/node/lobby/print"},
		{topics.Printed(), "nametags/status/node/lobby/printed"},
		{topics.Ping(), "nametags/status/node/lobby/ping"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	u, tlsConfig, err := brokerURL(Config{Host: "broker.local"})
	if err != nil || u != "tcp://broker.local:1883" || tlsConfig != nil {
		t.Fatalf("plain = %q %v %v", u, tlsConfig, err)
	}
	u, _, _ = brokerURL(Config{Host: "broker.local", Port: 1999})
	if u != "tcp://broker.local:1999" {
		t.Fatalf("explicit port = %q", u)
	}

	_, _, err = brokerURL(Config{Host: "broker.local", CACert: filepath.Join(t.TempDir(), "missing.pem")})
	if err == nil || !strings.Contains(err.Error(), "read CA cert") {
		t.Fatalf("missing CA err = %v", err)
	}

	junk := filepath.Join(t.TempDir(), "junk.pem")
	os.WriteFile(junk, []byte("not a certificate"), 0644)
	if _, _, err := brokerURL(Config{Host: "broker.local", CACert: junk}); err == nil {
		t.Fatal("expected an error for a CA file without certificates")
	}
}

func TestDisabledClient(t *testing.T) {
	connected := false
	c, err := New(Config{}, "lobby", Handlers{OnConnect: func() { connected = true }})
	if err != nil {
		t.Fatal(err)
	}
	if c.IsEnabled() {
		t.Fatal("client without host should be disabled")
	}
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	if !connected {
		t.Fatal("disabled client should report connected")
	}
	if err := c.Subscribe("x"); err != nil {
		t.Fatal(err)
	}
	if err := c.PublishJSON("x", map[string]string{"status": "ok"}); err != nil {
		t.Fatal(err)
	}
	c.Disconnect()
}

func TestPublishJSONRejectsUnmarshalable(t *testing.T) {
	c, _ := New(Config{}, "lobby", Handlers{})
	if err := c.PublishJSON("x", func() {}); err == nil {
		t.Fatal("expected a marshal error")
	}
}
