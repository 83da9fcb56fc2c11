package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const yamlConfig = `
telegram:
  token: "123:abc"
  poll_timeout: "15s"
logging:
  level: debug
  console: true
scheduler:
  cleanup_interval: "30s"
  send_rate_per_sec: 2
topics:
  page_size: 50
storage:
  driver: file
  path: /tmp/sched.db
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", yamlConfig)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if got := cfg.PollTimeout(); got != 15*time.Second {
		t.Fatalf("PollTimeout = %v", got)
	}
	if got := cfg.CleanupInterval(); got != 30*time.Second {
		t.Fatalf("CleanupInterval = %v", got)
	}
	if cfg.Topics.PageSize != 50 {
		t.Fatalf("page_size = %d", cfg.Topics.PageSize)
	}
	if st := cfg.StorageSettings(); st.Driver != "file" || st.Path != "/tmp/sched.db" {
		t.Fatalf("storage = %+v", st)
	}
	if m.Get() != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json",
		`{"telegram":{"token":"123:abc"},"logging":{"level":"info","console":true},"scheduler":{}}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.CleanupInterval(); got != time.Minute {
		t.Fatalf("default CleanupInterval = %v", got)
	}
	if got := cfg.PollTimeout(); got != 10*time.Second {
		t.Fatalf("default PollTimeout = %v", got)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", yamlConfig+"\nbogus: 1\n")
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestMissingTokenRejected(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json",
		`{"telegram":{"token":"  "},"logging":{"level":"info","console":true},"scheduler":{}}`)
	_, err := NewManager(path).Load()
	if err == nil || !strings.Contains(err.Error(), "telegram.token") {
		t.Fatalf("got %v, want token error", err)
	}
}

func TestBadDurationRejected(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json",
		`{"telegram":{"token":"x"},"logging":{"level":"info","console":true},"scheduler":{"cleanup_interval":"soon"}}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default: %v %v", d, err)
	}
}

func TestSubscribePublish(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", yamlConfig)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ch := m.Subscribe(1)
	next := &Config{}
	m.publish(next)
	select {
	case got := <-ch:
		if got != next {
			t.Fatal("received wrong config")
		}
	default:
		t.Fatal("no config received")
	}
	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after Unsubscribe")
	}
}
