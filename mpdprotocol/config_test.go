package mpdprotocol

import (
	"context"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MPD_HOST", "")
	t.Setenv("MPD_PORT", "")
	t.Setenv("MPD_PASSWORD", "")
	t.Setenv("MPD_TIMEOUT", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want %+v", cfg, DefaultConfig())
	}
	if cfg.Address() != "localhost:6600" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected Config
	}{
		{
			name:     "Host and port",
			env:      map[string]string{"MPD_HOST": "music.lan", "MPD_PORT": "6601"},
			expected: Config{Host: "music.lan", Port: 6601, Timeout: CommandTimeout},
		},
		{
			name:     "Password in host",
			env:      map[string]string{"MPD_HOST": "s3cret@music.lan"},
			expected: Config{Host: "music.lan", Port: DefaultPort, Password: "s3cret", Timeout: CommandTimeout},
		},
		{
			name:     "Explicit password wins",
			env:      map[string]string{"MPD_HOST": "old@music.lan", "MPD_PASSWORD": "new"},
			expected: Config{Host: "music.lan", Port: DefaultPort, Password: "new", Timeout: CommandTimeout},
		},
		{
			name:     "Abstract socket",
			env:      map[string]string{"MPD_HOST": "@mpd"},
			expected: Config{Host: "@mpd", Port: DefaultPort, Timeout: CommandTimeout},
		},
		{
			name:     "Password and socket path",
			env:      map[string]string{"MPD_HOST": "pw@/run/mpd/socket"},
			expected: Config{Host: "/run/mpd/socket", Port: DefaultPort, Password: "pw", Timeout: CommandTimeout},
		},
		{
			name:     "Timeout",
			env:      map[string]string{"MPD_TIMEOUT": "5s"},
			expected: Config{Host: DefaultHost, Port: DefaultPort, Timeout: 5 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"MPD_HOST", "MPD_PORT", "MPD_PASSWORD", "MPD_TIMEOUT"} {
				t.Setenv(key, tt.env[key])
			}
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatal(err)
			}
			if cfg != tt.expected {
				t.Errorf("got %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	t.Setenv("MPD_PORT", "sixty-six")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestNewClientFromConfig(t *testing.T) {
	f := newFakeTransport()
	c := NewClientFromConfig(Config{Host: "pw@music.lan"}, WithTransport(f))

	if err := c.ConnectDefault(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Disconnect()

	if c.HostAddress() != "music.lan" || c.HostPort() != DefaultPort {
		t.Errorf("endpoint = %s:%d", c.HostAddress(), c.HostPort())
	}
	if sent := f.sentCommands(); len(sent) == 0 || sent[0] != "password pw" {
		t.Errorf("sent %q", sent)
	}
}

func TestClientApplyConfig(t *testing.T) {
	f := newFakeTransport()
	c := NewClient(WithTransport(f))
	c.ApplyConfig(Config{Host: "new@other.lan", Port: 6601})

	if err := c.ConnectDefault(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Disconnect()

	if c.HostAddress() != "other.lan" || c.HostPort() != 6601 {
		t.Errorf("endpoint = %s:%d", c.HostAddress(), c.HostPort())
	}
	if sent := f.sentCommands(); len(sent) == 0 || sent[0] != "password new" {
		t.Errorf("sent %q", sent)
	}
}
