package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes the sample sim config to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(simTemplate), 0o600)
}

const simTemplate = `name = "halsim"
ram_size = 65536
listen_host = "127.0.0.1"
accept_wait = "10ms"
delay_scale = 1.0
inspector_addr = "127.0.0.1:7070"
cors_origins = ["http://localhost:3000"]

[radio]
ssid = "rvhal-lab"
password = "rvhal-pass"
channel = 6
addr = "192.168.0.10"
join_polls = 3

[guest]
ssid = "rvhal-lab"
password = "rvhal-pass"
channel = 0
port = 8080
greeting = "hi"
boot_delay_ms = 1000
poll_delay_ms = 500
max_polls = 0
max_connections = 0
`
