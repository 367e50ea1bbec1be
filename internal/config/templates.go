package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "tss", "toml":
		return tssTemplate, nil
	case "simulator":
		return simulatorTemplate, nil
	case "yaml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tssTemplate = `url = "https://127.0.0.1:14141"
source = "tss"
transport = "websocket"
tick_interval = "100ms"
connect_timeout = "5s"
write_timeout = "5s"
max_reconnect_attempts = 5
reconnect_delay = "5s"
reconnect_multiplier = 1.0
reconnect_max_delay = "5s"
admin_addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:3000"]
log_level = "info"
admin_token = ""

[tls]
ca_file = ""
server_name = ""
insecure_skip_verify = false
`

const simulatorTemplate = `source = "simulator"
tick_interval = "100ms"
admin_addr = "127.0.0.1:9400"
cors_origins = ["http://localhost:3000"]
log_level = "info"
admin_token = ""
`

const yamlTemplate = `url: https://127.0.0.1:14141
source: tss
transport: websocket
tick_interval: 100ms
connect_timeout: 5s
max_reconnect_attempts: 5
reconnect_delay: 5s
admin_addr: 127.0.0.1:9400
cors_origins:
  - http://localhost:3000
tls:
  ca_file: ""
  insecure_skip_verify: false
`
