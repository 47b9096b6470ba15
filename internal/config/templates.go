package config

import (
	"fmt"
	"os"
)

func Template() string {
	return controllerTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(controllerTemplate), 0o600)
}

const controllerTemplate = `# USP record version
version = "1.1"

# endpoint id of this controller
from_id = "proto::controller"

# plaintext | tls12
payload_security = "plaintext"

# hex encoded, empty for none
mac_signature = ""

# path to the sender certificate, relative to this file; empty for none
sender_cert_file = ""
`
