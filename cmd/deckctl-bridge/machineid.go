package main

import (
	"fmt"
	"os/exec"
	"strings"
)

// GetMachineID asks systemd for an app-specific machine id. It keeps
// the MQTT client id stable across restarts without leaking the raw
// machine id to the broker.
func GetMachineID() (string, error) {
	out, err := exec.Command("systemd-id128", "machine-id", "-u").Output()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve machine-id: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}
