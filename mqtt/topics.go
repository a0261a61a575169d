package mqtt

import "fmt"

// Topics builds the per-node topic names.
type Topics struct {
	ClientID string
}

// Print is the control topic carrying remote print commands.
func (t Topics) Print() string {
	return fmt.Sprintf("nametags/control/node/%s/print", t.ClientID)
}

// Printed is the status topic published after each print job.
func (t Topics) Printed() string {
	return fmt.Sprintf("nametags/status/node/%s/printed", t.ClientID)
}

// Ping is the periodic liveness topic.
func (t Topics) Ping() string {
	return fmt.Sprintf("nametags/status/node/%s/ping", t.ClientID)
}
