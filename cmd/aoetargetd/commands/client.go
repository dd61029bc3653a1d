package commands

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/yang123vc/aoetargetd/internal/config"
)

const dialTimeout = 2 * time.Second

// send dials the daemon's control socket, writes a single command line,
// and returns its single-line (or multi-line, for "status") response.
func send(line string) (string, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}

	conn, err := net.DialTimeout("unix", cfg.ControlSocket, dialTimeout)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", cfg.ControlSocket, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, line); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	var out []byte
	r := bufio.NewReader(conn)
	for {
		chunk, err := r.ReadBytes('\n')
		out = append(out, chunk...)
		if err != nil {
			break
		}
	}

	return string(out), nil
}
