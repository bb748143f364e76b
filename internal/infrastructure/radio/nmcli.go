package radio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/exp/slog"
)

const (
	nmcliBin      = "nmcli"
	hotspotName   = "accessterm-ap"
	commandBudget = 10 * time.Second
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command on the host.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Nmcli drives a wireless interface through NetworkManager.
type Nmcli struct {
	iface string
	run   Runner
	log   *slog.Logger
}

func NewNmcli(iface string, run Runner, log *slog.Logger) *Nmcli {
	return &Nmcli{
		iface: iface,
		run:   run,
		log:   log.With(slog.String("component", "radio_nmcli"), slog.String("iface", iface)),
	}
}

// Begin requests association without waiting for it; Associated reports the result.
func (n *Nmcli) Begin(ssid, secret string) error {
	if ssid == "" {
		return ErrNoSSID
	}

	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if secret != "" {
		args = append(args, "password", secret)
	}
	args = append(args, "ifname", n.iface)

	// The secret is an argument, so only the ssid is logged.
	n.log.Debug("requesting association", slog.String("ssid", ssid))
	return n.exec(args...)
}

func (n *Nmcli) Associated() bool {
	ctx, cancel := context.WithTimeout(context.Background(), commandBudget)
	defer cancel()

	out, err := n.run(ctx, nmcliBin, "-t", "-f", "DEVICE,STATE", "device")
	if err != nil {
		n.log.Warn("failed to query device state", slog.Any("error", err))
		return false
	}

	return deviceConnected(out, n.iface)
}

func (n *Nmcli) StartAccessPoint(ssid, passphrase string) error {
	return n.exec("device", "wifi", "hotspot",
		"ifname", n.iface,
		"con-name", hotspotName,
		"ssid", ssid,
		"password", passphrase,
	)
}

func (n *Nmcli) StopAccessPoint() error {
	return n.exec("connection", "down", hotspotName)
}

func (n *Nmcli) exec(args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandBudget)
	defer cancel()

	out, err := n.run(ctx, nmcliBin, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrCommandFailed, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// deviceConnected scans terse "DEVICE:STATE" lines.
func deviceConnected(out []byte, iface string) bool {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		dev, state, ok := strings.Cut(sc.Text(), ":")
		if ok && dev == iface {
			return state == "connected"
		}
	}
	return false
}
