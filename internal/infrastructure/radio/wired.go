package radio

import "golang.org/x/exp/slog"

// Wired is used on hosts whose uplink is managed elsewhere. It always reports association,
// so the access point only comes up after repeated sync failures and hosts just the portal.
type Wired struct {
	log *slog.Logger
}

func NewWired(log *slog.Logger) *Wired {
	return &Wired{log: log.With(slog.String("component", "radio_wired"))}
}

func (w *Wired) Begin(ssid, _ string) error {
	w.log.Debug("association delegated to host network", slog.String("ssid", ssid))
	return nil
}

func (w *Wired) Associated() bool { return true }

func (w *Wired) StartAccessPoint(ssid, _ string) error {
	w.log.Info("access point requested, serving portal on host network", slog.String("ap_ssid", ssid))
	return nil
}

func (w *Wired) StopAccessPoint() error {
	w.log.Debug("access point released")
	return nil
}
