package radio

import (
	"fmt"

	"golang.org/x/exp/slog"

	"accessterm/internal/app/terminal/config"
	"accessterm/internal/domain/link"
)

// New builds the radio selected by cfg.Radio.
func New(cfg config.Link, log *slog.Logger) (link.Radio, error) {
	switch cfg.Radio {
	case config.RadioWired:
		return NewWired(log), nil
	case config.RadioNmcli:
		return NewNmcli(cfg.RadioInterface, ExecRunner, log), nil
	default:
		return nil, fmt.Errorf("unsupported radio: %s", cfg.Radio)
	}
}
