package radio

import "errors"

var (
	ErrNoSSID        = errors.New("no network name configured")
	ErrCommandFailed = errors.New("nmcli command failed")
)
