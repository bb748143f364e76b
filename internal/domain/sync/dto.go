package sync

// PingRequest is the body of POST {base}/terminal/ping.
type PingRequest struct {
	TerminalID string `json:"terminalId"`
	AuthKey    string `json:"authKey"`
}

// ScanRequest is the body of POST {base}/terminal/scan.
type ScanRequest struct {
	TerminalID string `json:"terminalId"`
	AuthKey    string `json:"authKey"`
	RFID       string `json:"rfid"`
}

// UpdateRequest is the body of POST {base}/terminal/update.
type UpdateRequest struct {
	TerminalID string         `json:"terminalId"`
	AuthKey    string         `json:"authKey"`
	Settings   UpdateSettings `json:"settings"`
}

// UpdateSettings echoes the network settings now in effect back to the server.
type UpdateSettings struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	Endpoint string `json:"endpoint"`
}

const (
	pingPath   = "/terminal/ping"
	scanPath   = "/terminal/scan"
	updatePath = "/terminal/update"

	updateFlagKey = "updateFlag"
)
