package provisioning

import "accessterm/internal/domain/settings"

type configOutput struct {
	Body configResponse
}

type configResponse struct {
	SSID       string `json:"ssid" doc:"Upstream network name"`
	Password   string `json:"password" doc:"Network secret, always masked"`
	Endpoint   string `json:"endpoint" doc:"Sync server base URL"`
	TerminalID string `json:"terminalId" doc:"Terminal identifier"`
	AuthKey    string `json:"authKey" doc:"Terminal auth key, always masked"`
}

type saveInput struct {
	Body configRequest
}

// configRequest fields are free text; values longer than a field's capacity are truncated, not rejected.
// Omitted fields are stored empty.
type configRequest struct {
	SSID       string `json:"ssid,omitempty" example:"office-wifi"`
	Password   string `json:"password,omitempty"`
	Endpoint   string `json:"endpoint,omitempty" example:"https://access.example.com"`
	TerminalID string `json:"terminalId,omitempty" example:"T-0001"`
	AuthKey    string `json:"authKey,omitempty"`
}

type retryInput struct{}

type acceptedOutput struct {
	Body acceptedResponse
}

type acceptedResponse struct {
	Status  string `json:"status" example:"Accepted"`
	Message string `json:"message,omitempty"`
}

func toResponse(rec settings.Record) configResponse {
	m := rec.Masked()
	return configResponse{
		SSID:       m.SSID,
		Password:   m.Password,
		Endpoint:   m.Endpoint,
		TerminalID: m.TerminalID,
		AuthKey:    m.AuthKey,
	}
}

func (r configRequest) record() settings.Record {
	return settings.Record{
		SSID:       r.SSID,
		Password:   r.Password,
		Endpoint:   r.Endpoint,
		TerminalID: r.TerminalID,
		AuthKey:    r.AuthKey,
	}
}
