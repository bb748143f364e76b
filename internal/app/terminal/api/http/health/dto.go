package health

import "time"

type Input struct{}

type Output struct {
	Body Response
}

// Response describes the access-point window the portal is serving.
type Response struct {
	Status             string    `json:"status" enum:"OK,CLOSING" doc:"CLOSING once the window has elapsed and the terminal is about to reconnect"`
	Provisioned        bool      `json:"provisioned" doc:"Whether the stored configuration is complete"`
	ClosesAt           time.Time `json:"closesAt" doc:"When the access point shuts down and the terminal retries the network"`
	RemainingSeconds   int       `json:"remainingSeconds" minimum:"0"`
	PendingSubmissions int       `json:"pendingSubmissions" minimum:"0" doc:"Submissions queued but not yet picked up by the terminal"`
}

func toResponse(w Window, now time.Time) Response {
	closesAt := w.ClosesAt()
	remaining := closesAt.Sub(now)

	resp := Response{
		Status:             "OK",
		Provisioned:        w.Snapshot().Provisioned(),
		ClosesAt:           closesAt,
		PendingSubmissions: w.Pending(),
	}
	if remaining > 0 {
		resp.RemainingSeconds = int(remaining.Round(time.Second) / time.Second)
	} else {
		resp.Status = "CLOSING"
	}
	return resp
}
