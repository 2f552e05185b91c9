package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

type ServerTimeResponse struct {
	ServerTime string `json:"server_time"`
	Timezone   string `json:"timezone"`
	Date       string `json:"date"`
}

// ServerTime reports the clock and calendar day the server stamps events with, so
// clients can detect skew.
func ServerTime(now func() time.Time, loc *time.Location) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		t := now().In(loc)
		response.Success(w, ServerTimeResponse{
			ServerTime: t.Format(time.RFC3339),
			Timezone:   loc.String(),
			Date:       calendar.DayOf(t, loc).String(),
		})
	}
}
