// Package tele defines the device's wire surface towards the collector.
// One JSON object per MQTT message. Field names are the collector's contract,
// do not rename.
package tele

import (
	"context"

	"github.com/ascentio/climbwatch/log2"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

// Device presence, retained on the status topic. Also used as MQTT will.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type StatusReport struct {
	Status string `json:"status"`
}

// TracePoint is one sample of the climb: height is meters relative to the
// session baseline, time is seconds since session start.
type TracePoint struct {
	Height float64 `json:"height"`
	Time   float64 `json:"time"`
}

// StartReport is the environment snapshot taken at session start.
type StartReport struct {
	SessionState string  `json:"session_state"`
	SessionID    string  `json:"session_id"`
	Alt          float64 `json:"alt"`
	Temp         float64 `json:"temp"`
	Humidity     float64 `json:"humidity"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type TraceReport struct {
	SessionState string       `json:"session_state"`
	SessionID    string       `json:"session_id"`
	Trace        []TracePoint `json:"trace"`
}

// EndReport Time is total session duration in seconds.
type EndReport struct {
	SessionState string  `json:"session_state"`
	SessionID    string  `json:"session_id"`
	Alt          float64 `json:"alt"`
	Time         float64 `json:"time"`
}

// IncidentReport Time is seconds from session start to the incident.
type IncidentReport struct {
	SessionState string  `json:"session_state"`
	SessionID    string  `json:"session_id"`
	Alt          float64 `json:"alt"`
	Time         float64 `json:"time"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// StatusResponse answers a status_check request; ChatID/UserName echo the
// requester identity back so the collector can route the Telegram reply.
type StatusResponse struct {
	ChatID       int64   `json:"chat_id"`
	UserName     string  `json:"user_name"`
	SessionState string  `json:"session_state"`
	SessionID    string  `json:"session_id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Alt          float64 `json:"alt"`
	Temp         float64 `json:"temp"`
	Humidity     float64 `json:"humidity"`
}

const RequestStatusCheck = "status_check"

type Request struct {
	RequestType string `json:"request_type"`
	ChatID      int64  `json:"chat_id"`
	UserName    string `json:"user_name"`
}

func (r *Request) Valid() bool {
	return r.RequestType == RequestStatusCheck && r.ChatID != 0
}

// Teler contract:
// - Init() fails only with invalid config, network issues ignored
// - Session*/Incident/StatusResponse block at most for disk write; delivery
//   happens in background at least once
// - presence status may be lost, everything else survives restarts
// - Close() stops background delivery, undelivered reports stay queued on disk
type Teler interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error
	Close()

	SessionStart(*StartReport)
	SessionTrace(*TraceReport)
	SessionEnd(*EndReport)
	Incident(*IncidentReport)
	StatusResponse(*StatusResponse)

	// TakeRequest pops the pending inbound request, if any.
	// Single slot, last-request-wins.
	TakeRequest() (Request, bool)
}
