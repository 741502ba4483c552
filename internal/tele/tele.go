// Package tele delivers session reports to the collector and receives
// status-check requests, backed by a persistent outbox so telemetry and
// emergencies survive restarts and connectivity gaps.
package tele

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/spq"

	"github.com/ascentio/climbwatch/log2"
	tele_api "github.com/ascentio/climbwatch/tele"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

const logMsgDisabled = "tele disabled"

// tele contract mirrors tele_api.Teler:
// - Init() fails only with invalid config, network issues ignored
// - report methods block at most for a disk write, delivery is background
// - telemetry/incident/telegram messages delivered at least once
// - presence status may be lost
type tele struct {
	config    tele_config.Config
	log       *log2.Log
	transport Transporter
	q         *spq.Queue
	stopCh    chan struct{}

	mu         sync.Mutex
	pending    tele_api.Request
	hasPending bool
}

func New() tele_api.Teler { return &tele{} }

func NewWithTransporter(trans Transporter) tele_api.Teler { return &tele{transport: trans} }

func (t *tele) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	t.config = teleConfig
	t.log = log
	if t.config.LogDebug {
		t.log.SetLevel(log2.LDebug)
	}
	t.stopCh = make(chan struct{})

	if t.transport == nil { // production path
		t.transport = &transportMqtt{}
	}
	if err := t.transport.Init(ctx, log, teleConfig, t.onRequestMessage); err != nil {
		return errors.Annotate(err, "tele transport")
	}
	if !t.config.Enabled {
		return nil
	}

	if t.config.PersistPath == "" {
		panic("code error must set config.PersistPath")
	}
	var err error
	t.q, err = spq.Open(t.config.PersistPath)
	if err != nil {
		return errors.Annotate(err, "tele queue")
	}

	go t.qworker()
	return nil
}

func (t *tele) Close() {
	close(t.stopCh)
	if t.q != nil {
		t.q.Close()
	}
	t.transport.CloseTele()
}

// denote value type in persistent queue bytes form
const (
	qTelemetry byte = 1
	qTelegram  byte = 2
)

func (t *tele) qworker() {
	for {
		box, err := t.q.Peek()
		switch err {
		case nil:
			// success path
			b := box.Bytes()
			var del bool
			del, err = t.qhandle(b)
			if err != nil {
				t.log.Errorf("tele qhandle b=%x err=%v", b, err)
			}
			if del {
				if err = t.q.Delete(box); err != nil {
					t.log.Errorf("tele qhandle Delete b=%x err=%v", b, err)
				}
			} else {
				if err = t.q.DeletePush(box); err != nil {
					t.log.Errorf("tele qhandle DeletePush b=%x err=%v", b, err)
				}
			}

		case spq.ErrClosed:
			select {
			case <-t.stopCh: // success path
			default:
				t.log.Errorf("CRITICAL tele spq closed unexpectedly")
			}
			return

		default:
			t.log.Errorf("CRITICAL tele spq err=%v", err)
			// here will go yet unhandled shit like disk full
		}
	}
}

func (t *tele) qhandle(b []byte) (bool, error) {
	if len(b) == 0 {
		t.log.Errorf("tele spq peek=empty")
		// what else can we do?
		return true, nil
	}

	switch b[0] {
	case qTelemetry:
		return t.transport.SendTelemetry(b[1:]), nil

	case qTelegram:
		return t.transport.SendTelegram(b[1:]), nil

	default:
		return true, errors.Errorf("unknown kind=%d", b[0])
	}
}

func (t *tele) qpush(tag byte, v interface{}) {
	if !t.config.Enabled {
		t.log.Infof(logMsgDisabled)
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		t.log.Errorf("CRITICAL tele marshal v=%#v err=%v", v, err)
		return
	}
	buf := make([]byte, 0, 1+len(payload))
	buf = append(buf, tag)
	buf = append(buf, payload...)
	if err := t.q.Push(buf); err != nil {
		t.log.Errorf("CRITICAL tele qpush tag=%d err=%v", tag, err)
	}
}

func (t *tele) SessionStart(r *tele_api.StartReport) { t.qpush(qTelemetry, r) }

func (t *tele) SessionTrace(r *tele_api.TraceReport) { t.qpush(qTelemetry, r) }

func (t *tele) SessionEnd(r *tele_api.EndReport) { t.qpush(qTelemetry, r) }

func (t *tele) Incident(r *tele_api.IncidentReport) { t.qpush(qTelemetry, r) }

func (t *tele) StatusResponse(r *tele_api.StatusResponse) { t.qpush(qTelegram, r) }

func (t *tele) TakeRequest() (tele_api.Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasPending {
		return tele_api.Request{}, false
	}
	t.hasPending = false
	return t.pending, true
}

// onRequestMessage parses one inbound payload. Malformed requests are
// dropped silently. Single pending slot, last-request-wins.
func (t *tele) onRequestMessage(ctx context.Context, payload []byte) bool {
	req := tele_api.Request{}
	if err := json.Unmarshal(payload, &req); err != nil {
		t.log.Debugf("tele request parse raw=%x err=%v", payload, err)
		return true
	}
	if !req.Valid() {
		t.log.Debugf("tele request invalid raw=%s", payload)
		return true
	}

	t.mu.Lock()
	t.pending = req
	t.hasPending = true
	t.mu.Unlock()
	t.log.Debugf("tele request pending chat_id=%d", req.ChatID)
	return true
}
