package tele

import (
	"context"

	"github.com/ascentio/climbwatch/log2"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

// Transport contract:
// - Init fails only with invalid config, ignores network errors
// - Send* return false to request a retry from the outbox worker
// - hide "connection" concept from upstream; the device may start offline
// - assume worst network quality: loss, reorder, duplicates
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, onRequest RequestCallback) error
	CloseTele()
	SendTelemetry(payload []byte) bool
	SendTelegram(payload []byte) bool
}

type RequestCallback func(context.Context, []byte) bool
