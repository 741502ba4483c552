package tele

import (
	"context"

	"github.com/ascentio/climbwatch/log2"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

func NewStub() Teler { return stub{} }

type stub struct{}

func (stub) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }
func (stub) Close()                                                    {}
func (stub) SessionStart(*StartReport)                                 {}
func (stub) SessionTrace(*TraceReport)                                 {}
func (stub) SessionEnd(*EndReport)                                     {}
func (stub) Incident(*IncidentReport)                                  {}
func (stub) StatusResponse(*StatusResponse)                            {}
func (stub) TakeRequest() (Request, bool)                              { return Request{}, false }
