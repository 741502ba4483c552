package state

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ascentio/climbwatch/log2"
	tele_api "github.com/ascentio/climbwatch/tele"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, context.Context)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, ctx context.Context) {
			g := GetGlobal(ctx)
			assert.NotEqual(t, "", g.Config.Device.Serial, "serial defaults to hostname")
			assert.NotEqual(t, "", g.Config.Persist.Root)
			assert.NotEqual(t, "", g.Config.Tele.PersistPath)
		}, ""},

		{"device",
			`device { serial = "cw-042" } persist { root = "/var/lib/climbwatch" }`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "cw-042", g.Config.Device.Serial)
				assert.Equal(t, "cw-042", g.Config.Tele.DeviceSerial)
				assert.Equal(t, "/var/lib/climbwatch/tele", g.Config.Tele.PersistPath)
			},
			"",
		},

		{"hardware",
			`hardware {
	i2c_bus = "1"
	baro { enable = true addr = 118 }
	gps { enable = true device = "/dev/ttyS1" }
	input { gpio_button { enable = true pin_chip = "/dev/gpiochip0" pin = 17 } }
}`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "1", g.Config.Hardware.I2CBus)
				assert.True(t, g.Config.Hardware.Baro.Enable)
				assert.Equal(t, 118, g.Config.Hardware.Baro.Addr)
				assert.Equal(t, "/dev/ttyS1", g.Config.Hardware.GPS.Device)
				assert.Equal(t, 17, g.Config.Hardware.Input.GpioButton.Pin)
			},
			"",
		},

		{"session-tuning",
			`session {
	sample_interval_ms = 250
	trace_capacity = 20
	alarm_wait_sec = 45
	impact_g = 5.5
	default_latitude = 45.8
	default_longitude = 6.9
}`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				sc := g.Config.SessionConfig()
				assert.Equal(t, 250*time.Millisecond, sc.SampleInterval)
				assert.Equal(t, 20, sc.TraceCapacity)
				assert.Equal(t, 45*time.Second, sc.AlarmWait)
				assert.InDelta(t, 5.5, sc.ImpactG, 1e-9)
				assert.InDelta(t, 45.8, sc.DefaultLatitude, 1e-9)
				assert.Zero(t, sc.FreeFallG, "unset values stay zero for downstream defaults")
			},
			"",
		},

		{"include-optional", `
include "serial-inc" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "cw-inc", g.Config.Device.Serial)
			}, ""},

		{"include-overwrites", `
device { serial = "cw-base" }
include "serial-inc" {}`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "cw-inc", g.Config.Device.Serial)
			}, ""},

		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			log := log2.NewTest(t, log2.LDebug)
			log.SetFlags(log2.LTestFlags)
			ctx, g := NewContext(log, tele_api.NewStub())
			defer g.Stop()

			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"serial-inc":   `device { serial = "cw-inc" }`,
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if err == nil {
				err = g.Init(ctx, cfg)
			}
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, ctx)
				}
			} else {
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		t.Run(c.name, mkCheck(c))
	}
}
