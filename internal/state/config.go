package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/ascentio/climbwatch/helpers"
	"github.com/ascentio/climbwatch/internal/hardware/indicator"
	"github.com/ascentio/climbwatch/internal/session"
	"github.com/ascentio/climbwatch/log2"
	tele_config "github.com/ascentio/climbwatch/tele/config"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Device struct {
		Serial string `hcl:"serial"`
	}

	Hardware struct {
		I2CBus string `hcl:"i2c_bus"`
		Baro   struct {
			Enable bool `hcl:"enable"`
			Addr   int  `hcl:"addr"`
		} `hcl:"baro"`
		Accel struct {
			Enable bool `hcl:"enable"`
			Addr   int  `hcl:"addr"`
		} `hcl:"accel"`
		GPS struct {
			Enable bool   `hcl:"enable"`
			Device string `hcl:"device"`
		} `hcl:"gps"`
		Input struct {
			GpioButton struct {
				Enable  bool   `hcl:"enable"`
				PinChip string `hcl:"pin_chip"`
				Pin     int    `hcl:"pin"`
			} `hcl:"gpio_button"`
			DevInputEvent struct {
				Enable bool   `hcl:"enable"`
				Device string `hcl:"device"`
			} `hcl:"dev_input_event"`
		}
		Indicator struct {
			Enable  bool             `hcl:"enable"`
			PinChip string           `hcl:"pin_chip"`
			Pinmap  indicator.PinMap `hcl:"pinmap"`
		} `hcl:"indicator"`
	}

	Session struct { //nolint:maligned
		SampleIntervalMs  int     `hcl:"sample_interval_ms"`
		TraceCapacity     int     `hcl:"trace_capacity"`
		AlarmWaitSec      int     `hcl:"alarm_wait_sec"`
		AlarmBeepEverySec int     `hcl:"alarm_beep_every_sec"`
		FreeFallG         float64 `hcl:"free_fall_g"`
		ImpactG           float64 `hcl:"impact_g"`
		StillMinG         float64 `hcl:"still_min_g"`
		StillMaxG         float64 `hcl:"still_max_g"`
		FallGraceSec      int     `hcl:"fall_grace_sec"`
		FallConfirmSec    int     `hcl:"fall_confirm_sec"`
		DefaultLatitude   float64 `hcl:"default_latitude"`
		DefaultLongitude  float64 `hcl:"default_longitude"`
	}

	Persist struct {
		Root string `hcl:"root"`
	}
	Tele tele_config.Config

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// SessionConfig converts the flat HCL numbers to engine tuning.
// Zero values fall back to operational defaults downstream.
func (c *Config) SessionConfig() session.Config {
	s := &c.Session
	return session.Config{
		SampleInterval:   helpers.IntMillisecondDefault(s.SampleIntervalMs, 0),
		TraceCapacity:    s.TraceCapacity,
		AlarmWait:        helpers.IntSecondDefault(s.AlarmWaitSec, 0),
		AlarmBeepEvery:   helpers.IntSecondDefault(s.AlarmBeepEverySec, 0),
		FreeFallG:        s.FreeFallG,
		ImpactG:          s.ImpactG,
		StillMinG:        s.StillMinG,
		StillMaxG:        s.StillMaxG,
		FallGrace:        helpers.IntSecondDefault(s.FallGraceSec, 0),
		FallConfirm:      helpers.IntSecondDefault(s.FallConfirmSec, 0),
		DefaultLatitude:  s.DefaultLatitude,
		DefaultLongitude: s.DefaultLongitude,
	}
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
			return
		}
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
