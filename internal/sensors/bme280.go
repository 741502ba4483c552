package sensors

import (
	"github.com/juju/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/bmxx80"
)

const DefaultBaroAddr = 0x76

// BME280 reads altitude/temperature/humidity from a Bosch BME280 class
// sensor over I2C. Altitude is derived from station pressure.
type BME280 struct {
	dev *bmxx80.Dev
}

var _ Barometer = new(BME280)

func NewBME280(bus i2c.Bus, addr uint16) (*BME280, error) {
	if addr == 0 {
		addr = DefaultBaroAddr
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, errors.Annotatef(err, "bme280 addr=%#x", addr)
	}
	return &BME280{dev: dev}, nil
}

func (b *BME280) Read() (Climate, error) {
	env := physic.Env{}
	if err := b.dev.Sense(&env); err != nil {
		return Climate{}, errors.Annotate(err, "bme280 sense")
	}
	pressurePa := float64(env.Pressure) / float64(physic.Pascal)
	return Climate{
		AltitudeM:    PressureAltitude(pressurePa),
		TemperatureC: env.Temperature.Celsius(),
		HumidityPct:  float64(env.Humidity) / float64(physic.PercentRH),
	}, nil
}

func (b *BME280) Close() error { return b.dev.Halt() }
