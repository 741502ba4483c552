package sensors

import (
	"github.com/juju/errors"
	"periph.io/x/periph/conn/i2c"
)

const DefaultAccelAddr = 0x18

// LIS3DH register map subset.
const (
	lisRegWhoAmI   = 0x0f
	lisRegCtrl1    = 0x20
	lisRegCtrl4    = 0x23
	lisRegOutXL    = 0x28
	lisWhoAmI      = 0x33
	lisAutoInc     = 0x80
	lisCtrl1Odr100 = 0x57 // 100Hz, XYZ enabled
	lisCtrl4HR2G   = 0x08 // high resolution, +-2g
)

// LIS3DH reads 3-axis acceleration from an ST LIS3DH class sensor over I2C
// and reduces it to magnitude in g.
type LIS3DH struct {
	dev i2c.Dev
}

var _ Accelerometer = new(LIS3DH)

func NewLIS3DH(bus i2c.Bus, addr uint16) (*LIS3DH, error) {
	if addr == 0 {
		addr = DefaultAccelAddr
	}
	a := &LIS3DH{dev: i2c.Dev{Bus: bus, Addr: addr}}

	id := make([]byte, 1)
	if err := a.dev.Tx([]byte{lisRegWhoAmI}, id); err != nil {
		return nil, errors.Annotatef(err, "lis3dh whoami addr=%#x", addr)
	}
	if id[0] != lisWhoAmI {
		return nil, errors.Errorf("lis3dh whoami=%#x expected=%#x", id[0], lisWhoAmI)
	}
	if err := a.dev.Tx([]byte{lisRegCtrl1, lisCtrl1Odr100}, nil); err != nil {
		return nil, errors.Annotate(err, "lis3dh ctrl1")
	}
	if err := a.dev.Tx([]byte{lisRegCtrl4, lisCtrl4HR2G}, nil); err != nil {
		return nil, errors.Annotate(err, "lis3dh ctrl4")
	}
	return a, nil
}

func (a *LIS3DH) ReadG() (float64, error) {
	buf := make([]byte, 6)
	if err := a.dev.Tx([]byte{lisRegOutXL | lisAutoInc}, buf); err != nil {
		return 0, errors.Annotate(err, "lis3dh read")
	}
	x := lisAxisG(buf[0], buf[1])
	y := lisAxisG(buf[2], buf[3])
	z := lisAxisG(buf[4], buf[5])
	return Magnitude(x, y, z), nil
}

// 12-bit left-justified sample, 1mg/LSB at +-2g high resolution.
func lisAxisG(lo, hi byte) float64 {
	raw := int16(uint16(hi)<<8|uint16(lo)) >> 4
	return float64(raw) / 1000.0
}
