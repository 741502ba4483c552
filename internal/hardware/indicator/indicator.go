// Package indicator drives the RGB status LED and the piezo buzzer
// through gpiochip lines.
package indicator

import (
	"strconv"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	gpio "github.com/temoto/gpio-cdev-go"

	"github.com/ascentio/climbwatch/internal/session"
	"github.com/ascentio/climbwatch/log2"
)

const blinkPhase = 500 * time.Millisecond

type PinMap struct {
	R      string `hcl:"r"`
	G      string `hcl:"g"`
	B      string `hcl:"b"`
	Buzzer string `hcl:"buzzer"`
}

type Indicator struct {
	log   *log2.Log
	chip  gpio.Chiper
	lines gpio.Lineser
	pinR  gpio.LineSetFunc
	pinG  gpio.LineSetFunc
	pinB  gpio.LineSetFunc
	pinBz gpio.LineSetFunc
	alive *alive.Alive

	mu    sync.Mutex
	color session.Color
	blink bool

	beepCh chan time.Duration
}

var _ session.Indicator = new(Indicator)

func NewIndicator(log *log2.Log, chipName string, pinmap PinMap) (*Indicator, error) {
	ind := &Indicator{
		log:    log,
		alive:  alive.NewAlive(),
		beepCh: make(chan time.Duration, 4),
	}
	var err error
	ind.chip, err = gpio.Open(chipName, "indicator")
	if err != nil {
		return nil, errors.Annotatef(err, "indicator chip=%s", chipName)
	}
	nR := mustAtou32(pinmap.R)
	nG := mustAtou32(pinmap.G)
	nB := mustAtou32(pinmap.B)
	nBz := mustAtou32(pinmap.Buzzer)
	ind.lines, err = ind.chip.OpenLines(
		gpio.GPIOHANDLE_REQUEST_OUTPUT, "indicator",
		nR, nG, nB, nBz,
	)
	if err != nil {
		ind.chip.Close()
		return nil, errors.Annotate(err, "indicator lines")
	}
	ind.pinR = ind.lines.SetFunc(nR)
	ind.pinG = ind.lines.SetFunc(nG)
	ind.pinB = ind.lines.SetFunc(nB)
	ind.pinBz = ind.lines.SetFunc(nBz)

	ind.alive.Add(2)
	go ind.blinkLoop()
	go ind.beepLoop()
	return ind, nil
}

func (ind *Indicator) Set(c session.Color, blink bool) {
	ind.mu.Lock()
	ind.color = c
	ind.blink = blink
	ind.mu.Unlock()
	ind.apply(true)
}

func (ind *Indicator) Beep(d time.Duration) {
	select {
	case ind.beepCh <- d:
	default:
		// pending beep already covers it
	}
}

func (ind *Indicator) Close() {
	ind.alive.Stop()
	ind.alive.Wait()
	ind.mu.Lock()
	ind.color = session.ColorOff
	ind.blink = false
	ind.mu.Unlock()
	ind.apply(false)
	ind.lines.Close()
	ind.chip.Close()
}

// apply writes the LED lines; phase=false shows the dark half of a blink.
// mu guards both state and the shared line buffer.
func (ind *Indicator) apply(phase bool) {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	c := ind.color
	if !phase {
		c = session.ColorOff
	}
	var r, g, b byte
	switch c {
	case session.ColorGreen:
		g = 1
	case session.ColorBlue:
		b = 1
	case session.ColorRed:
		r = 1
	}
	ind.pinR(r)
	ind.pinG(g)
	ind.pinB(b)
	if err := ind.lines.Flush(); err != nil {
		ind.log.Errorf("indicator flush err=%v", err)
	}
}

func (ind *Indicator) blinkLoop() {
	defer ind.alive.Done()
	stopch := ind.alive.StopChan()
	phase := true
	for {
		select {
		case <-time.After(blinkPhase):
			ind.mu.Lock()
			blink := ind.blink
			ind.mu.Unlock()
			if blink {
				phase = !phase
				ind.apply(phase)
			} else if !phase {
				phase = true
				ind.apply(phase)
			}
		case <-stopch:
			return
		}
	}
}

func (ind *Indicator) beepLoop() {
	defer ind.alive.Done()
	stopch := ind.alive.StopChan()
	for {
		select {
		case d := <-ind.beepCh:
			ind.buzzer(1)
			time.Sleep(d)
			ind.buzzer(0)
		case <-stopch:
			return
		}
	}
}

func (ind *Indicator) buzzer(v byte) {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.pinBz(v)
	if err := ind.lines.Flush(); err != nil {
		ind.log.Errorf("indicator buzzer err=%v", err)
	}
}

func mustAtou32(s string) uint32 {
	x, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		panic("indicator pin must be number: " + s)
	}
	return uint32(x)
}
