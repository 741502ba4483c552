// sensor-probe is a bench diagnostic: read every sensor once and print raw
// values. Useful to verify wiring before flashing the full firmware.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/ascentio/climbwatch/internal/sensors"
	"github.com/ascentio/climbwatch/log2"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagBus := cmdline.String("bus", "1", "i2c bus name or number")
	flagBaro := cmdline.Int("baro", sensors.DefaultBaroAddr, "barometer i2c address")
	flagAccel := cmdline.Int("accel", sensors.DefaultAccelAddr, "accelerometer i2c address")
	flagGps := cmdline.String("gps", "", "NMEA serial device, empty to skip")
	flagLoop := cmdline.Bool("loop", false, "keep reading every second")
	_ = cmdline.Parse(os.Args[1:])

	if _, err := host.Init(); err != nil {
		log.Fatalf("periph init err=%v", err)
	}
	bus, err := i2creg.Open(*flagBus)
	if err != nil {
		log.Fatalf("i2c bus=%s err=%v", *flagBus, err)
	}
	defer bus.Close()

	baro, err := sensors.NewBME280(bus, uint16(*flagBaro))
	if err != nil {
		log.Errorf("baro addr=%#x err=%v", *flagBaro, err)
	}
	accel, err := sensors.NewLIS3DH(bus, uint16(*flagAccel))
	if err != nil {
		log.Errorf("accel addr=%#x err=%v", *flagAccel, err)
	}
	var gps *sensors.NMEAReader
	if *flagGps != "" {
		if gps, err = sensors.NewNMEAReader(log, *flagGps); err != nil {
			log.Errorf("gps device=%s err=%v", *flagGps, err)
		}
	}

	for {
		if baro != nil {
			if c, err := baro.Read(); err != nil {
				log.Errorf("baro read err=%v", err)
			} else {
				fmt.Printf("baro alt=%.1fm temp=%.1fC humidity=%.0f%%\n",
					c.AltitudeM, c.TemperatureC, c.HumidityPct)
			}
		}
		if accel != nil {
			if g, err := accel.ReadG(); err != nil {
				log.Errorf("accel read err=%v", err)
			} else {
				fmt.Printf("accel magnitude=%.3fg\n", g)
			}
		}
		if gps != nil {
			fix := gps.Fix()
			fmt.Printf("gps valid=%t lat=%.5f lon=%.5f alt=%.1fm\n",
				fix.Valid, fix.Latitude, fix.Longitude, fix.AltitudeM)
		}
		if !*flagLoop {
			return
		}
		time.Sleep(time.Second)
	}
}
