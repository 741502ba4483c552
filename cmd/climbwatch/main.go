// climbwatch is the climbing companion firmware: session tracking, fall
// detection with a cancellable local alarm, telemetry to the collector.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"

	"github.com/ascentio/climbwatch/internal/session"
	"github.com/ascentio/climbwatch/internal/state"
	"github.com/ascentio/climbwatch/internal/tele"
	"github.com/ascentio/climbwatch/log2"
)

// set by script/build via ldflags
var BuildVersion string = "unknown"

const tickInterval = 100 * time.Millisecond

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "climbwatch.hcl", "")
	flagVersion := cmdline.Bool("version", false, "print build version and exit")
	_ = cmdline.Parse(os.Args[1:])
	if *flagVersion {
		fmt.Printf("climbwatch %s\n", BuildVersion)
		return
	}

	logger := log2.NewStderr(log2.LDebug)
	if sdnotify("start") {
		// under systemd, journal already timestamps
		logger.SetFlags(log2.LServiceFlags)
	} else {
		logger.SetFlags(log2.LInteractiveFlags)
	}
	logger.Infof("climbwatch version=%s", BuildVersion)

	ctx, g := state.NewContext(logger, tele.New())
	g.BuildVersion = BuildVersion
	g.MustInit(ctx, state.MustReadConfig(logger, state.NewOsFullReader(), *flagConfig))
	logger.Debugf("config=%+v", g.Config)

	// a device that cannot sense or raise alarm must not pretend to work
	baro, err := g.Baro()
	g.Fatal(errors.Annotate(err, "boot baro"))
	accel, err := g.Accel()
	g.Fatal(errors.Annotate(err, "boot accel"))
	gps, err := g.GPS()
	g.Fatal(errors.Annotate(err, "boot gps"))
	ind, err := g.Indicator()
	g.Fatal(errors.Annotate(err, "boot indicator"))

	controller := session.NewController(session.Deps{
		Log:   logger,
		Tele:  g.Tele,
		Baro:  baro,
		Accel: accel,
		GPS:   gps,
		Ind:   ind,
	}, g.Config.SessionConfig())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Infof("stop signal")
		g.Stop()
	}()

	events := g.Hardware.Input.SubscribeChan("main", g.Alive.StopChan())

	sdnotify(daemon.SdNotifyReady)
	logger.Infof("init complete, running")

	tick := time.NewTicker(tickInterval)
	stopch := g.Alive.StopChan()
	for {
		select {
		case ev := <-events:
			if !ev.Up { // act on press, ignore release
				controller.Button(ctx)
			}

		case <-tick.C:
			controller.Tick(ctx)

		case <-stopch:
			tick.Stop()
			g.Tele.Close()
			g.Alive.Wait()
			logger.Infof("stopped")
			return
		}
	}
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
