package sensors

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/ascentio/climbwatch/log2"
)

// NMEAReader consumes GGA sentences from a serial GPS receiver in the
// background and caches the latest fix. Fix() never blocks.
type NMEAReader struct {
	log   *log2.Log
	alive *alive.Alive
	r     io.ReadCloser
	mu    sync.Mutex
	fix   Fix
}

var _ GPS = new(NMEAReader)

func NewNMEAReader(log *log2.Log, device string) (*NMEAReader, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "gps device=%s", device)
	}
	g := &NMEAReader{
		log:   log,
		alive: alive.NewAlive(),
		r:     f,
	}
	go g.readLoop()
	return g, nil
}

func (g *NMEAReader) Fix() Fix {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fix
}

func (g *NMEAReader) Close() error {
	g.alive.Stop()
	err := g.r.Close()
	g.alive.Wait()
	return err
}

func (g *NMEAReader) readLoop() {
	g.alive.Add(1)
	defer g.alive.Done()

	scan := bufio.NewScanner(g.r)
	for scan.Scan() && g.alive.IsRunning() {
		fix, ok, err := ParseGGA(scan.Text())
		if err != nil {
			g.log.Debugf("gps skip line err=%v", err)
			continue
		}
		if !ok {
			continue
		}
		g.mu.Lock()
		g.fix = fix
		g.mu.Unlock()
	}
	if err := scan.Err(); err != nil && g.alive.IsRunning() {
		g.log.Errorf("gps read err=%v", err)
	}
}

// ParseGGA parses one $--GGA sentence. ok=false for other sentence types
// and for GGA without a fix (quality 0).
func ParseGGA(line string) (Fix, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, false, nil
	}
	body := line[1:]
	if i := strings.IndexByte(body, '*'); i >= 0 {
		sum := byte(0)
		for j := 0; j < i; j++ {
			sum ^= body[j]
		}
		want, err := strconv.ParseUint(body[i+1:], 16, 8)
		if err != nil || byte(want) != sum {
			return Fix{}, false, errors.Errorf("nmea checksum line=%s", line)
		}
		body = body[:i]
	}
	fields := strings.Split(body, ",")
	if len(fields) < 10 || !strings.HasSuffix(fields[0], "GGA") {
		return Fix{}, false, nil
	}
	quality := fields[6]
	if quality == "" || quality == "0" {
		return Fix{}, false, nil
	}
	lat, err := nmeaCoord(fields[2], fields[3], 2)
	if err != nil {
		return Fix{}, false, errors.Annotate(err, "nmea lat")
	}
	lon, err := nmeaCoord(fields[4], fields[5], 3)
	if err != nil {
		return Fix{}, false, errors.Annotate(err, "nmea lon")
	}
	alt, err := strconv.ParseFloat(fields[9], 64)
	if err != nil {
		return Fix{}, false, errors.Annotate(err, "nmea alt")
	}
	return Fix{Valid: true, Latitude: lat, Longitude: lon, AltitudeM: alt}, true, nil
}

// nmeaCoord converts ddmm.mmmm (degDigits=2) or dddmm.mmmm (degDigits=3)
// plus hemisphere letter to signed decimal degrees.
func nmeaCoord(s, hemi string, degDigits int) (float64, error) {
	if len(s) <= degDigits {
		return 0, errors.Errorf("coord=%q", s)
	}
	deg, err := strconv.ParseFloat(s[:degDigits], 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(s[degDigits:], 64)
	if err != nil {
		return 0, err
	}
	v := deg + min/60.0
	switch hemi {
	case "S", "W":
		v = -v
	case "N", "E":
	default:
		return 0, errors.Errorf("hemisphere=%q", hemi)
	}
	return v, nil
}
