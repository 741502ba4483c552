package helpers

import (
	"strings"
	"time"

	"github.com/juju/errors"
)

// FoldErrors flattens nil-mixed error list into one error or nil.
func FoldErrors(errs []error) error {
	ss := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
		}
	}
	if len(ss) == 0 {
		return nil
	}
	return errors.Errorf(strings.Join(ss, "\n"))
}

// Config values of 0 mean "not set, use default".

func IntSecondDefault(x int, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * time.Second
}

func IntMillisecondDefault(x int, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * time.Millisecond
}

func IntDefault(x int, def int) int {
	if x == 0 {
		return def
	}
	return x
}

func FloatDefault(x float64, def float64) float64 {
	if x == 0 {
		return def
	}
	return x
}
