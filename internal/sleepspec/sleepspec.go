// Package sleepspec parses the -s/--sleep-interval argument: a non-negative
// rational number of seconds in integer or dotted-decimal form.
package sleepspec

import (
	"fmt"
	"strconv"
	"time"
)

// Parse parses raw as a non-negative number of seconds. Negative and
// malformed inputs fail with "invalid number of seconds: '<raw>'".
func Parse(raw string) (time.Duration, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid number of seconds: '%s'", raw)
	}
	return time.Duration(f * float64(time.Second)), nil
}
