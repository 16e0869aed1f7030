package domain

import (
	"fmt"
	"time"
)

// OutbreakThreshold is the cumulative positive count that marks onset.
const OutbreakThreshold = 100

// OnsetStatus distinguishes a reached onset from "never reached" and from
// "no usable data", which a bare days-since value of 0 cannot.
type OnsetStatus int

const (
	OnsetNoData OnsetStatus = iota
	OnsetNotReached
	OnsetReached
)

func (s OnsetStatus) String() string {
	switch s {
	case OnsetNotReached:
		return "not_reached"
	case OnsetReached:
		return "reached"
	default:
		return "no_data"
	}
}

func (s OnsetStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OnsetStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "no_data":
		*s = OnsetNoData
	case "not_reached":
		*s = OnsetNotReached
	case "reached":
		*s = OnsetReached
	default:
		return fmt.Errorf("unknown onset status %q", text)
	}
	return nil
}

// OutbreakRecord is a region's onset date and the whole days elapsed since.
// DaysSince is 0 unless Status is OnsetReached.
type OutbreakRecord struct {
	Status    OnsetStatus `json:"status"`
	Date      time.Time   `json:"date,omitzero"`
	DaysSince int         `json:"days_since"`
}

func (r OutbreakRecord) Reached() bool {
	return r.Status == OnsetReached
}

// outbreakOnset finds the first date whose cumulative positive count reaches
// OutbreakThreshold. The series must be sorted ascending.
func outbreakOnset(s Series, now time.Time) OutbreakRecord {
	anyPositive := false
	for _, obs := range s {
		pos, ok := obs.Positive.Get()
		if !ok {
			continue
		}
		anyPositive = true
		if pos >= OutbreakThreshold {
			days := int(now.Sub(obs.Date).Hours() / 24)
			return OutbreakRecord{Status: OnsetReached, Date: obs.Date, DaysSince: max(days, 0)}
		}
	}
	if !anyPositive {
		return OutbreakRecord{Status: OnsetNoData}
	}
	return OutbreakRecord{Status: OnsetNotReached}
}
