// Package situation maps game states onto the discrete keys and matching windows
// used to find comparable historical plays.
package situation

import (
	"strconv"

	"github.com/pable/playcall/internal/model"
)

// Clock limits for a single quarter, in seconds.
const (
	quarterSeconds = 15 * 60
	clockLeeway    = 90
)

// Code builds the five-digit situational fingerprint by concatenating:
// quarter, down, distance bucket, yard-line tens digit, clock bucket.
// Distances 0 and 1-3 share bucket 0.
func Code(quarter, down, toGo, yardLine, minutes, seconds int) string {
	b := make([]byte, 0, 5)
	b = strconv.AppendInt(b, int64(quarter), 10)
	b = strconv.AppendInt(b, int64(down), 10)
	b = append(b, toGoBucket(toGo))
	b = strconv.AppendInt(b, int64(yardLine/10), 10)
	b = append(b, clockBucket(minutes*60+seconds))
	return string(b)
}

// CodeOf returns the fingerprint of a historical play.
func CodeOf(p *model.Play) string {
	return Code(p.Quarter, p.Down, p.ToGo, p.YardLine, p.Minutes, p.Seconds)
}

// CodeOfSituation returns the fingerprint of a query.
func CodeOfSituation(s model.Situation) string {
	return Code(s.Quarter, s.Down, s.ToGo, s.YardLine, s.Minutes, s.Seconds)
}

func toGoBucket(toGo int) byte {
	switch {
	case toGo >= 21:
		return '4'
	case toGo >= 14:
		return '3'
	case toGo >= 8:
		return '2'
	case toGo >= 4:
		return '1'
	default:
		return '0'
	}
}

func clockBucket(remaining int) byte {
	switch {
	case remaining >= 451 && remaining <= 900:
		return '0'
	case remaining >= 271 && remaining <= 450:
		return '1'
	case remaining >= 121 && remaining <= 270:
		return '2'
	default:
		return '3'
	}
}

// Bounds is an inclusive [Lo, Hi] range.
type Bounds struct {
	Lo, Hi int
}

// Contains reports whether v lies inside the range.
func (b Bounds) Contains(v int) bool {
	return v >= b.Lo && v <= b.Hi
}

// TimeBounds returns the clock +/- 1:30 window, clamped to 0:00-15:00 and
// expressed in the TimeAsInt encoding.
func TimeBounds(minutes, seconds int) Bounds {
	t := minutes*60 + seconds
	lo := max(t-clockLeeway, 0)
	hi := min(t+clockLeeway, quarterSeconds)
	return Bounds{
		Lo: model.TimeAsInt(lo/60, lo%60),
		Hi: model.TimeAsInt(hi/60, hi%60),
	}
}

// ToGoBounds is distance +/- 1 clamped to [1,99]; a distance of 0 matches only 0.
func ToGoBounds(toGo int) Bounds {
	if toGo == 0 {
		return Bounds{0, 0}
	}
	return Bounds{Lo: max(toGo-1, 1), Hi: min(toGo+1, 99)}
}

// YardLineBounds is yardLine +/- leeway clamped to [0,99].
func YardLineBounds(yardLine, leeway int) Bounds {
	return Bounds{Lo: max(yardLine-leeway, 0), Hi: min(yardLine+leeway, 99)}
}
