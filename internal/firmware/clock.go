package firmware

import "time"

// Clock backs the delay call.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// WallClock sleeps for real, stretched or shrunk by Scale. Scale <= 0 means 1.
type WallClock struct {
	Scale float64
}

func (c WallClock) Now() time.Time {
	return time.Now()
}

func (c WallClock) Sleep(d time.Duration) {
	if c.Scale > 0 {
		d = time.Duration(float64(d) * c.Scale)
	}
	time.Sleep(d)
}
