package chrono

import "time"

type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reads the wall clock in a fixed location, the console
// reports by month so the location decides which month "now" falls in.
type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl(name string) (StandardImpl, error) {
	if name == "" {
		name = "UTC"
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, for tests.
type FixedImpl struct {
	Time time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.Time
}

func (f FixedImpl) Location() *time.Location {
	return f.Time.Location()
}

// PreviousMonths returns the (year, month) pairs of the `n` months before
// now's month, most recent first.
func PreviousMonths(now time.Time, n int) [][2]int {
	out := make([][2]int, 0, n)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 1; i <= n; i++ {
		month := start.AddDate(0, -i, 0)
		out = append(out, [2]int{month.Year(), int(month.Month())})
	}
	return out
}
