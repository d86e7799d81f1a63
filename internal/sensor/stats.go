package sensor

import "time"

// Stats summarises a set of sensor records.
type Stats struct {
	Count int       `json:"count"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Mean  float64   `json:"mean"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// Summarise computes summary statistics over records. Records are
// expected in ascending time order, as Planner.Run returns them.
// An empty input yields a zero Stats.
func Summarise(records []Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	s := Stats{
		Count: len(records),
		Min:   records[0].Value,
		Max:   records[0].Value,
		First: records[0].Time,
		Last:  records[len(records)-1].Time,
	}

	var sum float64
	for _, r := range records {
		if r.Value < s.Min {
			s.Min = r.Value
		}
		if r.Value > s.Max {
			s.Max = r.Value
		}
		sum += r.Value
	}
	s.Mean = sum / float64(len(records))
	return s
}
