package telemetry

import "encoding/json"

// MetricType selects between a gauge and a counter; both variants share
// the same field set on the wire, differing only in the "type" tag.
type MetricType string

const (
	MetricTypeGauge   MetricType = "gauge"
	MetricTypeCounter MetricType = "count"
)

// Point is one (timestamp, value) observation.
type Point struct {
	Timestamp uint64
	Value     float64
}

// MarshalJSON renders a Point as a two-element JSON array: [timestamp, value].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.Timestamp, p.Value})
}

// UnmarshalJSON parses the [timestamp, value] array MarshalJSON writes.
func (p *Point) UnmarshalJSON(data []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[0], &p.Timestamp); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &p.Value)
}

// Metric is one named metric series with its points and tags.
type Metric struct {
	Type   MetricType `json:"type"`
	Metric string     `json:"metric"`
	Points []Point    `json:"points"`
	Tags   []string   `json:"tags,omitempty"`
	Common bool       `json:"common"`
}

// NewGauge builds a gauge Metric carrying a single point.
func NewGauge(name string, timestamp uint64, value float64, tags []string) Metric {
	return Metric{
		Type:   MetricTypeGauge,
		Metric: name,
		Points: []Point{{Timestamp: timestamp, Value: value}},
		Tags:   tags,
	}
}

// NewCounter builds a counter Metric carrying a single point.
func NewCounter(name string, timestamp uint64, value float64, tags []string) Metric {
	return Metric{
		Type:   MetricTypeCounter,
		Metric: name,
		Points: []Point{{Timestamp: timestamp, Value: value}},
		Tags:   tags,
	}
}
