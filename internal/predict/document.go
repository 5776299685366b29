// Package predict talks to the external forecasting service and validates
// its loosely-typed JSON at the boundary.
package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind classifies a metric value.
type Kind int

const (
	// KindScalar is a single number or string (e.g. total_cases, peak_date).
	KindScalar Kind = iota
	// KindSeries is an ordered sequence of labeled numeric points, either a
	// date-keyed mapping or a plain array of numbers.
	KindSeries
	// KindList is a list of strings (e.g. geographic_spread).
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSeries:
		return "series"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// metricKinds is the declared per-metric type table. Metrics missing from it
// have their kind inferred from the JSON shape.
var metricKinds = map[string]Kind{
	"total_cases":             KindScalar,
	"total_deaths":            KindScalar,
	"new_cases":               KindScalar,
	"new_deaths":              KindScalar,
	"cases_in_period":         KindScalar,
	"deaths_in_period":        KindScalar,
	"cases_in_30d":            KindScalar,
	"deaths_in_30d":           KindScalar,
	"peak_date":               KindScalar,
	"estimated_duration_days": KindScalar,
	"new_countries_next_week": KindScalar,
	"transmission_rate":       KindSeries,
	"mortality_rate":          KindSeries,
	"geographic_spread":       KindList,
}

// SeriesPoint is one labeled value of a time-series metric.
type SeriesPoint struct {
	Label string
	Value float64
}

// MetricValue is the tagged union behind every metric in a prediction
// document. Exactly one of Scalar, Series, List is meaningful per Kind.
type MetricValue struct {
	Kind   Kind
	Scalar any // float64 or string
	Series []SeriesPoint
	List   []string
}

// MarshalJSON renders the value back into the upstream wire shape so the
// GraphQL JSON scalar stays compatible with existing consumers.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindScalar:
		return json.Marshal(v.Scalar)
	case KindList:
		return json.Marshal(v.List)
	case KindSeries:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, p := range v.Series {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(p.Label)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(p.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// Document is a validated prediction response: a historical section, a
// forecast section and human-readable titles per metric.
type Document struct {
	Country     string                 `json:"country,omitempty"`
	Virus       string                 `json:"virus,omitempty"`
	Official    map[string]MetricValue `json:"official"`
	Predictions map[string]MetricValue `json:"predictions"`
	FieldTitles map[string]string      `json:"field_titles,omitempty"`
}

// Metric looks a model key up in the official section first, then in the
// predictions section.
func (d *Document) Metric(name string) (MetricValue, bool) {
	if v, ok := d.Official[name]; ok {
		return v, true
	}
	if v, ok := d.Predictions[name]; ok {
		return v, true
	}
	return MetricValue{}, false
}

// Title returns the human-readable title for a metric, falling back to the
// metric key itself.
func (d *Document) Title(name string) string {
	if t, ok := d.FieldTitles[name]; ok && t != "" {
		return t
	}
	return name
}

type rawDocument struct {
	Country     string                     `json:"country"`
	Virus       string                     `json:"virus"`
	Official    map[string]json.RawMessage `json:"official"`
	Predictions map[string]json.RawMessage `json:"predictions"`
	FieldTitles map[string]string          `json:"field_titles"`
}

// ParseDocument validates an upstream body. Metrics whose shape contradicts
// the declared type table are dropped and reported in the returned slice;
// the rest of the document stays usable.
func ParseDocument(body []byte) (*Document, []error, error) {
	var raw rawDocument
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode prediction document: %w", err)
	}

	doc := &Document{
		Country:     raw.Country,
		Virus:       raw.Virus,
		Official:    make(map[string]MetricValue, len(raw.Official)),
		Predictions: make(map[string]MetricValue, len(raw.Predictions)),
		FieldTitles: raw.FieldTitles,
	}

	var dropped []error
	for name, rawValue := range raw.Official {
		value, err := parseMetric(name, rawValue)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("official.%s: %w", name, err))
			continue
		}
		doc.Official[name] = value
	}
	for name, rawValue := range raw.Predictions {
		value, err := parseMetric(name, rawValue)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("predictions.%s: %w", name, err))
			continue
		}
		doc.Predictions[name] = value
	}
	return doc, dropped, nil
}

func parseMetric(name string, raw json.RawMessage) (MetricValue, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return MetricValue{}, err
	}
	value, err := classify(decoded)
	if err != nil {
		return MetricValue{}, err
	}
	if declared, ok := metricKinds[name]; ok && declared != value.Kind {
		return MetricValue{}, fmt.Errorf("declared %s but got %s", declared, value.Kind)
	}
	return value, nil
}

func classify(decoded any) (MetricValue, error) {
	switch v := decoded.(type) {
	case float64:
		return MetricValue{Kind: KindScalar, Scalar: v}, nil
	case string:
		return MetricValue{Kind: KindScalar, Scalar: v}, nil
	case map[string]any:
		points := make([]SeriesPoint, 0, len(v))
		for label, item := range v {
			n, ok := item.(float64)
			if !ok {
				return MetricValue{}, fmt.Errorf("series value for %q is not numeric", label)
			}
			points = append(points, SeriesPoint{Label: label, Value: n})
		}
		// Date keys sort lexicographically into chronological order.
		sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })
		return MetricValue{Kind: KindSeries, Series: points}, nil
	case []any:
		return classifyArray(v)
	default:
		return MetricValue{}, fmt.Errorf("unsupported value of type %T", decoded)
	}
}

func classifyArray(items []any) (MetricValue, error) {
	if len(items) == 0 {
		return MetricValue{Kind: KindList}, nil
	}
	switch items[0].(type) {
	case string:
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return MetricValue{}, fmt.Errorf("mixed types in string list")
			}
			list = append(list, s)
		}
		return MetricValue{Kind: KindList, List: list}, nil
	case float64:
		points := make([]SeriesPoint, 0, len(items))
		for i, item := range items {
			n, ok := item.(float64)
			if !ok {
				return MetricValue{}, fmt.Errorf("mixed types in numeric series")
			}
			points = append(points, SeriesPoint{Label: strconv.Itoa(i), Value: n})
		}
		return MetricValue{Kind: KindSeries, Series: points}, nil
	default:
		return MetricValue{}, fmt.Errorf("unsupported array element of type %T", items[0])
	}
}
