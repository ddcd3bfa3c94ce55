// Package chart decides which chart, if any, fits a query result and
// renders a short textual summary of it.
package chart

type Kind string

const (
	KindNone Kind = "none"
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

// Series is one plotted column. Nil values are gaps.
type Series struct {
	Column string     `json:"column"`
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
}

// ChartSpec says what to draw. XColumn is the x axis, or the label column of
// a pie. YColumns are the value columns in series order.
type ChartSpec struct {
	Kind     Kind     `json:"kind"`
	XColumn  string   `json:"x_column,omitempty"`
	YColumns []string `json:"y_columns,omitempty"`
	Title    string   `json:"title,omitempty"`
	XLabel   string   `json:"x_label,omitempty"`
	YLabel   string   `json:"y_label,omitempty"`

	// GroupColumn/GroupValue restrict the rows of a per-metric line chart.
	GroupColumn string `json:"group_column,omitempty"`
	GroupValue  string `json:"group_value,omitempty"`

	Categories []string `json:"categories,omitempty"`
	Series     []Series `json:"series,omitempty"`
}

// MetricReading is the newest value of one metric in a long-format result.
type MetricReading struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Date   string  `json:"date"`
}

// Result is everything Classify found. Charts is empty when nothing fits.
type Result struct {
	Charts []ChartSpec     `json:"charts"`
	Latest []MetricReading `json:"latest,omitempty"`
}

// Primary returns the first chart, or a KindNone spec.
func (r Result) Primary() ChartSpec {
	if len(r.Charts) == 0 {
		return ChartSpec{Kind: KindNone}
	}
	return r.Charts[0]
}

// Kinds lists the kinds of all charts in order.
func (r Result) Kinds() []Kind {
	out := make([]Kind, 0, len(r.Charts))
	for _, c := range r.Charts {
		out = append(out, c.Kind)
	}
	return out
}
