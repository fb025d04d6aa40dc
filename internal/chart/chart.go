// Package chart builds ECharts donut chart options from category summaries.
package chart

import (
	"fmt"

	"github.com/dsrs-analytics/taskdash/internal/aggregate"
)

// DefaultHeight is the rendered chart height.
const DefaultHeight = "400px"

// Spec is an ECharts option object for one donut chart.
// It marshals to the JSON ECharts expects; Height is for the host page.
type Spec struct {
	Title   Title    `json:"title"`
	Tooltip Tooltip  `json:"tooltip"`
	Legend  Legend   `json:"legend"`
	Series  []Series `json:"series"`
	Height  string   `json:"-"`
}

// Title is the centered chart caption.
type Title struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext"`
	Left    string `json:"left"`
	Top     string `json:"top"`
}

// Tooltip configures hover behavior.
type Tooltip struct {
	Trigger string `json:"trigger"`
}

// Legend places the slice legend.
type Legend struct {
	Top    string `json:"top"`
	Left   string `json:"left"`
	Orient string `json:"orient"`
}

// Series is one pie series.
type Series struct {
	Type              string      `json:"type"`
	Radius            []string    `json:"radius"`
	AvoidLabelOverlap bool        `json:"avoidLabelOverlap"`
	ItemStyle         ItemStyle   `json:"itemStyle"`
	Label             Label       `json:"label"`
	Emphasis          Emphasis    `json:"emphasis"`
	LabelLine         LabelLine   `json:"labelLine"`
	Data              []DataPoint `json:"data"`
}

// ItemStyle styles slice borders.
type ItemStyle struct {
	BorderRadius int    `json:"borderRadius"`
	BorderColor  string `json:"borderColor"`
	BorderWidth  int    `json:"borderWidth"`
}

// Label styles slice labels. Font sizes are strings as ECharts accepts both.
type Label struct {
	Show       bool   `json:"show"`
	Position   string `json:"position,omitempty"`
	Formatter  string `json:"formatter,omitempty"`
	FontSize   string `json:"fontSize"`
	FontWeight string `json:"fontWeight"`
}

// Emphasis styles the hovered slice.
type Emphasis struct {
	Label Label `json:"label"`
}

// LabelLine toggles label leader lines.
type LabelLine struct {
	Show bool `json:"show"`
}

// DataPoint is one slice.
type DataPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Option customizes a Spec.
type Option func(*Spec)

// WithHeight sets the rendered height.
func WithHeight(h string) Option {
	return func(s *Spec) {
		if h != "" {
			s.Height = h
		}
	}
}

// WithExtraSlice appends a slice after the summary entries.
func WithExtraSlice(label string, value int) Option {
	return func(s *Spec) {
		s.Series[0].Data = append(s.Series[0].Data, DataPoint{Name: label, Value: value})
	}
}

// BuildSpec returns the donut chart for summary. The data list is never
// nil, so an empty summary marshals as "data": [].
func BuildSpec(title string, total int, summary []aggregate.Count, opts ...Option) Spec {
	data := make([]DataPoint, 0, len(summary))
	for _, c := range summary {
		data = append(data, DataPoint{Name: c.Label, Value: c.Value})
	}

	spec := Spec{
		Title: Title{
			Text:    title,
			Subtext: fmt.Sprintf("Total Tasks: %d", total),
			Left:    "center",
			Top:     "center",
		},
		Tooltip: Tooltip{Trigger: "item"},
		Legend:  Legend{Top: "center", Left: "left", Orient: "vertical"},
		Series: []Series{{
			Type:              "pie",
			Radius:            []string{"55%", "90%"},
			AvoidLabelOverlap: false,
			ItemStyle:         ItemStyle{BorderRadius: 10, BorderColor: "#fff", BorderWidth: 1},
			Label: Label{
				Show:       true,
				Position:   "inside",
				Formatter:  "{c}",
				FontSize:   "18",
				FontWeight: "bold",
			},
			Emphasis: Emphasis{
				Label: Label{Show: true, FontSize: "20", FontWeight: "bold"},
			},
			LabelLine: LabelLine{Show: false},
			Data:      data,
		}},
		Height: DefaultHeight,
	}

	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}
