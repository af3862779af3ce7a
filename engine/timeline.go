package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/chartsbuilder/widgets/dom"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
)

// TimelineDoc a TimelineJS document
type TimelineDoc struct {
	Title  *TimelineEvent  `json:"title,omitempty"`
	Events []TimelineEvent `json:"events"`
}

// TimelineEvent a slide of the timeline
type TimelineEvent struct {
	StartDate *TimelineDate `json:"start_date,omitempty"`
	EndDate   *TimelineDate `json:"end_date,omitempty"`
	Text      TimelineText  `json:"text"`
	Group     string        `json:"group,omitempty"`
}

// TimelineDate a date, only the year is required. Parts may be numbers or numeric strings
type TimelineDate struct {
	Year  jsoniter.Number `json:"year"`
	Month jsoniter.Number `json:"month,omitempty"`
	Day   jsoniter.Number `json:"day,omitempty"`
}

// TimelineText the headline and html body of a slide
type TimelineText struct {
	Headline string `json:"headline,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ParseTimeline decode and check a TimelineJS document
func ParseTimeline(data []byte) (*TimelineDoc, error) {
	var raw map[string]jsoniter.RawMessage
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if _, has := raw["events"]; !has {
		return nil, fmt.Errorf("timeline has no events array")
	}

	doc := &TimelineDoc{}
	if err := jsoniter.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	for i, event := range doc.Events {
		if event.StartDate == nil || event.StartDate.Year == "" {
			return nil, fmt.Errorf("event #%d has no start_date.year", i)
		}
		if _, err := event.StartDate.parts(); err != nil {
			return nil, fmt.Errorf("event #%d: %s", i, err.Error())
		}
	}
	return doc, nil
}

// String the date as YYYY[-MM[-DD]]
func (d TimelineDate) String() string {
	parts, _ := d.parts()
	switch {
	case d.Day != "":
		return fmt.Sprintf("%d-%02d-%02d", parts[0], parts[1], parts[2])
	case d.Month != "":
		return fmt.Sprintf("%d-%02d", parts[0], parts[1])
	}
	return fmt.Sprintf("%d", parts[0])
}

func (d TimelineDate) parts() ([3]int, error) {
	parts := [3]int{}
	for i, part := range []jsoniter.Number{d.Year, d.Month, d.Day} {
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(string(part))
		if err != nil {
			return parts, fmt.Errorf("invalid date part %q", part)
		}
		parts[i] = v
	}
	return parts, nil
}

func (d TimelineDate) before(other TimelineDate) bool {
	a, _ := d.parts()
	b, _ := other.parts()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Timeline build the timeline element with the given id, events sorted by start date
func Timeline(id string, doc *TimelineDoc) (*html.Node, error) {
	root := dom.Element("div", "id", id, "class", "tl-timeline")

	if doc.Title != nil {
		title := dom.Element("div", "class", "tl-title")
		if doc.Title.Text.Headline != "" {
			dom.Append(title, dom.Append(dom.Element("h2", "class", "tl-headline"), dom.Text(doc.Title.Text.Headline)))
		}
		if err := appendMarkup(title, doc.Title.Text.Text); err != nil {
			return nil, err
		}
		dom.Append(root, title)
	}

	events := append([]TimelineEvent{}, doc.Events...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartDate.before(*events[j].StartDate)
	})

	slides := dom.Element("div", "class", "tl-slides")
	for _, event := range events {
		slide := dom.Element("div", "class", "tl-slide", "data-start-date", event.StartDate.String())
		if event.EndDate != nil && event.EndDate.Year != "" {
			dom.SetAttr(slide, "data-end-date", event.EndDate.String())
		}
		if event.Group != "" {
			dom.SetAttr(slide, "data-group", event.Group)
		}
		if event.Text.Headline != "" {
			dom.Append(slide, dom.Append(dom.Element("h3", "class", "tl-headline"), dom.Text(event.Text.Headline)))
		}
		if err := appendMarkup(slide, event.Text.Text); err != nil {
			return nil, err
		}
		dom.Append(slides, slide)
	}
	return dom.Append(root, slides), nil
}

func appendMarkup(parent *html.Node, markup string) error {
	if markup == "" {
		return nil
	}
	nodes, err := dom.Fragment(markup)
	if err != nil {
		return err
	}
	dom.Append(parent, dom.Append(dom.Element("div", "class", "tl-text"), nodes...))
	return nil
}
