/*
category.go - Fixed overtime category catalog

PURPOSE:
  Static registry mapping category keys to canonical display names and
  default shift times. Selecting a category pre-fills start/end on the
  submission form, but the submitter may override them; duration is
  always computed from the final chosen times, never from the defaults.

NOTE:
  Several entries are overnight spans (e.g. shift2_offday 19:30-04:30).
  The duration calculator handles the midnight wrap.

SEE ALSO:
  - duration.go: ComputeDuration
  - service.go: Submit validates the key against this catalog
*/
package overtime

import "sort"

// Category is one entry in the fixed catalog.
type Category struct {
	Key          string
	Name         string
	DefaultStart string
	DefaultEnd   string
}

// The eight shift variants. Keys are stable identifiers stored on
// requests; names are the human-facing labels snapshotted at submission.
var categories = map[string]Category{
	"shift1_weekday":          {Key: "shift1_weekday", Name: "SHIFT 1 WEEKDAY", DefaultStart: "16:40", DefaultEnd: "19:00"},
	"shift1_friday":           {Key: "shift1_friday", Name: "SHIFT 1 FRIDAY", DefaultStart: "17:15", DefaultEnd: "19:05"},
	"shift2_weekday":          {Key: "shift2_weekday", Name: "SHIFT 2 WEEKDAY", DefaultStart: "04:30", DefaultEnd: "06:50"},
	"shift1_offday":           {Key: "shift1_offday", Name: "SHIFT 1 OFFDAY", DefaultStart: "07:30", DefaultEnd: "16:40"},
	"shift1_offday_friday":    {Key: "shift1_offday_friday", Name: "SHIFT 1 OFFDAY FRIDAY", DefaultStart: "07:30", DefaultEnd: "17:15"},
	"shift2_offday":           {Key: "shift2_offday", Name: "SHIFT 2 OFFDAY", DefaultStart: "19:30", DefaultEnd: "04:30"},
	"shift1_offday_longshift": {Key: "shift1_offday_longshift", Name: "SHIFT 1 OFFDAY LONGSHIFT", DefaultStart: "07:30", DefaultEnd: "19:00"},
	"shift2_offday_longshift": {Key: "shift2_offday_longshift", Name: "SHIFT 2 OFFDAY LONGSHIFT", DefaultStart: "19:30", DefaultEnd: "06:50"},
}

// LookupCategory returns the catalog entry for a key, or
// ErrUnknownCategory when the key is not registered.
func LookupCategory(key string) (Category, error) {
	c, ok := categories[key]
	if !ok {
		return Category{}, ErrUnknownCategory
	}
	return c, nil
}

// ListCategories returns all catalog entries ordered by key.
func ListCategories() []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
