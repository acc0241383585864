package filler

import (
	"sort"
	"time"
)

// Entry is one placeholder label and the value substituted for it.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Substitutions is a Field Substitution Map. Labels are unique and entries
// are applied in insertion order.
type Substitutions struct {
	entries []Entry
	index   map[string]int
}

// NewSubstitutions builds a map from m. Labels are ordered by byte order so a
// given input always fills the same way.
func NewSubstitutions(m map[string]string) *Substitutions {
	labels := make([]string, 0, len(m))
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	s := &Substitutions{}
	for _, label := range labels {
		s.Set(label, m[label])
	}
	return s
}

// Set adds label, or replaces its value in place when already present.
// Empty labels are ignored: they would match every text.
func (s *Substitutions) Set(label, value string) *Substitutions {
	if label == "" {
		return s
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[label]; ok {
		s.entries[i].Value = value
		return s
	}
	s.index[label] = len(s.entries)
	s.entries = append(s.entries, Entry{Label: label, Value: value})
	return s
}

// Get returns the value mapped to label.
func (s *Substitutions) Get(label string) (string, bool) {
	if s == nil {
		return "", false
	}
	i, ok := s.index[label]
	if !ok {
		return "", false
	}
	return s.entries[i].Value, true
}

// Entries returns a copy of the entries in application order.
func (s *Substitutions) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Substitutions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Map returns the entries as a plain map, for logging and persistence.
func (s *Substitutions) Map() map[string]string {
	out := make(map[string]string, s.Len())
	for _, e := range s.Entries() {
		out[e.Label] = e.Value
	}
	return out
}

// Labels of the volunteer registration template.
const (
	LabelFirstName   = "שם פרטי:"
	LabelLastName    = "שם משפחה:"
	LabelIDNumber    = "מספר זהות:"
	LabelPhone       = "טלפון:"
	LabelMobilePhone = "טלפון נייד:"

	// LabelDate is replaced with the fill date in the positional template.
	LabelDate = "date"

	// DateLayout renders LabelDate as dd/mm/yyyy.
	DateLayout = "02/01/2006"
)

// PositionalCount is the number of generic values the positional template takes.
const PositionalCount = 6

// positionalLabels are the tokens Test1..Test6 of the positional template.
var positionalLabels = [PositionalCount]string{"Test1", "Test2", "Test3", "Test4", "Test5", "Test6"}

// PositionalLabel returns the placeholder token for the zero-based position i.
func PositionalLabel(i int) string {
	return positionalLabels[i]
}

// NamedFields are the values of the named volunteer form.
type NamedFields struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	IDNumber    string `json:"id_number" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	MobilePhone string `json:"mobile_phone"`
}

// Substitutions returns the named map. A missing mobile phone falls back to
// the phone number, as the registration page only collects one.
func (f NamedFields) Substitutions() *Substitutions {
	mobile := f.MobilePhone
	if mobile == "" {
		mobile = f.Phone
	}
	s := &Substitutions{}
	s.Set(LabelFirstName, f.FirstName).
		Set(LabelLastName, f.LastName).
		Set(LabelIDNumber, f.IDNumber).
		Set(LabelPhone, f.Phone).
		Set(LabelMobilePhone, mobile)
	return s
}

// PositionalSubstitutions returns the map of Test1..Test6 to values and the
// date token to now.
func PositionalSubstitutions(values [PositionalCount]string, now time.Time) *Substitutions {
	s := &Substitutions{}
	for i, v := range values {
		s.Set(positionalLabels[i], v)
	}
	s.Set(LabelDate, now.Format(DateLayout))
	return s
}
