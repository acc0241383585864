package filler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-registration/volunteer-forms-backend/pkg/docx"
)

func TestFillText_AppendKeepsLabel(t *testing.T) {
	subs := NewSubstitutions(map[string]string{LabelFirstName: "דוד"})

	got, ok := FillText("שם פרטי:", subs, Append)

	assert.True(t, ok)
	assert.Equal(t, "שם פרטי: דוד", got)
}

func TestFillText_ReplaceAllOccurrences(t *testing.T) {
	subs := NewSubstitutions(map[string]string{"Test1": "A"})

	got, ok := FillText("Test1 and Test1", subs, Replace)

	assert.True(t, ok)
	assert.Equal(t, "A and A", got)
}

func TestFillText_IdentityWithoutPlaceholders(t *testing.T) {
	subs := PositionalSubstitutions([PositionalCount]string{"A", "B", "C", "D", "E", "F"}, time.Now())

	for _, text := range []string{"", "plain paragraph", "test1 lower case", "שלום"} {
		got, ok := FillText(text, subs, Replace)
		assert.False(t, ok, text)
		assert.Equal(t, text, got)
	}
}

func TestFillText_NoLabelLeftUnaccompanied(t *testing.T) {
	fields := NamedFields{
		FirstName:   "דוד",
		LastName:    "כהן",
		IDNumber:    "123456789",
		Phone:       "03-1234567",
		MobilePhone: "052-1234567",
	}
	subs := fields.Substitutions()
	text := strings.Join([]string{LabelFirstName, LabelLastName, LabelIDNumber, LabelMobilePhone}, " | ")

	got, ok := FillText(text, subs, Append)
	require.True(t, ok)

	for _, e := range subs.Entries() {
		if !strings.Contains(text, e.Label) {
			continue
		}
		assert.Contains(t, got, e.Label+" "+e.Value)
	}
}

// A value holding another label is rewritten by the later entry. This is a
// known limitation of plain substring filling.
func TestFillText_ValueContainingLabelIsRewritten(t *testing.T) {
	subs := (&Substitutions{}).Set("Test1", "Test2").Set("Test2", "B")

	once, _ := FillText("Test1", subs, Replace)
	assert.Equal(t, "B", once)

	appendSubs := (&Substitutions{}).Set("Test1", "X")
	first, _ := FillText("Test1", appendSubs, Append)
	second, _ := FillText(first, appendSubs, Append)
	assert.NotEqual(t, first, second, "repeated append passes diverge")
}

func TestFillText_IdempotentWhenValuesHoldNoLabels(t *testing.T) {
	subs := PositionalSubstitutions([PositionalCount]string{"A", "B", "C", "D", "E", "F"}, time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC))

	first, _ := FillText("Test1 Test6 date", subs, Replace)
	second, ok := FillText(first, subs, Replace)

	assert.Equal(t, "A F 06/07/2024", first)
	assert.False(t, ok)
	assert.Equal(t, first, second)
}

func TestFill_PositionalTableCell(t *testing.T) {
	doc := docx.New()
	doc.AddParagraph("תאריך: date")
	doc.AddParagraph("ללא שדות")
	doc.AddTable([][]string{{"Test1", "Test2"}, {"Test3", "קבוע"}})

	subs := PositionalSubstitutions([PositionalCount]string{"A", "B", "C", "D", "E", "F"}, time.Date(2024, 7, 6, 12, 0, 0, 0, time.UTC))
	stats := Fill(doc, subs, Replace)

	assert.Equal(t, Stats{Paragraphs: 1, Cells: 3}, stats)
	assert.Equal(t, 4, stats.Total())

	paragraphs := doc.Paragraphs()
	assert.Equal(t, "תאריך: 06/07/2024", paragraphs[0].Text())
	assert.Equal(t, "ללא שדות", paragraphs[1].Text())

	rows := doc.Tables()[0].Rows()
	assert.Equal(t, "A", rows[0].Cells()[0].Text())
	assert.Equal(t, "B", rows[0].Cells()[1].Text())
	assert.Equal(t, "C", rows[1].Cells()[0].Text())
	assert.Equal(t, "קבוע", rows[1].Cells()[1].Text())
}

func TestFill_NamedParagraph(t *testing.T) {
	doc := docx.New()
	doc.AddParagraph(LabelFirstName)

	stats := Fill(doc, NewSubstitutions(map[string]string{LabelFirstName: "דוד"}), Append)

	assert.Equal(t, 1, stats.Paragraphs)
	assert.Equal(t, "שם פרטי: דוד", doc.Paragraphs()[0].Text())
}

// "טלפון:" is a suffix of "טלפון נייד:" only after the space, so the phone
// label does not match inside the mobile label.
func TestNamedFields_PhoneLabelsAreDistinct(t *testing.T) {
	subs := NamedFields{Phone: "1", MobilePhone: "2"}.Substitutions()

	got, _ := FillText(LabelMobilePhone, subs, Append)

	assert.Equal(t, "טלפון נייד: 2", got)
}

func TestNamedFields_MobileFallsBackToPhone(t *testing.T) {
	subs := NamedFields{Phone: "050"}.Substitutions()

	v, ok := subs.Get(LabelMobilePhone)
	assert.True(t, ok)
	assert.Equal(t, "050", v)
}

func TestSubstitutions_SetKeepsLabelsUnique(t *testing.T) {
	subs := (&Substitutions{}).Set("a", "1").Set("b", "2").Set("a", "3").Set("", "ignored")

	assert.Equal(t, 2, subs.Len())
	assert.Equal(t, []Entry{{Label: "a", Value: "3"}, {Label: "b", Value: "2"}}, subs.Entries())
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, subs.Map())
}

func TestNewSubstitutions_SortedOrder(t *testing.T) {
	subs := NewSubstitutions(map[string]string{"Test3": "c", "Test1": "a", "Test2": "b"})

	labels := make([]string, 0, subs.Len())
	for _, e := range subs.Entries() {
		labels = append(labels, e.Label)
	}
	assert.Equal(t, []string{"Test1", "Test2", "Test3"}, labels)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "replace", Replace.String())
	assert.Equal(t, "append", Append.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
