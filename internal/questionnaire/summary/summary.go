// Package summary projects the answers into the category-grouped review
// page.
package summary

import (
	"strings"
	"time"

	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
	"visa-locker/internal/questionnaire/condition"
)

// Entry is one reviewable field.
type Entry struct {
	FieldID    string            `json:"fieldId"`
	Label      string            `json:"label"`
	Value      string            `json:"value"`
	Display    string            `json:"display"`
	Files      []string          `json:"files,omitempty"`
	QuestionID string            `json:"questionId,omitempty"`
	Mandatory  bool              `json:"mandatory"`
	Table      catalog.Table     `json:"table"`
	Input      catalog.InputType `json:"input"`
	Options    []string          `json:"options,omitempty"`
	Hidden     bool              `json:"hidden,omitempty"`
	ReadOnly   bool              `json:"readOnly,omitempty"`
}

type Section struct {
	Category catalog.Category `json:"category"`
	Entries  []Entry          `json:"entries"`
}

// View is the whole review page.
type View struct {
	Static   []Entry              `json:"static"`
	Personal []Entry              `json:"personal"`
	Sections []Section            `json:"sections"`
	Warnings []completion.Warning `json:"warnings,omitempty"`
	Locked   bool                 `json:"locked"`

	applicable []string
}

// ApplicableIDs lists the questions the view was built from, in order.
func (v View) ApplicableIDs() []string {
	return append([]string(nil), v.applicable...)
}

// Entry finds an entry by field id across all sections.
func (v View) Entry(fieldID string) (Entry, bool) {
	for _, s := range v.Sections {
		for _, e := range s.Entries {
			if e.FieldID == fieldID {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Projector builds views from a store.
type Projector struct {
	deriver   *catalog.Deriver
	evaluator *condition.Evaluator
	now       func() time.Time
}

func NewProjector(deriver *catalog.Deriver, evaluator *condition.Evaluator) *Projector {
	if deriver == nil {
		deriver = catalog.NewDeriver(nil)
	}
	if evaluator == nil {
		evaluator = condition.New()
	}
	return &Projector{deriver: deriver, evaluator: evaluator, now: time.Now}
}

// WithClock overrides the date warnings are computed against.
func (p *Projector) WithClock(now func() time.Time) *Projector {
	p.now = now
	return p
}

// entries keeps first-insertion order while letting later questions
// overwrite an id they share with an earlier one.
type entries struct {
	order []string
	byID  map[string]entryAt
}

type entryAt struct {
	category catalog.Category
	entry    Entry
}

func (e *entries) set(cat catalog.Category, entry Entry) {
	if _, ok := e.byID[entry.FieldID]; !ok {
		e.order = append(e.order, entry.FieldID)
	}
	e.byID[entry.FieldID] = entryAt{category: cat, entry: entry}
}

// Project builds the review page for the current answers.
func (p *Projector) Project(store *answers.Store) View {
	snap := store.Snapshot()
	cat := p.deriver.Derive(snap.Personal)
	qa, personal := snap.Questions, snap.Personal

	view := View{
		Static:   staticEntries(personal),
		Personal: personalEntries(personal),
		Warnings: completion.Warnings(qa, p.now()),
		Locked:   snap.Locked,
	}

	collected := &entries{byID: make(map[string]entryAt)}
	field := func(q catalog.Question, f catalog.Field) {
		collected.set(q.Category, fieldEntry(q, f, qa))
	}

	for _, q := range cat.Questions() {
		if !p.evaluator.Applies(q, qa, personal) {
			continue
		}
		view.applicable = append(view.applicable, q.ID)

		switch q.Type {
		case catalog.TypeAccommodation:
			for _, f := range catalog.AccommodationFields(personal.Get("visa_type"), cat.Layout()) {
				field(q, f)
			}
		case catalog.TypeSponsor:
			collected.set(q.Category, singleEntry(q, qa))
			for _, f := range catalog.SponsorFields(qa.String(q.Field), cat.Layout()) {
				field(q, f)
			}
		default:
			if q.HasFields() {
				for _, f := range q.Fields {
					field(q, f)
				}
				continue
			}
			if q.Field == "" {
				continue
			}
			collected.set(q.Category, singleEntry(q, qa))
			if q.Type == catalog.TypeRadioUpload && q.Upload != nil && qa.String(q.Field) == catalog.Yes {
				collected.set(q.Category, uploadEntry(q, qa))
			}
		}
	}

	hideSettled(collected, qa)

	for _, c := range catalog.Categories {
		var section Section
		for _, id := range collected.order {
			if at := collected.byID[id]; at.category == c {
				section.Entries = append(section.Entries, at.entry)
			}
		}
		if len(section.Entries) > 0 {
			section.Category = c
			view.Sections = append(view.Sections, section)
		}
	}
	return view
}

func fieldEntry(q catalog.Question, f catalog.Field, qa answers.QuestionAnswers) Entry {
	e := Entry{
		FieldID:    f.ID,
		Label:      f.SummaryLabel(),
		QuestionID: q.ID,
		Mandatory:  f.Mandatory,
		Table:      catalog.TableQuestions,
		Input:      f.Input,
		Options:    f.Options,
	}
	if f.IsFile() {
		e.Files = answers.NormalizeFiles(qa[f.ID])
		e.Display = strings.Join(e.Files, ", ")
		return e
	}
	e.Value = qa.String(f.ID)
	e.Display = display(f.Input, e.Value)
	return e
}

func singleEntry(q catalog.Question, qa answers.QuestionAnswers) Entry {
	input := catalog.InputText
	switch q.Type {
	case catalog.TypeRadio, catalog.TypeRadioUpload, catalog.TypeSponsor:
		input = catalog.InputRadio
	case catalog.TypeGroupedSelect:
		input = catalog.InputSelect
	case catalog.TypeFile:
		input = catalog.InputFile
	}
	e := Entry{
		FieldID:    q.Field,
		Label:      q.Text,
		QuestionID: q.ID,
		Mandatory:  q.Mandatory,
		Table:      catalog.TableQuestions,
		Input:      input,
		Options:    q.Options,
	}
	if input == catalog.InputFile {
		e.Files = answers.NormalizeFiles(qa[q.Field])
		e.Display = strings.Join(e.Files, ", ")
		return e
	}
	e.Value = qa.String(q.Field)
	e.Display = e.Value
	return e
}

func uploadEntry(q catalog.Question, qa answers.QuestionAnswers) Entry {
	label := q.Upload.Label
	if label == "" {
		label = "Uploaded Documents"
	}
	files := answers.NormalizeFiles(qa[q.Upload.Field])
	return Entry{
		FieldID:    q.Upload.Field,
		Label:      label,
		Files:      files,
		Display:    strings.Join(files, ", "),
		QuestionID: q.ID,
		Table:      catalog.TableQuestions,
		Input:      catalog.InputFile,
	}
}

// hideSettled hides the settled-status checkbox once both eVisa dates exist.
func hideSettled(collected *entries, qa answers.QuestionAnswers) {
	at, ok := collected.byID["evisa_no_date_settled"]
	if !ok {
		return
	}
	if strings.TrimSpace(qa.String("evisa_issue_date")) != "" && strings.TrimSpace(qa.String("evisa_expiry_date")) != "" {
		at.entry.Hidden = true
		collected.byID["evisa_no_date_settled"] = at
	}
}

func display(input catalog.InputType, value string) string {
	if input == catalog.InputDate {
		return catalog.FormatDisplayDate(value)
	}
	return value
}

func staticEntries(personal answers.PersonalInfo) []Entry {
	out := make([]Entry, 0, len(catalog.StaticPersonalFields))
	for _, f := range catalog.StaticPersonalFields {
		v := personal.Get(f.ID)
		out = append(out, Entry{
			FieldID: f.ID, Label: f.Label, Value: v, Display: v,
			Table: catalog.TablePersonal, Input: catalog.InputText, ReadOnly: true,
		})
	}
	return out
}

func personalEntries(personal answers.PersonalInfo) []Entry {
	mandatory := make(map[string]bool, len(catalog.MandatoryPersonalFields))
	for _, id := range catalog.MandatoryPersonalFields {
		mandatory[id] = true
	}
	out := make([]Entry, 0, len(catalog.EditablePersonalFields))
	for _, f := range catalog.EditablePersonalFields {
		input := catalog.InputText
		if f.ID == "email" {
			input = catalog.InputEmail
		}
		v := personal.Get(f.ID)
		out = append(out, Entry{
			FieldID: f.ID, Label: f.Label, Value: v, Display: v,
			Mandatory: mandatory[f.ID], Table: catalog.TablePersonal, Input: input,
		})
	}
	return out
}
