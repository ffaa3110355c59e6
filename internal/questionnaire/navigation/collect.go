package navigation

import (
	"strings"

	"visa-locker/internal/questionnaire/answers"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
)

// Collected holds the question answers a card contributes.
type Collected struct {
	Questions map[string]interface{}
}

// Collect extracts the answers of q from card. Uploads are not included;
// they are recorded as soon as they finish.
func Collect(q catalog.Question, card completion.Card, personal answers.PersonalInfo) Collected {
	out := Collected{Questions: make(map[string]interface{})}
	layout := catalog.LayoutFor(personal)

	take := func(fields []catalog.Field) {
		for _, f := range fields {
			if f.IsFile() {
				continue
			}
			v := card.Values[f.ID]
			if f.Input == catalog.InputCheckbox {
				v = yesNo(v)
			}
			out.Questions[f.ID] = v
		}
	}

	switch q.Type {
	case catalog.TypeText, catalog.TypeGroupedSelect, catalog.TypeRadio, catalog.TypeRadioUpload:
		out.Questions[q.Field] = card.Values[q.Field]
	case catalog.TypeGroup, catalog.TypeEvisa, catalog.TypeShareCode:
		take(q.Fields)
	case catalog.TypeSponsor:
		selection := card.Values[q.Field]
		out.Questions[q.Field] = selection
		take(catalog.SponsorFields(selection, layout))
	case catalog.TypeAccommodation:
		visaType := personal.Get("visa_type")
		out.Questions["stay_type"] = catalog.StayFor(visaType)
		take(catalog.AccommodationFields(visaType, layout))
	case catalog.TypeConfirmDates:
		if card.Confirmed || card.Values[completion.ConfirmedKey] == "1" {
			out.Questions[completion.ConfirmedKey] = "1"
		}
	}
	return out
}

func yesNo(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "on":
		return catalog.Yes
	default:
		return catalog.No
	}
}
