package answers

// persistedAliases maps UI keys of the business inviting-company sub-form to
// the keys the portal stores.
var persistedAliases = map[string]string{
	"inviting_company_name":      "company_name",
	"inviting_company_address_1": "company_address_1",
	"inviting_company_address_2": "company_address_2",
	"inviting_company_city":      "company_city",
	"inviting_company_state":     "company_state",
	"inviting_company_zip":       "company_zip",
	"inviting_company_phone":     "company_phone",
	"inviting_company_email":     "company_email",
}

// PersistedKey returns the portal key for a UI key.
func PersistedKey(uiKey string) (string, bool) {
	k, ok := persistedAliases[uiKey]
	return k, ok
}

// ToPersisted copies an outbound payload and adds the portal key for every
// aliased UI key. The UI keys stay in the payload.
func ToPersisted(updates map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		out[k] = v
	}
	for k, v := range updates {
		if backend, ok := persistedAliases[k]; ok {
			out[backend] = v
		}
	}
	return out
}
