package domain

import "fmt"

// GroupRef identifies a group by its composite key. Groups are globally
// unique on (id, domain), never on id alone.
type GroupRef struct {
	ID     string
	Domain string
}

// String renders the ref the way it appears in scopes and audit details.
func (r GroupRef) String() string {
	return fmt.Sprintf("%s@%s", r.ID, r.Domain)
}

// Group is a bilingual, domain-scoped unit of organization.
type Group struct {
	ID             string
	Domain         string
	NameSV         string
	NameEN         string
	DescriptionSV  string
	DescriptionEN  string
}

// Ref returns the composite key identifying this group.
func (g Group) Ref() GroupRef {
	return GroupRef{ID: g.ID, Domain: g.Domain}
}

// Name returns the localized display name for the requested language,
// defaulting to Swedish for anything other than "en".
func (g Group) Name(lang Language) string {
	if lang == LanguageEnglish {
		return g.NameEN
	}
	return g.NameSV
}
