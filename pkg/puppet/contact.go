package puppet

import "regexp"

// ContactGender is the declared gender of a contact profile.
type ContactGender int32

const (
	ContactGenderUnknown ContactGender = iota
	ContactGenderMale
	ContactGenderFemale
)

// ContactType distinguishes personal accounts from managed ones.
type ContactType int32

const (
	ContactTypeUnknown ContactType = iota
	ContactTypeIndividual
	ContactTypeOfficial
	ContactTypeCorporation
)

// ContactPayload is the full profile record for one contact.
type ContactPayload struct {
	ID          string
	Gender      ContactGender
	Type        ContactType
	Name        string
	Avatar      string
	Address     string
	Alias       string
	City        string
	Friend      bool
	Province    string
	Signature   string
	Star        bool
	Handle      string
	Corporation string
	Title       string
	Description string
	Coworker    bool
	Phone       []string
}

// ContactQueryFilter narrows contact searches. Nil fields are unconstrained;
// set fields must all match.
type ContactQueryFilter struct {
	ID         *string
	Name       *string
	NameRegex  *regexp.Regexp
	Alias      *string
	AliasRegex *regexp.Regexp
	Handle     *string
}

// Match reports whether payload satisfies every constraint set on the filter.
func (f ContactQueryFilter) Match(payload ContactPayload) bool {
	if f.ID != nil && payload.ID != *f.ID {
		return false
	}
	if f.Name != nil && payload.Name != *f.Name {
		return false
	}
	if f.NameRegex != nil && !f.NameRegex.MatchString(payload.Name) {
		return false
	}
	if f.Alias != nil && payload.Alias != *f.Alias {
		return false
	}
	if f.AliasRegex != nil && !f.AliasRegex.MatchString(payload.Alias) {
		return false
	}
	if f.Handle != nil && payload.Handle != *f.Handle {
		return false
	}

	return true
}
