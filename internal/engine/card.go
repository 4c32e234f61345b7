package engine

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-idlookup/internal/config"
)

// EncodeIdentityCard exports the decoded identity as a vCard 4.0 so it can be imported
// into an address book. Only decoded attributes are written; the card carries no name.
func EncodeIdentityCard(identity *IdentityRecord) ([]byte, error) {
	if identity == nil {
		return nil, fmt.Errorf("%s: %w", config.ErrVCardEncode, ErrEmptyIdentifier)
	}

	card := make(vcard.Card)
	card.SetKind(vcard.KindIndividual)

	display := identity.FormattedIDNumber
	if display == "" {
		display = config.FallbackUnknown
	}
	card.SetValue(vcard.FieldFormattedName, display)

	if dob, ok := identity.BirthDate(); ok {
		card.SetValue(vcard.FieldBirthday, dob.Format("20060102"))
	}

	switch identity.Gender {
	case config.GenderMale:
		card.SetGender(vcard.SexMale, "")
	case config.GenderFemale:
		card.SetGender(vcard.SexFemale, "")
	default:
		card.SetGender(vcard.SexUnknown, "")
	}

	note := config.FallbackResident
	if identity.IsCitizen {
		note = config.FallbackCitizen
	}
	card.SetValue(vcard.FieldNote, note)

	vcard.ToV4(card)

	var buf bytes.Buffer
	if err := vcard.NewEncoder(&buf).Encode(card); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
	}
	return buf.Bytes(), nil
}
