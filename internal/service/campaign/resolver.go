package campaign

import (
	"fmt"

	"github.com/ignite/emailpro/internal/domain"
)

// Resolve turns a recipient selection into a deduplicated, validated
// recipient list. ownerContacts must contain every contact of the requesting
// account in creation order; the resolved list preserves that order so
// delivery record creation is deterministic.
//
// Ids that do not belong to the owner yield ErrInvalidRecipient, duplicate
// ids collapse to one entry, and an empty result yields ErrNoRecipients.
// Resolve performs no persistence, so a refused selection leaves no trace.
func Resolve(sel Selection, ownerContacts []domain.Contact) ([]domain.Contact, error) {
	if sel.All {
		if len(ownerContacts) == 0 {
			return nil, ErrNoRecipients
		}
		out := make([]domain.Contact, len(ownerContacts))
		copy(out, ownerContacts)
		return out, nil
	}

	requested := make(map[string]bool, len(sel.ContactIDs))
	for _, id := range sel.ContactIDs {
		requested[id] = true
	}

	var out []domain.Contact
	for _, c := range ownerContacts {
		if requested[c.ID] {
			out = append(out, c)
			delete(requested, c.ID)
		}
	}

	// Anything left over was not found among the owner's contacts.
	for id := range requested {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, id)
	}

	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	return out, nil
}
