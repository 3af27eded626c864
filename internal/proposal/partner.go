package proposal

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hks-corretora/proposal-intake/internal/registry"
)

// CompanyPartnerProfile is one detected or declared company partner.
type CompanyPartnerProfile struct {
	ID   string `json:"id"`
	Name string `json:"nome"`
}

func newPartner(index int) *CompanyPartnerProfile {
	return &CompanyPartnerProfile{
		ID:   uuid.New().String(),
		Name: fmt.Sprintf("Sócio %d", index+1),
	}
}

// PartnerDocStatus says whether one partner's identity document is covered,
// and by which stored document.
type PartnerDocStatus struct {
	Partner    *CompanyPartnerProfile `json:"socio"`
	Done       bool                   `json:"done"`
	DocumentID string                 `json:"document_id,omitempty"`
}

// PartnerDocStatuses matches partner identity documents against the partner
// list. Documents linked to a partner satisfy that partner directly; every
// unlinked identity document is then consumed, oldest first, by the next
// partner still unsatisfied in list order. Humans forget to tag uploads, so
// an untagged proof still counts for somebody.
func PartnerDocStatuses(partners []*CompanyPartnerProfile, docs []*registry.ExtractedDocument) []PartnerDocStatus {
	statuses := make([]PartnerDocStatus, len(partners))
	for i, p := range partners {
		statuses[i] = PartnerDocStatus{Partner: p}
	}

	var unlinked []*registry.ExtractedDocument
	for _, d := range docs {
		if d.LinkedEntityID == "" {
			unlinked = append(unlinked, d)
			continue
		}
		for i, p := range partners {
			if p.ID == d.LinkedEntityID && !statuses[i].Done {
				statuses[i].Done = true
				statuses[i].DocumentID = d.ID
				break
			}
		}
	}

	next := 0
	for _, d := range unlinked {
		for next < len(statuses) && statuses[next].Done {
			next++
		}
		if next >= len(statuses) {
			break
		}
		statuses[next].Done = true
		statuses[next].DocumentID = d.ID
		next++
	}
	return statuses
}
