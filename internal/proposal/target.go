package proposal

import (
	"fmt"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/registry"
)

// UploadTarget says which checklist slot an upload belongs to. PartnerID is
// only meaningful for company-scope partner identity documents; BeneficiaryID
// only for beneficiary scope.
type UploadTarget struct {
	Scope         constants.Scope `json:"scope"`
	DocType       string          `json:"doc_type"`
	BeneficiaryID string          `json:"beneficiary_id,omitempty"`
	PartnerID     string          `json:"partner_id,omitempty"`
}

func CompanyTarget(docType constants.CompanyDocType, partnerID string) UploadTarget {
	return UploadTarget{Scope: constants.ScopeCompany, DocType: string(docType), PartnerID: partnerID}
}

func AdesaoTarget(docType constants.AdesaoDocType) UploadTarget {
	return UploadTarget{Scope: constants.ScopeAdesao, DocType: string(docType)}
}

func BeneficiaryTarget(beneficiaryID string, docType constants.BeneficiaryDocType) UploadTarget {
	return UploadTarget{Scope: constants.ScopeBeneficiary, DocType: string(docType), BeneficiaryID: beneficiaryID}
}

// Validate checks the scope/doc-type combination against the known sets.
func (t UploadTarget) Validate() error {
	switch t.Scope {
	case constants.ScopeCompany:
		if _, ok := constants.CompanyDocLabels[constants.CompanyDocType(t.DocType)]; !ok {
			return fmt.Errorf("unknown company document type %q", t.DocType)
		}
	case constants.ScopeAdesao:
		if _, ok := constants.AdesaoDocLabels[constants.AdesaoDocType(t.DocType)]; !ok {
			return fmt.Errorf("unknown adesao document type %q", t.DocType)
		}
	case constants.ScopeBeneficiary:
		if t.BeneficiaryID == "" {
			return fmt.Errorf("beneficiary target requires a beneficiary id")
		}
		if _, ok := constants.BeneficiaryDocLabels[constants.BeneficiaryDocType(t.DocType)]; !ok {
			return fmt.Errorf("unknown beneficiary document type %q", t.DocType)
		}
	default:
		return fmt.Errorf("unknown upload scope %q", t.Scope)
	}
	return nil
}

// RegistryTarget maps the upload target onto the registry's grouping key.
// Partner linkage is not part of the key; it is recorded on the stored
// document itself.
func (t UploadTarget) RegistryTarget() registry.Target {
	return registry.Target{
		Scope:         t.Scope,
		DocType:       t.DocType,
		BeneficiaryID: t.BeneficiaryID,
	}
}
