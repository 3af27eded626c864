package proposal

import (
	"github.com/hks-corretora/proposal-intake/constants"
)

// RequirementStatus is one line of a checklist. Done is a pure presence
// check; content quality is carried by document confidence, never here. A
// requirement is done or not done, there is no error state.
type RequirementStatus struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Done     bool   `json:"done"`
	Hint     string `json:"hint,omitempty"`
}

// CompanyState is the immutable snapshot CompanyRequirements projects from.
// DocCounts holds how many documents exist per company document type.
type CompanyState struct {
	Email        string
	Phone        string
	HasEmployees bool
	DocCounts    map[constants.CompanyDocType]int
	Partners     []PartnerDocStatus
}

// CompanyRequirements computes the company-level checklist. Recomputed fresh
// on every call; nothing is cached between state changes.
func CompanyRequirements(st CompanyState) []RequirementStatus {
	docDone := func(t constants.CompanyDocType) bool { return st.DocCounts[t] > 0 }

	partnersDone := docDone(constants.CompanyDocIdentidadeSocios)
	if len(st.Partners) > 0 {
		partnersDone = true
		for _, p := range st.Partners {
			if !p.Done {
				partnersDone = false
				break
			}
		}
	}

	reqs := []RequirementStatus{
		{
			ID:       "contato_empresa",
			Label:    "E-mail e telefone da empresa",
			Required: true,
			Done:     st.Email != "" && st.Phone != "",
		},
		{
			ID:       string(constants.CompanyDocContratoSocial),
			Label:    constants.CompanyDocLabels[constants.CompanyDocContratoSocial],
			Required: true,
			Done:     docDone(constants.CompanyDocContratoSocial),
		},
		{
			ID:       string(constants.CompanyDocCartaoCNPJ),
			Label:    constants.CompanyDocLabels[constants.CompanyDocCartaoCNPJ],
			Required: true,
			Done:     docDone(constants.CompanyDocCartaoCNPJ),
		},
		{
			ID:       string(constants.CompanyDocComprovanteEndereco),
			Label:    constants.CompanyDocLabels[constants.CompanyDocComprovanteEndereco],
			Required: true,
			Done:     docDone(constants.CompanyDocComprovanteEndereco),
		},
		{
			ID:       string(constants.CompanyDocAlteracaoContratual),
			Label:    constants.CompanyDocLabels[constants.CompanyDocAlteracaoContratual],
			Required: false,
			Done:     docDone(constants.CompanyDocAlteracaoContratual),
			Hint:     "Somente quando o contrato social foi alterado",
		},
		{
			ID:       string(constants.CompanyDocIdentidadeSocios),
			Label:    constants.CompanyDocLabels[constants.CompanyDocIdentidadeSocios],
			Required: true,
			Done:     partnersDone,
			Hint:     "Um documento de identidade por sócio",
		},
	}

	if st.HasEmployees {
		reqs = append(reqs, RequirementStatus{
			ID:       string(constants.CompanyDocRelacaoFuncionarios),
			Label:    constants.CompanyDocLabels[constants.CompanyDocRelacaoFuncionarios],
			Required: true,
			Done:     docDone(constants.CompanyDocRelacaoFuncionarios),
		})
	}
	return reqs
}

// BeneficiaryRequirements computes one beneficiary's checklist: three field
// requirements plus the document set, with marriage proof and birth
// certificate requirements present only while their condition holds.
// Changing the condition prunes the line from the checklist; documents
// already stored stay in the registry.
func BeneficiaryRequirements(b *BeneficiaryProfile, docCounts map[constants.BeneficiaryDocType]int) []RequirementStatus {
	docDone := func(t constants.BeneficiaryDocType) bool { return docCounts[t] > 0 }

	reqs := []RequirementStatus{
		{ID: "nome", Label: "Nome completo", Required: true, Done: b.Name != ""},
		{ID: "idade", Label: "Idade", Required: true, Done: b.Age > 0},
		{ID: "estado_civil", Label: "Estado civil", Required: true, Done: b.CivilStatus != ""},
		{
			ID:       string(constants.BeneficiaryDocIdentidade),
			Label:    constants.BeneficiaryDocLabels[constants.BeneficiaryDocIdentidade],
			Required: true,
			Done:     docDone(constants.BeneficiaryDocIdentidade),
		},
		{
			ID:       string(constants.BeneficiaryDocResidencia),
			Label:    constants.BeneficiaryDocLabels[constants.BeneficiaryDocResidencia],
			Required: true,
			Done:     docDone(constants.BeneficiaryDocResidencia),
		},
		{
			ID:       string(constants.BeneficiaryDocCarteirinha),
			Label:    constants.BeneficiaryDocLabels[constants.BeneficiaryDocCarteirinha],
			Required: true,
			Done:     docDone(constants.BeneficiaryDocCarteirinha),
		},
		{
			ID:       string(constants.BeneficiaryDocPermanencia),
			Label:    constants.BeneficiaryDocLabels[constants.BeneficiaryDocPermanencia],
			Required: true,
			Done:     docDone(constants.BeneficiaryDocPermanencia),
		},
	}

	if b.NeedsMarriageProof() {
		proofType := b.MarriageProofDocType()
		reqs = append(reqs, RequirementStatus{
			ID:       string(proofType),
			Label:    constants.BeneficiaryDocLabels[proofType],
			Required: true,
			Done:     docDone(proofType),
		})
	}
	if b.NeedsBirthCertificate() {
		reqs = append(reqs, RequirementStatus{
			ID:       string(constants.BeneficiaryDocNascimento),
			Label:    constants.BeneficiaryDocLabels[constants.BeneficiaryDocNascimento],
			Required: true,
			Done:     docDone(constants.BeneficiaryDocNascimento),
			Hint:     "Obrigatória para menores de 18 anos",
		})
	}
	return reqs
}

// AdesaoRequirements computes the membership-track checklist: two fixed
// documents, no conditional logic.
func AdesaoRequirements(docCounts map[constants.AdesaoDocType]int) []RequirementStatus {
	return []RequirementStatus{
		{
			ID:       string(constants.AdesaoDocElegibilidade),
			Label:    constants.AdesaoDocLabels[constants.AdesaoDocElegibilidade],
			Required: true,
			Done:     docCounts[constants.AdesaoDocElegibilidade] > 0,
		},
		{
			ID:       string(constants.AdesaoDocFormulario),
			Label:    constants.AdesaoDocLabels[constants.AdesaoDocFormulario],
			Required: true,
			Done:     docCounts[constants.AdesaoDocFormulario] > 0,
		},
	}
}

// DoneCount returns how many required requirements are done, and the total
// required, for progress display.
func DoneCount(reqs []RequirementStatus) (done, total int) {
	for _, r := range reqs {
		if !r.Required {
			continue
		}
		total++
		if r.Done {
			done++
		}
	}
	return done, total
}
