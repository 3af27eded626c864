package proposal

import (
	"github.com/google/uuid"

	"github.com/hks-corretora/proposal-intake/constants"
)

// BeneficiaryProfile is one life in the proposal. Fields are filled by the
// broker and prefilled from extraction hints; the zero value of a field means
// "not informed yet".
type BeneficiaryProfile struct {
	ID          string                      `json:"id"`
	Role        constants.BeneficiaryRole   `json:"role"`
	Name        string                      `json:"nome,omitempty"`
	Age         int                         `json:"idade,omitempty"`
	CPF         string                      `json:"cpf,omitempty"`
	RG          string                      `json:"rg,omitempty"`
	BirthDate   string                      `json:"data_nascimento,omitempty"`
	Email       string                      `json:"email,omitempty"`
	Phone       string                      `json:"telefone,omitempty"`
	CivilStatus constants.CivilStatus       `json:"estado_civil,omitempty"`
	ProofMode   constants.MarriageProofMode `json:"modo_prova_uniao,omitempty"`
}

func newBeneficiary(role constants.BeneficiaryRole) *BeneficiaryProfile {
	return &BeneficiaryProfile{
		ID:        uuid.New().String(),
		Role:      role,
		ProofMode: constants.ProofCertidao,
	}
}

// NeedsMarriageProof reports whether the profile currently requires a
// marriage or stable-union proof document.
func (b *BeneficiaryProfile) NeedsMarriageProof() bool {
	return b.CivilStatus == constants.CivilCasado || b.CivilStatus == constants.CivilUniaoEstavel
}

// NeedsBirthCertificate reports whether the profile currently requires a
// birth certificate. An unknown age (zero) does not require one.
func (b *BeneficiaryProfile) NeedsBirthCertificate() bool {
	return b.Age > 0 && b.Age < 18
}

// MarriageProofDocType resolves the concrete document type for the chosen
// proof mode.
func (b *BeneficiaryProfile) MarriageProofDocType() constants.BeneficiaryDocType {
	if b.ProofMode == constants.ProofDeclaracao {
		return constants.BeneficiaryDocUniaoEstavel
	}
	return constants.BeneficiaryDocCasamento
}
