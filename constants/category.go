package constants

import "strings"

// ProposalCategory is the modality of an in-progress proposal.
type ProposalCategory string

const (
	CategoryAdesao         ProposalCategory = "adesao"
	CategoryPessoaFisica   ProposalCategory = "pessoa_fisica"
	CategoryPessoaJuridica ProposalCategory = "pessoa_juridica"
)

// BeneficiaryRole classifies one life inside a proposal.
type BeneficiaryRole string

const (
	RoleTitular     BeneficiaryRole = "titular"
	RoleSocio       BeneficiaryRole = "socio"
	RoleFuncionario BeneficiaryRole = "funcionario"
	RoleDependente  BeneficiaryRole = "dependente"
)

// CivilStatus holds the five canonical civil-status values.
type CivilStatus string

const (
	CivilSolteiro     CivilStatus = "solteiro"
	CivilCasado       CivilStatus = "casado"
	CivilUniaoEstavel CivilStatus = "uniao_estavel"
	CivilDivorciado   CivilStatus = "divorciado"
	CivilViuvo        CivilStatus = "viuvo"
)

// MarriageProofMode selects how a married/common-law beneficiary proves the union.
type MarriageProofMode string

const (
	ProofCertidao   MarriageProofMode = "certidao"
	ProofDeclaracao MarriageProofMode = "declaracao"
)

// PlanType is the detected plan modality on a prior-insurance document.
type PlanType string

const (
	PlanAdesao      PlanType = "ADESAO"
	PlanPME         PlanType = "PME"
	PlanEmpresarial PlanType = "EMPRESARIAL"
)

// Confidence labels as emitted by the extraction providers.
const (
	ConfidenceHigh   = "alta"
	ConfidenceMedium = "media"
	ConfidenceLow    = "baixa"
)

// CanonicalizeCivilStatus matches free text against the five canonical
// categories via accent-stripped substring search. Unmatched text yields
// "" rather than a guess.
func CanonicalizeCivilStatus(input string) (CivilStatus, bool) {
	normalized := StripAccents(strings.ToLower(strings.TrimSpace(input)))
	if normalized == "" {
		return "", false
	}

	switch {
	case strings.Contains(normalized, "solteir"):
		return CivilSolteiro, true
	case strings.Contains(normalized, "casad"):
		return CivilCasado, true
	case strings.Contains(normalized, "uniao"):
		return CivilUniaoEstavel, true
	case strings.Contains(normalized, "divorc"):
		return CivilDivorciado, true
	case strings.Contains(normalized, "viuv"):
		return CivilViuvo, true
	}
	return "", false
}

// CanonicalizePlanType matches ADES before PME before EMPRES, in that
// priority order.
func CanonicalizePlanType(input string) (PlanType, bool) {
	normalized := StripAccents(strings.ToUpper(strings.TrimSpace(input)))
	if normalized == "" {
		return "", false
	}

	switch {
	case strings.Contains(normalized, "ADES"):
		return PlanAdesao, true
	case strings.Contains(normalized, "PME"):
		return PlanPME, true
	case strings.Contains(normalized, "EMPRES"):
		return PlanEmpresarial, true
	}
	return "", false
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O", "Ö", "O",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"Ç", "C", "Ñ", "N",
)

// StripAccents folds the Latin accented characters that show up in
// Brazilian documents to their ASCII base form.
func StripAccents(s string) string {
	return accentReplacer.Replace(s)
}
