package extraction

import "github.com/hks-corretora/proposal-intake/constants"

// Fields is the normalized extraction schema shared by every provider in the
// cascade. Zero values mean "not found": empty strings, empty slices, nil
// CurrentValue, TotalPartners == 0. The JSON tags are the wire names agreed
// with the extraction providers.
type Fields struct {
	Ages             []int    `json:"idades"`
	Operator         string   `json:"operadora,omitempty"`
	CurrentValue     *float64 `json:"valor_atual,omitempty"`
	PlanType         string   `json:"tipo_plano,omitempty"`
	BeneficiaryNames []string `json:"nome_beneficiarios"`
	FullName         string   `json:"nome_completo,omitempty"`
	CPF              string   `json:"cpf,omitempty"`
	RG               string   `json:"rg,omitempty"`
	CNPJ             string   `json:"cnpj,omitempty"`
	LegalName        string   `json:"razao_social,omitempty"`
	CivilStatus      string   `json:"estado_civil,omitempty"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"telefone,omitempty"`
	Address          string   `json:"endereco,omitempty"`
	BirthDate        string   `json:"data_nascimento,omitempty"`
	DetectedPartners []string `json:"socios_detectados"`
	TotalPartners    int      `json:"total_socios,omitempty"`
	Notes            string   `json:"observacoes,omitempty"`
	Confidence       string   `json:"confianca"`
	TextPreview      string   `json:"texto_extraido_preview,omitempty"`
	TotalCharacters  int      `json:"total_caracteres"`
}

// Empty returns a Fields with every slot at its "not found" value and
// medium confidence, the same shape providers start from.
func Empty() Fields {
	return Fields{
		Ages:             []int{},
		BeneficiaryNames: []string{},
		DetectedPartners: []string{},
		Confidence:       constants.ConfidenceMedium,
	}
}
