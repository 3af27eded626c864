package constants

// Scope identifies which kind of entity a document belongs to.
type Scope string

const (
	ScopeCompany     Scope = "empresa"
	ScopeAdesao      Scope = "adesao"
	ScopeBeneficiary Scope = "beneficiario"
)

// CompanyDocType enumerates documents attached at company level.
type CompanyDocType string

const (
	CompanyDocContratoSocial      CompanyDocType = "contrato_social"
	CompanyDocCartaoCNPJ          CompanyDocType = "cartao_cnpj"
	CompanyDocComprovanteEndereco CompanyDocType = "comprovante_endereco_empresa"
	CompanyDocAlteracaoContratual CompanyDocType = "alteracao_contratual"
	CompanyDocIdentidadeSocios    CompanyDocType = "identidade_cpf_socios"
	CompanyDocRelacaoFuncionarios CompanyDocType = "relacao_funcionarios"
)

// AdesaoDocType enumerates membership-track documents.
type AdesaoDocType string

const (
	AdesaoDocElegibilidade AdesaoDocType = "documento_elegibilidade"
	AdesaoDocFormulario    AdesaoDocType = "formulario_associacao"
)

// BeneficiaryDocType enumerates per-beneficiary documents.
type BeneficiaryDocType string

const (
	BeneficiaryDocIdentidade     BeneficiaryDocType = "identidade_cpf"
	BeneficiaryDocResidencia     BeneficiaryDocType = "comprovante_residencia"
	BeneficiaryDocCarteirinha    BeneficiaryDocType = "carteirinha_plano_atual"
	BeneficiaryDocPermanencia    BeneficiaryDocType = "carta_permanencia"
	BeneficiaryDocCasamento      BeneficiaryDocType = "certidao_casamento"
	BeneficiaryDocUniaoEstavel   BeneficiaryDocType = "declaracao_uniao_estavel"
	BeneficiaryDocNascimento     BeneficiaryDocType = "certidao_nascimento"
)

// CompanyDocLabels maps company document types to their checklist labels.
var CompanyDocLabels = map[CompanyDocType]string{
	CompanyDocContratoSocial:      "Contrato social",
	CompanyDocCartaoCNPJ:          "Cartão CNPJ",
	CompanyDocComprovanteEndereco: "Comprovante de endereço da empresa",
	CompanyDocAlteracaoContratual: "Alteração contratual",
	CompanyDocIdentidadeSocios:    "Identidade e CPF dos sócios",
	CompanyDocRelacaoFuncionarios: "GFIP ou relação de funcionários",
}

// AdesaoDocLabels maps adesão document types to their checklist labels.
var AdesaoDocLabels = map[AdesaoDocType]string{
	AdesaoDocElegibilidade: "Documento de elegibilidade",
	AdesaoDocFormulario:    "Formulário de associação",
}

// BeneficiaryDocLabels maps beneficiary document types to their checklist labels.
var BeneficiaryDocLabels = map[BeneficiaryDocType]string{
	BeneficiaryDocIdentidade:   "Identidade e CPF",
	BeneficiaryDocResidencia:   "Comprovante de residência",
	BeneficiaryDocCarteirinha:  "Carteirinha do plano atual",
	BeneficiaryDocPermanencia:  "Carta de permanência",
	BeneficiaryDocCasamento:    "Certidão de casamento",
	BeneficiaryDocUniaoEstavel: "Declaração marital/união estável",
	BeneficiaryDocNascimento:   "Certidão de nascimento",
}
