package provider

import "strings"

// SystemPrompt is the fixed instruction schema shared by the vision-capable
// providers. It names every target field and the per-document-type
// extraction priorities.
func SystemPrompt() string {
	return `Você é um especialista em leitura OCR de documentos para propostas de planos de saúde no Brasil.
Retorne SOMENTE JSON válido, sem markdown e sem explicações.

Campos do JSON:
{
  "idades": [34, 28],
  "operadora": "UNIMED",
  "valor_atual": 1299.90,
  "tipo_plano": "ADESAO|PME|EMPRESARIAL|null",
  "nome_beneficiarios": ["Nome 1", "Nome 2"],
  "nome_completo": "nome principal encontrado no documento",
  "cpf": "somente números",
  "rg": "somente números quando possível",
  "cnpj": "somente números",
  "razao_social": "razão social da empresa",
  "estado_civil": "solteiro|casado|uniao_estavel|divorciado|viuvo|null",
  "email": "email detectado",
  "telefone": "somente números, DDD incluso",
  "endereco": "endereço principal detectado",
  "data_nascimento": "DD/MM/AAAA quando disponível",
  "socios_detectados": ["Sócio 1", "Sócio 2"],
  "total_socios": 2,
  "observacoes": "resumo curto",
  "confianca": "alta|media|baixa"
}

Regras:
- Se não encontrar um campo, retorne null (ou array vazio para listas).
- CPF deve ter 11 dígitos e CNPJ 14 dígitos quando encontrados.
- Em contrato social, priorize sócios, razão social, CNPJ e contatos.
- Em identidade/CPF, priorize nome_completo, cpf, rg, data_nascimento e estado_civil.
- Em comprovante de residência, priorize endereco.
- Em certidões, priorize estado_civil, nome_completo e data_nascimento.
- Em carteirinha/carta de permanência, priorize operadora, tipo_plano, valor_atual e nomes de beneficiários.
- Nunca invente dados.`
}

// UserPrompt renders the upload context block that biases extraction toward
// the declared document type.
func UserPrompt(ectx Context, fileName string) string {
	orDefault := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}

	var b strings.Builder
	b.WriteString("Analise o documento enviado e extraia os dados estruturados para proposta.\n\n")
	b.WriteString("Contexto do upload:\n")
	b.WriteString("- arquivo: " + fileName + "\n")
	b.WriteString("- escopo: " + orDefault(ectx.Scope, "desconhecido") + "\n")
	b.WriteString("- tipo_documento: " + orDefault(ectx.DocType, "desconhecido") + "\n")
	b.WriteString("- modalidade_proposta: " + orDefault(ectx.ProposalCategory, "desconhecida") + "\n")
	b.WriteString("- beneficiario_nome: " + orDefault(ectx.BeneficiaryName, "não informado") + "\n")
	b.WriteString("- beneficiario_tipo: " + orDefault(ectx.BeneficiaryRole, "não informado") + "\n\n")
	b.WriteString(`Validação de consistência:
- Se o tipo_documento for "cartao_cnpj", priorize CNPJ e razão social.
- Se for "contrato_social", detecte quantidade de sócios e seus nomes.
- Se for "identidade_cpf" ou "identidade_cpf_socios", extraia nome, CPF, RG e data de nascimento.
- Se for "comprovante_residencia", extraia endereço completo e possível titular.
- Se for "certidao_casamento" ou "declaracao_uniao_estavel", identifique estado civil.
- Se for "certidao_nascimento", priorize nome e data de nascimento.

Retorne apenas JSON válido.`)
	return b.String()
}

// MaxInlineTextChars caps how much decoded document text is inlined into a
// prompt.
const MaxInlineTextChars = 15000

// ClipText truncates decoded text for prompt inlining.
func ClipText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
