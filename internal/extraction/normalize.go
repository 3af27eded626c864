package extraction

import (
	"math"
	"strconv"
	"strings"

	"github.com/hks-corretora/proposal-intake/constants"
)

// Normalize coerces a raw, JSON-decoded provider answer into the strict
// Fields schema. It never fails: absent or invalid input degrades to the
// zero value of each slot. Non-zero slots of defaults override whatever was
// computed, which is how callers pin context-known values such as the text
// preview. Zero-valued pins (a character count of 0 for a binary document)
// cannot travel through defaults; callers set those after the fact.
func Normalize(raw map[string]any, defaults *Fields) Fields {
	out := Empty()

	if raw != nil {
		out.Ages = normalizeAges(raw["idades"])
		out.Operator = normalizeUpper(raw["operadora"])
		out.CurrentValue = ParseCurrency(raw["valor_atual"])
		if plan, ok := constants.CanonicalizePlanType(optionalString(raw["tipo_plano"])); ok {
			out.PlanType = string(plan)
		}
		out.BeneficiaryNames = normalizeNameList(raw["nome_beneficiarios"])
		out.FullName = optionalString(raw["nome_completo"])
		out.CPF = NormalizeDocumentNumber(optionalString(raw["cpf"]), 11)
		out.RG = sanitizeDigits(optionalString(raw["rg"]))
		out.CNPJ = NormalizeDocumentNumber(optionalString(raw["cnpj"]), 14)
		out.LegalName = optionalString(raw["razao_social"])
		if cs, ok := constants.CanonicalizeCivilStatus(optionalString(raw["estado_civil"])); ok {
			out.CivilStatus = string(cs)
		}
		out.Email = strings.ToLower(optionalString(raw["email"]))
		out.Phone = NormalizePhone(optionalString(raw["telefone"]))
		out.Address = optionalString(raw["endereco"])
		out.BirthDate = optionalString(raw["data_nascimento"])
		out.DetectedPartners = normalizeNameList(raw["socios_detectados"])
		out.TotalPartners = parsePositiveInt(raw["total_socios"])
		out.Notes = optionalString(raw["observacoes"])
		if c := optionalString(raw["confianca"]); c != "" {
			out.Confidence = c
		}
		out.TextPreview = optionalString(raw["texto_extraido_preview"])
		out.TotalCharacters = parseNonNegativeInt(raw["total_caracteres"])
	}

	// A partner count never invented: only backfilled from detected names.
	if out.TotalPartners == 0 && len(out.DetectedPartners) > 0 {
		out.TotalPartners = len(out.DetectedPartners)
	}

	if defaults != nil {
		applyDefaults(&out, defaults)
	}
	return out
}

func applyDefaults(out, defaults *Fields) {
	if len(defaults.Ages) > 0 {
		out.Ages = defaults.Ages
	}
	if defaults.Operator != "" {
		out.Operator = defaults.Operator
	}
	if defaults.CurrentValue != nil {
		out.CurrentValue = defaults.CurrentValue
	}
	if defaults.PlanType != "" {
		out.PlanType = defaults.PlanType
	}
	if len(defaults.BeneficiaryNames) > 0 {
		out.BeneficiaryNames = defaults.BeneficiaryNames
	}
	if defaults.FullName != "" {
		out.FullName = defaults.FullName
	}
	if defaults.CPF != "" {
		out.CPF = defaults.CPF
	}
	if defaults.RG != "" {
		out.RG = defaults.RG
	}
	if defaults.CNPJ != "" {
		out.CNPJ = defaults.CNPJ
	}
	if defaults.LegalName != "" {
		out.LegalName = defaults.LegalName
	}
	if defaults.CivilStatus != "" {
		out.CivilStatus = defaults.CivilStatus
	}
	if defaults.Email != "" {
		out.Email = defaults.Email
	}
	if defaults.Phone != "" {
		out.Phone = defaults.Phone
	}
	if defaults.Address != "" {
		out.Address = defaults.Address
	}
	if defaults.BirthDate != "" {
		out.BirthDate = defaults.BirthDate
	}
	if len(defaults.DetectedPartners) > 0 {
		out.DetectedPartners = defaults.DetectedPartners
	}
	if defaults.TotalPartners > 0 {
		out.TotalPartners = defaults.TotalPartners
	}
	if defaults.Notes != "" {
		out.Notes = defaults.Notes
	}
	if defaults.Confidence != "" {
		out.Confidence = defaults.Confidence
	}
	if defaults.TextPreview != "" {
		out.TextPreview = defaults.TextPreview
	}
	if defaults.TotalCharacters > 0 {
		out.TotalCharacters = defaults.TotalCharacters
	}
}

// ParseCurrency resolves the decimal-vs-thousands ambiguity: when both "," and
// "." are present the right-most separator is the decimal point; a lone ","
// is decimal. Results round to 2 decimals. Anything unparsable yields nil.
func ParseCurrency(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return round2(v)
	case int:
		return round2(float64(v))
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return nil
		}
		var b strings.Builder
		for _, r := range cleaned {
			if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
				b.WriteRune(r)
			}
		}
		s := b.String()
		if s == "" {
			return nil
		}

		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		switch {
		case lastComma >= 0 && lastDot >= 0:
			if lastComma > lastDot {
				s = strings.ReplaceAll(s, ".", "")
				s = strings.Replace(s, ",", ".", 1)
			} else {
				s = strings.ReplaceAll(s, ",", "")
			}
		case lastComma >= 0:
			s = strings.Replace(s, ",", ".", 1)
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return round2(f)
	}
	return nil
}

func round2(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	r := math.Round(f*100) / 100
	return &r
}

// NormalizeDocumentNumber keeps a tax id only when its digit-only form has
// exactly expectedLen digits. No partial acceptance.
func NormalizeDocumentNumber(value string, expectedLen int) string {
	digits := sanitizeDigits(value)
	if len(digits) != expectedLen {
		return ""
	}
	return digits
}

// NormalizePhone keeps 10-11 digit phones, trimming longer inputs to the
// last 11 digits.
func NormalizePhone(value string) string {
	digits := sanitizeDigits(value)
	if len(digits) < 10 {
		return ""
	}
	if len(digits) > 11 {
		return digits[len(digits)-11:]
	}
	return digits
}

func sanitizeDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeAges accepts numeric or numeric-string items, discarding
// out-of-range or unparsable entries. Duplicates survive: ages are
// observations, not identities.
func normalizeAges(value any) []int {
	list, ok := value.([]any)
	if !ok {
		return []int{}
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		var age int
		switch v := item.(type) {
		case float64:
			age = int(v)
		case int:
			age = v
		case string:
			digits := sanitizeDigits(v)
			if digits == "" {
				continue
			}
			parsed, err := strconv.Atoi(digits)
			if err != nil {
				continue
			}
			age = parsed
		default:
			continue
		}
		if age < 0 || age > 120 {
			continue
		}
		out = append(out, age)
	}
	return out
}

func normalizeNameList(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeUpper(value any) string {
	s := optionalString(value)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s)
}

func optionalString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func parsePositiveInt(value any) int {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case string:
		digits := sanitizeDigits(v)
		if digits == "" {
			return 0
		}
		if parsed, err := strconv.Atoi(digits); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

func parseNonNegativeInt(value any) int {
	switch v := value.(type) {
	case float64:
		if v >= 0 {
			return int(v)
		}
	case int:
		if v >= 0 {
			return v
		}
	}
	return 0
}
