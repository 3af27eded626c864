package extraction

// BuildJSONSchema returns the JSON-Schema (draft 2020-12 subset) for raw
// provider answers, as a generic map. It is handed to providers as a
// structured-output constraint and used locally to validate what comes back
// before normalization.
func BuildJSONSchema() map[string]any {
	stringOrNull := func() map[string]any {
		return map[string]any{"type": []string{"string", "null"}}
	}
	nameList := func() map[string]any {
		return map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": "string"},
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"idades": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": []string{"integer", "number", "string"},
				},
			},
			"operadora":   stringOrNull(),
			"valor_atual": map[string]any{"type": []string{"number", "string", "null"}},
			"tipo_plano":  stringOrNull(),
			"nome_beneficiarios": nameList(),
			"nome_completo":      stringOrNull(),
			"cpf":                stringOrNull(),
			"rg":                 stringOrNull(),
			"cnpj":               stringOrNull(),
			"razao_social":       stringOrNull(),
			"estado_civil":       stringOrNull(),
			"email":              stringOrNull(),
			"telefone":           stringOrNull(),
			"endereco":           stringOrNull(),
			"data_nascimento":    stringOrNull(),
			"socios_detectados":  nameList(),
			"total_socios":       map[string]any{"type": []string{"integer", "number", "string", "null"}},
			"observacoes":        stringOrNull(),
			"confianca":          stringOrNull(),
			"texto_extraido_preview": stringOrNull(),
			"total_caracteres":       map[string]any{"type": []string{"integer", "number", "null"}},
		},
	}
}
