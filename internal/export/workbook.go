package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/proposal"
)

// Workbook renders a proposal session into an XLSX handoff file: one summary
// sheet, the relevant checklists, and the raw document list.
func Workbook(sess *proposal.Session) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSummarySheet(f, sess); err != nil {
		return nil, err
	}
	if err := writeChecklistSheet(f, sess); err != nil {
		return nil, err
	}
	if err := writeDocumentsSheet(f, sess); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func writeSummarySheet(f *excelize.File, sess *proposal.Session) error {
	const sheet = "Resumo"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	sum := sess.Summary()
	rows := [][]any{
		{"Proposta", sess.ID},
		{"Categoria", string(sess.Structure.Category)},
		{"Total de vidas", sess.Structure.TotalLives},
		{"Sócios", sess.Structure.PartnerCount},
		{"Funcionários", sess.Structure.EmployeeCount},
		{"Operadora atual", sum.Operator},
		{"Tipo de plano", sum.PlanType},
		{"Nomes detectados", strings.Join(sum.Names, "; ")},
		{"Idades detectadas", joinInts(sum.Ages)},
		{"Documentos anexados", sum.DocumentCount},
		{"Documentos em contingência", sum.ContingencyCount},
	}
	if sum.CurrentValue != nil {
		rows = append(rows, []any{"Valor atual", *sum.CurrentValue})
	}
	if sum.MeanConfidence != nil {
		rows = append(rows, []any{"Confiança média", *sum.MeanConfidence})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeChecklistSheet(f *excelize.File, sess *proposal.Session) error {
	const sheet = "Checklist"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []any{"Entidade", "Requisito", "Obrigatório", "Concluído", "Observação"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	write := func(entity string, reqs []proposal.RequirementStatus) error {
		for _, r := range reqs {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{entity, r.Label, boolPT(r.Required), boolPT(r.Done), r.Hint}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("write checklist row: %w", err)
			}
			row++
		}
		return nil
	}

	switch sess.Structure.Category {
	case constants.CategoryPessoaJuridica:
		if err := write("Empresa", sess.CompanyChecklist()); err != nil {
			return err
		}
	case constants.CategoryAdesao:
		if err := write("Adesão", sess.AdesaoChecklist()); err != nil {
			return err
		}
	}
	for i, b := range sess.Beneficiaries {
		reqs, err := sess.BeneficiaryChecklist(b.ID)
		if err != nil {
			return err
		}
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("Beneficiário %d", i+1)
		}
		if err := write(name, reqs); err != nil {
			return err
		}
	}
	return nil
}

func writeDocumentsSheet(f *excelize.File, sess *proposal.Session) error {
	const sheet = "Documentos"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []any{"Arquivo", "Escopo", "Tipo", "Confiança", "Enviado em", "Tamanho (bytes)"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, doc := range sess.Registry.All() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			doc.FileName,
			string(doc.Target.Scope),
			doc.Target.DocType,
			doc.Fields.Confidence,
			doc.UploadedAt.Format("02/01/2006 15:04"),
			doc.FileSize,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write document row: %w", err)
		}
	}
	return nil
}

func boolPT(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
