package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/proposal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "proposals.db")
	st, err := Open(context.Background(), dsn, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSessionRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sess := proposal.NewSession(constants.CategoryPessoaJuridica)
	if err := sess.SetStructure(proposal.Structure{
		Category:     constants.CategoryPessoaJuridica,
		TotalLives:   2,
		PartnerCount: 2,
	}); err != nil {
		t.Fatal(err)
	}
	sess.SetCompany(proposal.CompanyFields{CNPJ: "12345678000190", LegalName: "Empresa Exemplo LTDA"})

	fields := extraction.Empty()
	fields.Operator = "UNIMED"
	doc, err := sess.AttachDocument(
		proposal.CompanyTarget(constants.CompanyDocContratoSocial, ""),
		"contrato.pdf", 2048, "application/pdf", fields)
	if err != nil {
		t.Fatal(err)
	}

	if err := st.SaveSession(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := st.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Company.CNPJ != "12345678000190" {
		t.Errorf("CNPJ = %q after reload", loaded.Company.CNPJ)
	}
	if len(loaded.Beneficiaries) != 2 || len(loaded.Partners) != 2 {
		t.Errorf("structure lost: %d beneficiaries, %d partners",
			len(loaded.Beneficiaries), len(loaded.Partners))
	}
	docs := loaded.Registry.All()
	if len(docs) != 1 {
		t.Fatalf("registry has %d docs after reload, want 1", len(docs))
	}
	if docs[0].ID != doc.ID || docs[0].Fields.Operator != "UNIMED" {
		t.Errorf("document payload lost: %+v", docs[0])
	}
}

func TestSaveSessionIsUpsert(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sess := proposal.NewSession(constants.CategoryAdesao)
	if err := st.SaveSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	sess.SetCompany(proposal.CompanyFields{Email: "novo@empresa.com"})
	if err := st.SaveSession(ctx, sess); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := st.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Company.Email != "novo@empresa.com" {
		t.Errorf("Email = %q, want updated value", loaded.Company.Email)
	}

	infos, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Errorf("ListSessions returned %d rows, want 1", len(infos))
	}
}

func TestLoadSessionNotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := st.LoadSession(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sess := proposal.NewSession(constants.CategoryPessoaFisica)
	if err := st.SaveSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteSession(ctx, sess.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
