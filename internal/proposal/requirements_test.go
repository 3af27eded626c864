package proposal

import (
	"testing"
	"time"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/registry"
)

func findReq(t *testing.T, reqs []RequirementStatus, id string) *RequirementStatus {
	t.Helper()
	for i := range reqs {
		if reqs[i].ID == id {
			return &reqs[i]
		}
	}
	return nil
}

func TestCompanyRequirements(t *testing.T) {
	st := CompanyState{
		Email:     "contato@empresa.com",
		Phone:     "1133334444",
		DocCounts: map[constants.CompanyDocType]int{constants.CompanyDocCartaoCNPJ: 1},
	}
	reqs := CompanyRequirements(st)

	contact := findReq(t, reqs, "contato_empresa")
	if contact == nil || !contact.Done {
		t.Error("combined contact requirement should be done with both email and phone")
	}
	if r := findReq(t, reqs, string(constants.CompanyDocCartaoCNPJ)); r == nil || !r.Done {
		t.Error("cartao_cnpj should be done with one document present")
	}
	if r := findReq(t, reqs, string(constants.CompanyDocContratoSocial)); r == nil || r.Done {
		t.Error("contrato_social should be pending")
	}
	if r := findReq(t, reqs, string(constants.CompanyDocAlteracaoContratual)); r == nil || r.Required {
		t.Error("alteracao_contratual must be optional")
	}
	if r := findReq(t, reqs, string(constants.CompanyDocRelacaoFuncionarios)); r != nil {
		t.Error("employee roster must not appear without the hasEmployees flag")
	}

	st.HasEmployees = true
	reqs = CompanyRequirements(st)
	if r := findReq(t, reqs, string(constants.CompanyDocRelacaoFuncionarios)); r == nil || !r.Required {
		t.Error("employee roster must be required with hasEmployees set")
	}
}

func TestCompanyContactNeedsBoth(t *testing.T) {
	reqs := CompanyRequirements(CompanyState{Email: "contato@empresa.com"})
	if r := findReq(t, reqs, "contato_empresa"); r == nil || r.Done {
		t.Error("contact requirement must need both email and phone")
	}
}

func identityDoc(linkedTo string, uploadedAt time.Time) *registry.ExtractedDocument {
	return &registry.ExtractedDocument{
		ID:             "doc-" + uploadedAt.Format("150405.000"),
		LinkedEntityID: linkedTo,
		UploadedAt:     uploadedAt,
	}
}

// Three partners and two unlinked identity uploads: exactly the first two
// partners become done, in list order.
func TestPartnerDocStatusesConsumesUnlinkedInOrder(t *testing.T) {
	partners := []*CompanyPartnerProfile{
		{ID: "p1", Name: "Maria"},
		{ID: "p2", Name: "João"},
		{ID: "p3", Name: "Ana"},
	}
	now := time.Now()
	docs := []*registry.ExtractedDocument{
		identityDoc("", now),
		identityDoc("", now.Add(time.Second)),
	}

	statuses := PartnerDocStatuses(partners, docs)
	if !statuses[0].Done || !statuses[1].Done || statuses[2].Done {
		t.Errorf("statuses = [%v %v %v], want [true true false]",
			statuses[0].Done, statuses[1].Done, statuses[2].Done)
	}
	if statuses[0].DocumentID != docs[0].ID {
		t.Errorf("oldest document must satisfy the first partner")
	}
}

func TestPartnerDocStatusesLinkedFirst(t *testing.T) {
	partners := []*CompanyPartnerProfile{
		{ID: "p1", Name: "Maria"},
		{ID: "p2", Name: "João"},
	}
	now := time.Now()
	docs := []*registry.ExtractedDocument{
		identityDoc("p2", now),
		identityDoc("", now.Add(time.Second)),
	}

	statuses := PartnerDocStatuses(partners, docs)
	if !statuses[1].Done || statuses[1].DocumentID != docs[0].ID {
		t.Error("linked document must satisfy its own partner")
	}
	if !statuses[0].Done || statuses[0].DocumentID != docs[1].ID {
		t.Error("unlinked document must fall to the first unsatisfied partner")
	}
}

func TestBeneficiaryRequirementsMarriageProof(t *testing.T) {
	b := newBeneficiary(constants.RoleTitular)
	b.Name = "Maria"
	b.Age = 30
	b.CivilStatus = constants.CivilCasado

	reqs := BeneficiaryRequirements(b, nil)
	if r := findReq(t, reqs, string(constants.BeneficiaryDocCasamento)); r == nil {
		t.Fatal("married beneficiary must require a marriage certificate")
	}
	if r := findReq(t, reqs, string(constants.BeneficiaryDocUniaoEstavel)); r != nil {
		t.Error("certificate mode must not also require the declaration")
	}

	b.CivilStatus = constants.CivilUniaoEstavel
	b.ProofMode = constants.ProofDeclaracao
	reqs = BeneficiaryRequirements(b, nil)
	if r := findReq(t, reqs, string(constants.BeneficiaryDocUniaoEstavel)); r == nil {
		t.Error("declaration mode must switch the proof document type")
	}
}

// Changing married to single prunes exactly the marriage-proof line.
func TestBeneficiaryRequirementsPruneOnStatusChange(t *testing.T) {
	b := newBeneficiary(constants.RoleTitular)
	b.Name = "Maria"
	b.Age = 30
	b.CivilStatus = constants.CivilCasado
	docs := map[constants.BeneficiaryDocType]int{
		constants.BeneficiaryDocIdentidade: 1,
		constants.BeneficiaryDocCasamento:  1,
	}

	married := BeneficiaryRequirements(b, docs)
	b.CivilStatus = constants.CivilSolteiro
	single := BeneficiaryRequirements(b, docs)

	if len(single) != len(married)-1 {
		t.Fatalf("single checklist has %d lines, married %d; want exactly one fewer",
			len(single), len(married))
	}
	if findReq(t, single, string(constants.BeneficiaryDocCasamento)) != nil {
		t.Error("marriage proof must be pruned for a single beneficiary")
	}
	for _, r := range single {
		m := findReq(t, married, r.ID)
		if m == nil || m.Done != r.Done || m.Required != r.Required {
			t.Errorf("requirement %s changed beyond the pruned line", r.ID)
		}
	}
}

func TestBeneficiaryRequirementsBirthCertificate(t *testing.T) {
	b := newBeneficiary(constants.RoleDependente)
	b.Age = 10
	if findReq(t, BeneficiaryRequirements(b, nil), string(constants.BeneficiaryDocNascimento)) == nil {
		t.Error("minor must require a birth certificate")
	}
	b.Age = 18
	if findReq(t, BeneficiaryRequirements(b, nil), string(constants.BeneficiaryDocNascimento)) != nil {
		t.Error("adult must not require a birth certificate")
	}
	b.Age = 0
	if findReq(t, BeneficiaryRequirements(b, nil), string(constants.BeneficiaryDocNascimento)) != nil {
		t.Error("unknown age must not require a birth certificate")
	}
}

// Adding documents never decreases the done count of other requirements.
func TestRequirementMonotonicity(t *testing.T) {
	b := newBeneficiary(constants.RoleTitular)
	b.Name = "Maria"
	b.Age = 25
	b.CivilStatus = constants.CivilSolteiro

	docs := map[constants.BeneficiaryDocType]int{}
	prevDone := 0
	for _, add := range []constants.BeneficiaryDocType{
		constants.BeneficiaryDocIdentidade,
		constants.BeneficiaryDocResidencia,
		constants.BeneficiaryDocCarteirinha,
		constants.BeneficiaryDocPermanencia,
	} {
		docs[add]++
		done, _ := DoneCount(BeneficiaryRequirements(b, docs))
		if done < prevDone {
			t.Fatalf("done count decreased from %d to %d after adding %s", prevDone, done, add)
		}
		prevDone = done
	}
}

func TestAdesaoRequirements(t *testing.T) {
	reqs := AdesaoRequirements(nil)
	if len(reqs) != 2 {
		t.Fatalf("adesao checklist has %d lines, want 2", len(reqs))
	}
	for _, r := range reqs {
		if !r.Required || r.Done {
			t.Errorf("requirement %s: required=%v done=%v, want required and pending", r.ID, r.Required, r.Done)
		}
	}

	reqs = AdesaoRequirements(map[constants.AdesaoDocType]int{constants.AdesaoDocElegibilidade: 1})
	if r := findReq(t, reqs, string(constants.AdesaoDocElegibilidade)); r == nil || !r.Done {
		t.Error("eligibility document should be done")
	}
}

// A contingency extraction still satisfies its requirement: presence gates
// completeness, not extraction quality.
func TestContingencyDocumentStillCountsAsDone(t *testing.T) {
	contingency := extraction.Empty()
	contingency.Confidence = constants.ConfidenceLow
	contingency.Notes = "Documento recebido (rg.pdf). Nenhum provedor disponível."

	sess := NewSession(constants.CategoryPessoaFisica)
	if err := sess.SetStructure(Structure{Category: constants.CategoryPessoaFisica, TotalLives: 1}); err != nil {
		t.Fatal(err)
	}
	holder := sess.Beneficiaries[0]
	if _, err := sess.AttachDocument(
		BeneficiaryTarget(holder.ID, constants.BeneficiaryDocIdentidade),
		"rg.pdf", 100, "application/pdf", contingency); err != nil {
		t.Fatal(err)
	}

	reqs, err := sess.BeneficiaryChecklist(holder.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r := findReq(t, reqs, string(constants.BeneficiaryDocIdentidade)); r == nil || !r.Done {
		t.Error("identity requirement must be done even for a contingency extraction")
	}
}
