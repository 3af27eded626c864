package proposal

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/registry"
)

// Structure are the counts the proposal is built from. For the corporate
// category, dependents are derived: max(total - partners - employees, 0).
type Structure struct {
	Category      constants.ProposalCategory `json:"categoria"`
	TotalLives    int                        `json:"total_vidas"`
	PartnerCount  int                        `json:"total_socios"`
	EmployeeCount int                        `json:"total_funcionarios"`
	HasEmployees  bool                       `json:"possui_funcionarios"`
}

// CompanyFields are the company-level scalar fields, filled by the broker
// and prefilled from extraction hints.
type CompanyFields struct {
	CNPJ      string `json:"cnpj,omitempty"`
	LegalName string `json:"razao_social,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"telefone,omitempty"`
	Address   string `json:"endereco,omitempty"`
}

// Session is one in-progress proposal: structure, the entity profiles built
// from it, and the document registry. All state is scoped to the session;
// nothing is shared across sessions.
type Session struct {
	mu sync.Mutex

	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Structure     Structure                `json:"estrutura"`
	Company       CompanyFields            `json:"empresa"`
	Beneficiaries []*BeneficiaryProfile    `json:"beneficiarios"`
	Partners      []*CompanyPartnerProfile `json:"socios"`

	Registry *registry.Registry `json:"-"`
}

func NewSession(category constants.ProposalCategory) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Structure: Structure{Category: category},
		Registry:  registry.New(),
	}
}

// SetStructure rebuilds the beneficiary and partner lists from counts.
// Existing profiles are preserved by index so data already typed in or
// prefilled survives a count change; only profiles beyond the new count are
// dropped. Partners dropped this way take their linked identity documents
// with them.
func (s *Session) SetStructure(st Structure) error {
	if st.TotalLives < 0 || st.PartnerCount < 0 || st.EmployeeCount < 0 {
		return fmt.Errorf("structure counts must not be negative")
	}
	if st.Category == "" {
		return fmt.Errorf("structure requires a proposal category")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Structure = st
	s.rebuildBeneficiaries()
	s.rebuildPartners()
	return nil
}

func (s *Session) rebuildBeneficiaries() {
	st := s.Structure
	var roles []constants.BeneficiaryRole

	if st.Category == constants.CategoryPessoaJuridica {
		dependents := st.TotalLives - st.PartnerCount - st.EmployeeCount
		if dependents < 0 {
			dependents = 0
		}
		for i := 0; i < st.PartnerCount; i++ {
			roles = append(roles, constants.RoleSocio)
		}
		for i := 0; i < st.EmployeeCount; i++ {
			roles = append(roles, constants.RoleFuncionario)
		}
		for i := 0; i < dependents; i++ {
			roles = append(roles, constants.RoleDependente)
		}
	} else {
		for i := 0; i < st.TotalLives; i++ {
			if i == 0 {
				roles = append(roles, constants.RoleTitular)
			} else {
				roles = append(roles, constants.RoleDependente)
			}
		}
	}

	rebuilt := make([]*BeneficiaryProfile, len(roles))
	for i, role := range roles {
		if i < len(s.Beneficiaries) {
			b := s.Beneficiaries[i]
			b.Role = role
			rebuilt[i] = b
		} else {
			rebuilt[i] = newBeneficiary(role)
		}
	}
	s.Beneficiaries = rebuilt
}

func (s *Session) rebuildPartners() {
	count := 0
	if s.Structure.Category == constants.CategoryPessoaJuridica {
		count = s.Structure.PartnerCount
	}
	s.resizePartners(count)
}

// resizePartners grows or shrinks the partner list to count, preserving by
// index. Dropped partners take their linked documents with them.
func (s *Session) resizePartners(count int) {
	for len(s.Partners) > count {
		last := s.Partners[len(s.Partners)-1]
		s.Registry.RemoveByLinkedEntity(last.ID)
		s.Partners = s.Partners[:len(s.Partners)-1]
	}
	for len(s.Partners) < count {
		s.Partners = append(s.Partners, newPartner(len(s.Partners)))
	}
}

// Beneficiary returns the profile with the given id, or nil.
func (s *Session) Beneficiary(id string) *BeneficiaryProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beneficiaryLocked(id)
}

func (s *Session) beneficiaryLocked(id string) *BeneficiaryProfile {
	for _, b := range s.Beneficiaries {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Partner returns the partner with the given id, or nil.
func (s *Session) Partner(id string) *CompanyPartnerProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partnerLocked(id)
}

func (s *Session) partnerLocked(id string) *CompanyPartnerProfile {
	for _, p := range s.Partners {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RemovePartner drops one partner and its linked identity documents, and
// keeps the structure count consistent.
func (s *Session) RemovePartner(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.Partners {
		if p.ID == id {
			s.Registry.RemoveByLinkedEntity(p.ID)
			s.Partners = append(s.Partners[:i], s.Partners[i+1:]...)
			if s.Structure.PartnerCount > 0 {
				s.Structure.PartnerCount--
			}
			return true
		}
	}
	return false
}

// UpdateBeneficiary applies caller-edited fields to one profile. Empty input
// fields are ignored; the caller sends only what changed.
func (s *Session) UpdateBeneficiary(id string, patch BeneficiaryProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.beneficiaryLocked(id)
	if b == nil {
		return fmt.Errorf("beneficiary %s not found", id)
	}
	if patch.Name != "" {
		b.Name = patch.Name
	}
	if patch.Age > 0 {
		b.Age = patch.Age
	}
	if patch.CPF != "" {
		b.CPF = patch.CPF
	}
	if patch.RG != "" {
		b.RG = patch.RG
	}
	if patch.BirthDate != "" {
		b.BirthDate = patch.BirthDate
	}
	if patch.Email != "" {
		b.Email = patch.Email
	}
	if patch.Phone != "" {
		b.Phone = patch.Phone
	}
	if patch.CivilStatus != "" {
		b.CivilStatus = patch.CivilStatus
	}
	if patch.ProofMode != "" {
		b.ProofMode = patch.ProofMode
	}
	return nil
}

// SetCompany applies caller-edited company fields. Empty input fields are
// ignored.
func (s *Session) SetCompany(patch CompanyFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.CNPJ != "" {
		s.Company.CNPJ = patch.CNPJ
	}
	if patch.LegalName != "" {
		s.Company.LegalName = patch.LegalName
	}
	if patch.Email != "" {
		s.Company.Email = patch.Email
	}
	if patch.Phone != "" {
		s.Company.Phone = patch.Phone
	}
	if patch.Address != "" {
		s.Company.Address = patch.Address
	}
}

// AttachDocument stores an extracted document against its target, links it
// to a partner when the target says so, and applies extraction hints to the
// session structure and profiles.
func (s *Session) AttachDocument(target UploadTarget, fileName string, fileSize int64, fileMime string, fields extraction.Fields) (*registry.ExtractedDocument, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if target.Scope == constants.ScopeBeneficiary && s.beneficiaryLocked(target.BeneficiaryID) == nil {
		return nil, fmt.Errorf("beneficiary %s not found", target.BeneficiaryID)
	}

	doc := s.Registry.Add(target.RegistryTarget(), fileName, fileSize, fileMime, fields)
	if target.PartnerID != "" && s.partnerLocked(target.PartnerID) != nil {
		s.Registry.Link(doc.ID, target.PartnerID)
	}
	s.applyHintsLocked(target, fields)
	return doc, nil
}

// RemoveDocument deletes exactly one document by id.
func (s *Session) RemoveDocument(id string) bool {
	return s.Registry.Remove(id)
}

// applyHintsLocked prefills structure and profile fields from one extraction.
// Hints never overwrite what a human (or an earlier document) already set.
func (s *Session) applyHintsLocked(target UploadTarget, f extraction.Fields) {
	switch target.Scope {
	case constants.ScopeCompany:
		s.applyCompanyHints(target, f)
	case constants.ScopeBeneficiary:
		s.applyBeneficiaryHints(target.BeneficiaryID, f)
	}
}

func (s *Session) applyCompanyHints(target UploadTarget, f extraction.Fields) {
	if s.Company.CNPJ == "" && f.CNPJ != "" {
		s.Company.CNPJ = f.CNPJ
	}
	if s.Company.LegalName == "" && f.LegalName != "" {
		s.Company.LegalName = f.LegalName
	}
	if s.Company.Email == "" && f.Email != "" {
		s.Company.Email = f.Email
	}
	if s.Company.Phone == "" && f.Phone != "" {
		s.Company.Phone = f.Phone
	}
	if s.Company.Address == "" && f.Address != "" {
		s.Company.Address = f.Address
	}

	docType := constants.CompanyDocType(target.DocType)
	if docType == constants.CompanyDocContratoSocial || docType == constants.CompanyDocAlteracaoContratual {
		s.applyPartnerHints(f)
	}
	if docType == constants.CompanyDocIdentidadeSocios && target.PartnerID != "" && f.FullName != "" {
		if p := s.partnerLocked(target.PartnerID); p != nil {
			p.Name = f.FullName
		}
	}
}

// applyPartnerHints grows the partner list from a corporate-registry read.
// Explicit detected names win over the bare count; names only replace
// placeholder entries, never a name someone already corrected.
func (s *Session) applyPartnerHints(f extraction.Fields) {
	want := len(f.DetectedPartners)
	if f.TotalPartners > want {
		want = f.TotalPartners
	}
	if want > len(s.Partners) {
		s.resizePartners(want)
		if s.Structure.PartnerCount < want {
			s.Structure.PartnerCount = want
		}
	}
	for i, name := range f.DetectedPartners {
		if i >= len(s.Partners) || name == "" {
			continue
		}
		if isPlaceholderPartnerName(s.Partners[i].Name) {
			s.Partners[i].Name = name
		}
	}
}

func isPlaceholderPartnerName(name string) bool {
	return name == "" || strings.HasPrefix(name, "Sócio ")
}

func (s *Session) applyBeneficiaryHints(beneficiaryID string, f extraction.Fields) {
	b := s.beneficiaryLocked(beneficiaryID)
	if b == nil {
		return
	}
	if b.Name == "" && f.FullName != "" {
		b.Name = f.FullName
	}
	if b.CPF == "" && f.CPF != "" {
		b.CPF = f.CPF
	}
	if b.RG == "" && f.RG != "" {
		b.RG = f.RG
	}
	if b.Email == "" && f.Email != "" {
		b.Email = f.Email
	}
	if b.Phone == "" && f.Phone != "" {
		b.Phone = f.Phone
	}
	if b.BirthDate == "" && f.BirthDate != "" {
		b.BirthDate = f.BirthDate
	}
	if b.CivilStatus == "" && f.CivilStatus != "" {
		if cs, ok := constants.CanonicalizeCivilStatus(f.CivilStatus); ok {
			b.CivilStatus = cs
		}
	}
	if b.Age == 0 {
		if len(f.Ages) > 0 {
			b.Age = f.Ages[0]
		} else if age := AgeFromBirthDate(f.BirthDate, time.Now()); age > 0 {
			b.Age = age
		}
	}
}

// AgeFromBirthDate infers an age from a DD/MM/YYYY string. Day and month must
// be plausible and the result must land in 0-120, otherwise 0 is returned.
func AgeFromBirthDate(birthDate string, now time.Time) int {
	parts := strings.Split(strings.TrimSpace(birthDate), "/")
	if len(parts) != 3 {
		return 0
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1000 {
		return 0
	}

	age := now.Year() - year
	if int(now.Month()) < month || (int(now.Month()) == month && now.Day() < day) {
		age--
	}
	if age < 0 || age > 120 {
		return 0
	}
	return age
}

// CompanyChecklist computes the company-level requirements from live state.
func (s *Session) CompanyChecklist() []RequirementStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[constants.CompanyDocType]int)
	for t := range constants.CompanyDocLabels {
		counts[t] = len(s.Registry.ByTarget(registry.Target{Scope: constants.ScopeCompany, DocType: string(t)}))
	}
	identityDocs := s.Registry.ByTarget(registry.Target{
		Scope:   constants.ScopeCompany,
		DocType: string(constants.CompanyDocIdentidadeSocios),
	})

	return CompanyRequirements(CompanyState{
		Email:        s.Company.Email,
		Phone:        s.Company.Phone,
		HasEmployees: s.Structure.HasEmployees,
		DocCounts:    counts,
		Partners:     PartnerDocStatuses(s.Partners, identityDocs),
	})
}

// BeneficiaryChecklist computes one beneficiary's requirements.
func (s *Session) BeneficiaryChecklist(beneficiaryID string) ([]RequirementStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.beneficiaryLocked(beneficiaryID)
	if b == nil {
		return nil, fmt.Errorf("beneficiary %s not found", beneficiaryID)
	}
	counts := make(map[constants.BeneficiaryDocType]int)
	for t := range constants.BeneficiaryDocLabels {
		counts[t] = len(s.Registry.ByTarget(registry.Target{
			Scope:         constants.ScopeBeneficiary,
			DocType:       string(t),
			BeneficiaryID: beneficiaryID,
		}))
	}
	return BeneficiaryRequirements(b, counts), nil
}

// AdesaoChecklist computes the membership-track requirements.
func (s *Session) AdesaoChecklist() []RequirementStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[constants.AdesaoDocType]int)
	for t := range constants.AdesaoDocLabels {
		counts[t] = len(s.Registry.ByTarget(registry.Target{Scope: constants.ScopeAdesao, DocType: string(t)}))
	}
	return AdesaoRequirements(counts)
}

// Summary exposes the registry aggregation for this session.
func (s *Session) Summary() registry.Summary {
	return s.Registry.Summarize()
}
