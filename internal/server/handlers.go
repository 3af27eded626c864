package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/export"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
	"github.com/hks-corretora/proposal-intake/internal/proposal"
	"github.com/hks-corretora/proposal-intake/internal/provider"
	"github.com/hks-corretora/proposal-intake/internal/registry"
	"github.com/hks-corretora/proposal-intake/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps sentinel categories onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// upload is one parsed multipart file, validated against the allowed
// extension set and the size cap.
type upload struct {
	Name string
	MIME string
	Data []byte
}

func (s *Service) parseUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return nil, false
	}
	defer func() { _ = file.Close() }()

	if !constants.IsAllowedExt(filepath.Ext(header.Filename)) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("file type %q is not accepted", filepath.Ext(header.Filename)))
		return nil, false
	}
	if header.Size > s.cfg.Server.MaxUploadBytes {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("file exceeds the %d MB limit", s.cfg.Server.MaxUploadBytes/(1024*1024)))
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read upload: "+err.Error())
		return nil, false
	}
	return &upload{
		Name: header.Filename,
		MIME: header.Header.Get("Content-Type"),
		Data: data,
	}, true
}

// providerContextFromForm builds the prompt-bias context from multipart form
// values. Everything here is optional metadata.
func providerContextFromForm(r *http.Request) provider.Context {
	return provider.Context{
		Scope:            r.FormValue("scope"),
		DocType:          r.FormValue("doc_type"),
		ProposalCategory: r.FormValue("proposal_category"),
		BeneficiaryID:    r.FormValue("beneficiary_id"),
		BeneficiaryName:  r.FormValue("beneficiary_name"),
		BeneficiaryRole:  r.FormValue("beneficiary_role"),
		PartnerID:        r.FormValue("partner_id"),
	}
}

// handleExtract runs the cascade for a standalone file, no session attached.
func (s *Service) handleExtract(w http.ResponseWriter, r *http.Request) {
	up, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	fields := s.cascade.Extract(r.Context(), up.Name, up.MIME, up.Data, providerContextFromForm(r))
	writeJSON(w, http.StatusOK, fields)
}

type createSessionRequest struct {
	Category constants.ProposalCategory `json:"categoria"`
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	switch req.Category {
	case constants.CategoryAdesao, constants.CategoryPessoaFisica, constants.CategoryPessoaJuridica:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", req.Category))
		return
	}
	sess, err := s.createSession(r.Context(), req.Category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListSessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if infos == nil {
		infos = []store.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.dropSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleSetStructure(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var st proposal.Structure
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := sess.SetStructure(st); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleSetCompany(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var patch proposal.CompanyFields
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	sess.SetCompany(patch)
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleUpdateBeneficiary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var patch proposal.BeneficiaryProfile
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := sess.UpdateBeneficiary(r.PathValue("beneficiaryID"), patch); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleRemovePartner(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !sess.RemovePartner(r.PathValue("partnerID")) {
		writeError(w, http.StatusNotFound, "partner not found")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess)
}

type uploadResponse struct {
	Document *registry.ExtractedDocument `json:"documento"`
	Fields   extraction.Fields           `json:"campos"`
	Session  *proposal.Session           `json:"sessao"`
}

func (s *Service) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	up, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	target := proposal.UploadTarget{
		Scope:         constants.Scope(r.FormValue("scope")),
		DocType:       r.FormValue("doc_type"),
		BeneficiaryID: r.FormValue("beneficiary_id"),
		PartnerID:     r.FormValue("partner_id"),
	}
	if err := target.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ectx := providerContextFromForm(r)
	ectx.ProposalCategory = string(sess.Structure.Category)
	if target.Scope == constants.ScopeBeneficiary {
		if b := sess.Beneficiary(target.BeneficiaryID); b != nil {
			ectx.BeneficiaryName = b.Name
			ectx.BeneficiaryRole = string(b.Role)
		}
	}

	fields := s.cascade.Extract(r.Context(), up.Name, up.MIME, up.Data, ectx)
	doc, err := sess.AttachDocument(target, up.Name, int64(len(up.Data)), up.MIME, fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.persist(r.Context(), sess)

	s.logger.Info("document attached",
		zap.String("session_id", sess.ID),
		zap.String("document_id", doc.ID),
		zap.String("file", up.Name),
		zap.String("scope", string(target.Scope)),
		zap.String("doc_type", target.DocType),
	)
	writeJSON(w, http.StatusCreated, uploadResponse{Document: doc, Fields: fields, Session: sess})
}

func (s *Service) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Registry.All())
}

func (s *Service) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !sess.RemoveDocument(r.PathValue("documentID")) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	s.persist(r.Context(), sess)
	w.WriteHeader(http.StatusNoContent)
}

type beneficiaryChecklist struct {
	BeneficiaryID string                       `json:"beneficiary_id"`
	Name          string                       `json:"nome,omitempty"`
	Role          constants.BeneficiaryRole    `json:"role"`
	Requirements  []proposal.RequirementStatus `json:"requisitos"`
	Done          int                          `json:"concluidos"`
	Total         int                          `json:"obrigatorios"`
}

type checklistResponse struct {
	Company       []proposal.RequirementStatus `json:"empresa,omitempty"`
	Adesao        []proposal.RequirementStatus `json:"adesao,omitempty"`
	Beneficiaries []beneficiaryChecklist       `json:"beneficiarios"`
}

func (s *Service) handleChecklist(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := checklistResponse{Beneficiaries: []beneficiaryChecklist{}}
	switch sess.Structure.Category {
	case constants.CategoryPessoaJuridica:
		resp.Company = sess.CompanyChecklist()
	case constants.CategoryAdesao:
		resp.Adesao = sess.AdesaoChecklist()
	}
	for _, b := range sess.Beneficiaries {
		reqs, err := sess.BeneficiaryChecklist(b.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		done, total := proposal.DoneCount(reqs)
		resp.Beneficiaries = append(resp.Beneficiaries, beneficiaryChecklist{
			BeneficiaryID: b.ID,
			Name:          b.Name,
			Role:          b.Role,
			Requirements:  reqs,
			Done:          done,
			Total:         total,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	buf, err := export.Workbook(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "build workbook: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=proposta-%s.xlsx", sess.ID))
	_, _ = w.Write(buf.Bytes())
}
