package server

import "net/http"

// Routes wires the HTTP surface onto a ServeMux using method-qualified
// patterns.
func (s *Service) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/extract", s.handleExtract)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("PUT /api/sessions/{id}/structure", s.handleSetStructure)
	mux.HandleFunc("PUT /api/sessions/{id}/company", s.handleSetCompany)
	mux.HandleFunc("PUT /api/sessions/{id}/beneficiaries/{beneficiaryID}", s.handleUpdateBeneficiary)
	mux.HandleFunc("DELETE /api/sessions/{id}/partners/{partnerID}", s.handleRemovePartner)

	mux.HandleFunc("POST /api/sessions/{id}/documents", s.handleUploadDocument)
	mux.HandleFunc("GET /api/sessions/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/sessions/{id}/documents/{documentID}", s.handleRemoveDocument)

	mux.HandleFunc("GET /api/sessions/{id}/checklist", s.handleChecklist)
	mux.HandleFunc("GET /api/sessions/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.handleExport)

	return s.withRequestLogging(mux)
}
