package registry

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hks-corretora/proposal-intake/constants"
	"github.com/hks-corretora/proposal-intake/internal/extraction"
)

// Target identifies the checklist slot a document was uploaded against.
// BeneficiaryID is only set for beneficiary-scope documents.
type Target struct {
	Scope         constants.Scope `json:"scope"`
	DocType       string          `json:"doc_type"`
	BeneficiaryID string          `json:"beneficiary_id,omitempty"`
}

// Key returns the stable identity used to group documents per slot.
func (t Target) Key() string {
	if t.BeneficiaryID != "" {
		return string(t.Scope) + ":" + t.DocType + ":" + t.BeneficiaryID
	}
	return string(t.Scope) + ":" + t.DocType
}

// ExtractedDocument is one processed upload. LinkedEntityID is filled when a
// partner-identity document gets matched to a specific company partner.
type ExtractedDocument struct {
	ID             string            `json:"id"`
	Target         Target            `json:"target"`
	FileName       string            `json:"file_name"`
	FileSize       int64             `json:"file_size"`
	FileMime       string            `json:"file_mime"`
	Fields         extraction.Fields `json:"fields"`
	UploadedAt     time.Time         `json:"uploaded_at"`
	LinkedEntityID string            `json:"linked_entity_id,omitempty"`
}

// Registry holds a session's processed documents in upload order. It is
// append-only except for explicit removal by id; fields of a stored document
// are never rewritten by later uploads.
type Registry struct {
	mu   sync.RWMutex
	docs []*ExtractedDocument
}

func New() *Registry {
	return &Registry{}
}

// Add stores a new extracted document and returns it.
func (r *Registry) Add(target Target, fileName string, fileSize int64, fileMime string, fields extraction.Fields) *ExtractedDocument {
	doc := &ExtractedDocument{
		ID:         uuid.New().String(),
		Target:     target,
		FileName:   fileName,
		FileSize:   fileSize,
		FileMime:   fileMime,
		Fields:     fields,
		UploadedAt: time.Now(),
	}
	r.mu.Lock()
	r.docs = append(r.docs, doc)
	r.mu.Unlock()
	return doc
}

// Restore replaces the registry content with previously persisted documents.
// Order of the input is preserved as upload order.
func (r *Registry) Restore(docs []*ExtractedDocument) {
	r.mu.Lock()
	r.docs = append(r.docs[:0], docs...)
	r.mu.Unlock()
}

// All returns the documents in upload order.
func (r *Registry) All() []*ExtractedDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ExtractedDocument, len(r.docs))
	copy(out, r.docs)
	return out
}

// ByTarget returns the documents uploaded against one checklist slot,
// oldest first.
func (r *Registry) ByTarget(t Target) []*ExtractedDocument {
	key := t.Key()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ExtractedDocument
	for _, d := range r.docs {
		if d.Target.Key() == key {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the document with the given id, or nil.
func (r *Registry) Get(id string) *ExtractedDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Remove deletes one document by id. Returns false when the id is unknown.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.docs {
		if d.ID == id {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveByLinkedEntity deletes every document linked to the given entity and
// returns how many were removed. Used when a company partner is dropped from
// the session structure.
func (r *Registry) RemoveByLinkedEntity(entityID string) int {
	if entityID == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.docs[:0]
	removed := 0
	for _, d := range r.docs {
		if d.LinkedEntityID == entityID {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	r.docs = kept
	return removed
}

// Link marks a document as belonging to an entity (a company partner).
func (r *Registry) Link(docID, entityID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == docID {
			d.LinkedEntityID = entityID
			return true
		}
	}
	return false
}

// Len returns the number of stored documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// Summary is the first-wins aggregation over every stored document.
type Summary struct {
	Names             []string `json:"nomes"`
	Ages              []int    `json:"idades"`
	Operator          string   `json:"operadora,omitempty"`
	PlanType          string   `json:"tipo_plano,omitempty"`
	CurrentValue      *float64 `json:"valor_atual,omitempty"`
	MeanConfidence    *float64 `json:"confianca_media,omitempty"`
	DocumentCount     int      `json:"total_documentos"`
	CharactersRead    int      `json:"total_caracteres"`
	ContingencyCount  int      `json:"documentos_contingencia"`
	ConfidenceSamples int      `json:"amostras_confianca"`
}

// Summarize folds the registry into a session-level view. Scalar fields keep
// the value from the earliest document that provided one (first wins); names
// are the distinct union and ages the sorted distinct union across documents.
func (r *Registry) Summarize() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{DocumentCount: len(r.docs)}
	nameSeen := map[string]bool{}
	ageSeen := map[int]bool{}
	var confSum float64

	for _, d := range r.docs {
		f := d.Fields
		for _, n := range f.BeneficiaryNames {
			if n != "" && !nameSeen[n] {
				nameSeen[n] = true
				s.Names = append(s.Names, n)
			}
		}
		for _, a := range f.Ages {
			if !ageSeen[a] {
				ageSeen[a] = true
				s.Ages = append(s.Ages, a)
			}
		}
		if s.Operator == "" && f.Operator != "" {
			s.Operator = f.Operator
		}
		if s.PlanType == "" && f.PlanType != "" {
			s.PlanType = f.PlanType
		}
		if s.CurrentValue == nil && f.CurrentValue != nil {
			v := *f.CurrentValue
			s.CurrentValue = &v
		}
		s.CharactersRead += f.TotalCharacters
		if f.Confidence == constants.ConfidenceLow && strings.Contains(f.TextPreview, "contingência") {
			s.ContingencyCount++
		}
		if v, ok := parseConfidence(f.Confidence); ok {
			confSum += v
			s.ConfidenceSamples++
		}
	}

	sort.Ints(s.Ages)
	if s.ConfidenceSamples > 0 {
		mean := confSum / float64(s.ConfidenceSamples)
		s.MeanConfidence = &mean
	}
	return s
}

// parseConfidence extracts a numeric confidence like "90" or "85%" from a
// document. The categorical labels (alta, media, baixa) carry no number and
// are excluded from the mean, as are non-positive values.
func parseConfidence(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	if v <= 0 {
		return 0, false
	}
	return v, true
}
