package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/receipt-organizer/internal/api/middleware"
	"github.com/dvloznov/receipt-organizer/internal/filestore"
	"github.com/dvloznov/receipt-organizer/internal/imaging"
	"github.com/dvloznov/receipt-organizer/internal/ledger"
	"github.com/dvloznov/receipt-organizer/internal/receipt"
	"github.com/dvloznov/receipt-organizer/internal/scan"
)

// maxUploadBytes bounds the multipart form size: the attachment limit plus
// headroom for the text fields.
const maxUploadBytes = imaging.MaxFileSize + 1<<20

// ReceiptsHandler handles receipt CRUD endpoints. Each profile has its own
// coordinator, wired at startup.
type ReceiptsHandler struct {
	services map[string]*ledger.Service
	log      zerolog.Logger
}

// NewReceiptsHandler creates a receipts handler.
func NewReceiptsHandler(services map[string]*ledger.Service, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{services: services, log: log}
}

func (h *ReceiptsHandler) service(w http.ResponseWriter, r *http.Request) (*ledger.Service, bool) {
	profile := r.URL.Query().Get("profile")
	svc, ok := h.services[profile]
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown or missing profile")
		return nil, false
	}
	return svc, true
}

// receiptView is the JSON shape of one record, including a browser link for
// rows with an attachment.
type receiptView struct {
	receipt.Receipt
	AttachmentURL string `json:"attachment_url,omitempty"`
}

func toView(rec receipt.Receipt) receiptView {
	v := receiptView{Receipt: rec}
	if rec.AttachmentKey != "" {
		v.AttachmentURL = filestore.ViewURL(rec.AttachmentKey)
	}
	return v
}

// List handles GET /api/receipts?profile=NAME
func (h *ReceiptsHandler) List(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	records, err := svc.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list receipts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list receipts")
		return
	}

	views := make([]receiptView, 0, len(records))
	for _, rec := range records {
		views = append(views, toView(rec))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": views,
		"count":    len(views),
	})
}

// Create handles POST /api/receipts?profile=NAME with a multipart form:
// date, item, category, amount and an optional receipt file.
func (h *ReceiptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	cand := receipt.Candidate{
		Date:     r.FormValue("date"),
		Item:     r.FormValue("item"),
		Category: r.FormValue("category"),
	}
	if raw := r.FormValue("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Please enter a valid amount.")
			return
		}
		cand.Amount = decimal.NewNullDecimal(amount)
	}

	att, err := readAttachment(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	rec, err := svc.Create(r.Context(), cand, att)
	if err != nil {
		var verr *receipt.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.log.Error().Err(err).Msg("Failed to create receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save receipt")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, toView(rec))
}

// Delete handles DELETE /api/receipts/{id}?profile=NAME. Deleting an
// unknown ID succeeds; the endpoint is idempotent.
func (h *ReceiptsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.Delete(r.Context(), id); err != nil {
		h.log.Error().Err(err).Str("receipt_id", id).Msg("Failed to delete receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete receipt")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func readAttachment(r *http.Request) (*ledger.Attachment, error) {
	file, header, err := r.FormFile("receipt")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &ledger.Attachment{Filename: header.Filename, Data: data}, nil
}

// CategoriesHandler serves the configured category list.
type CategoriesHandler struct {
	categories []string
}

// NewCategoriesHandler creates a categories handler.
func NewCategoriesHandler(categories []string) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List handles GET /api/categories
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.categories,
		"count":      len(h.categories),
	})
}

// ProfilesHandler serves the selectable profile names.
type ProfilesHandler struct {
	names []string
}

// NewProfilesHandler creates a profiles handler.
func NewProfilesHandler(names []string) *ProfilesHandler {
	return &ProfilesHandler{names: names}
}

// List handles GET /api/profiles
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": h.names,
		"count":    len(h.names),
	})
}

// ScanHandler serves Gemini prefill suggestions. Nil scanner means the
// feature is not configured.
type ScanHandler struct {
	scanner *scan.Scanner
	log     zerolog.Logger
}

// NewScanHandler creates a scan handler.
func NewScanHandler(scanner *scan.Scanner, log zerolog.Logger) *ScanHandler {
	return &ScanHandler{scanner: scanner, log: log}
}

// Suggest handles POST /api/scan with a multipart receipt file.
func (h *ScanHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Scanning is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	att, err := readAttachment(r)
	if err != nil || att == nil {
		middleware.WriteError(w, http.StatusBadRequest, "A receipt file is required")
		return
	}
	if !imaging.IsSupported(att.Filename) {
		middleware.WriteError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	suggestion, err := h.scanner.Suggest(r.Context(), att.Data, imaging.MIMEType(att.Filename))
	if err != nil {
		h.log.Error().Err(err).Msg("Scan failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to scan receipt")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, suggestion)
}
