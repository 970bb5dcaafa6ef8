package http

import (
	"net/http"

	"expenseit/internal/ingest"
)

const maxScanUpload = 32 << 20 // 32MB across all pages

type pageResultResponse struct {
	Page      string `json:"page"`
	State     string `json:"state"`
	ReceiptID int64  `json:"receipt_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// handleScan accepts a multipart upload of one or more captured receipt
// images ("images" parts) and runs each through the ingestion pipeline.
// Pages are independent attempts: the response reports every page's outcome
// and a failed page never blocks its siblings.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "receipt scanning is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxScanUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no images provided")
		return
	}

	var pages []ingest.Page
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable image "+fh.Filename)
			return
		}
		opened = append(opened, f)
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		pages = append(pages, ingest.Page{
			Name:        fh.Filename,
			ContentType: contentType,
			Data:        f,
		})
	}

	results := s.orchestrator.ProcessSession(r.Context(), pages)

	out := make([]pageResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, pageResultResponse{
			Page:      res.Page,
			State:     string(res.State),
			ReceiptID: res.ReceiptID,
			Reason:    res.Reason,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
