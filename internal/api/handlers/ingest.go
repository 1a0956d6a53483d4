package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/crestline-ai/reglens/internal/api"
	"github.com/crestline-ai/reglens/internal/domain"
	"github.com/crestline-ai/reglens/internal/metrics"
	"github.com/crestline-ai/reglens/internal/service"
)

const maxMultipartMemory = 10 << 20

// IngestService defines the ingestion surface the handler depends on.
type IngestService interface {
	Ingest(ctx context.Context, documentBytes []byte, filename string, metadata map[string]string) (*service.IngestResult, error)
}

// IngestHandler accepts document uploads for chunking and indexing.
type IngestHandler struct {
	ingestion IngestService
	metrics   *metrics.Metrics
}

func NewIngestHandler(ingestion IngestService, m *metrics.Metrics) *IngestHandler {
	return &IngestHandler{ingestion: ingestion, metrics: m}
}

// IngestResponse is the API shape for a completed ingestion.
type IngestResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
	TablesIndexed int    `json:"tables_indexed"`
	ElapsedMS     int64  `json:"elapsed_ms"`
}

// Ingest handles POST /api/v1/ingest. The request is multipart form data
// with a required "file" part and an optional "metadata_json" field holding a
// flat JSON object of strings.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.HandleError(w, domain.ErrMissingDocumentFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	metadataJSON := r.FormValue("metadata_json")
	if metadataJSON == "" {
		metadataJSON = "{}"
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		api.HandleError(w, domain.ErrInvalidMetadata)
		return
	}

	result, err := h.ingestion.Ingest(r.Context(), data, header.Filename, metadata)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	h.metrics.ObserveIngest(result.ChunkCount)

	api.Success(w, http.StatusCreated, IngestResponse{
		DocumentID:    result.DocumentID,
		ChunksIndexed: result.ChunkCount,
		TablesIndexed: result.TableCount,
		ElapsedMS:     result.ElapsedMS,
	})
}
