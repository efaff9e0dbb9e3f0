package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	httperr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgReadBodyFailed  = "Failed to read request body"
	msgInvalidJSON     = "Invalid JSON body"
	msgEmptyCapture    = "Capture document contains no events"
	msgEmptyMasterData = "Capture document contains no vocabulary elements"
	msgPersistFailed   = "Failed to persist event"
	msgVocabFailed     = "Failed to store vocabulary element"
)

// captureError carries the HTTP error shape from a helper back to the handler.
type captureError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *captureError) Error() string {
	return e.message
}

// CaptureHandler handles POST /v1/capture. The whole document is validated
// before any event is stored.
func (s *Service) CaptureHandler(c *gin.Context) {
	var req v1.CaptureRequest
	payloadSize, cerr := s.bindBody(c, &req)
	if cerr != nil {
		writeError(c, cerr)
		return
	}
	if len(req.Events) == 0 {
		writeError(c, &captureError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidEventError,
			message:    msgEmptyCapture,
		})
		return
	}

	for i := range req.Events {
		if err := req.Events[i].Validate(); err != nil {
			slog.Warn("[Capture] Event validation failed", "index", i, "error", err)
			writeError(c, &captureError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidEventError,
				message:    err.Error(),
				details:    map[string]interface{}{"index": i},
			})
			return
		}
	}

	captureID := uuid.NewString()
	recordTime := s.now().UTC()
	slog.Info("[Capture] Received capture document",
		"capture_id", captureID,
		"events", len(req.Events),
		"payload_size", payloadSize)

	for i := range req.Events {
		evt := &req.Events[i]
		evt.RecordTime = recordTime
		if cerr := s.persistEvent(c.Request.Context(), evt); cerr != nil {
			slog.Error("[Capture] Capture aborted", "capture_id", captureID, "index", i, "stored", i)
			cerr.details = map[string]interface{}{"index": i, "stored": i}
			writeError(c, cerr)
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "count": len(req.Events)})
}

// MasterDataHandler handles POST /v1/capture/masterdata.
func (s *Service) MasterDataHandler(c *gin.Context) {
	var req v1.MasterDataCaptureRequest
	if _, cerr := s.bindBody(c, &req); cerr != nil {
		writeError(c, cerr)
		return
	}
	if len(req.VocabularyElements) == 0 {
		writeError(c, &captureError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidEventError,
			message:    msgEmptyMasterData,
		})
		return
	}

	for i, elem := range req.VocabularyElements {
		if elem.Type == "" || elem.URI == "" {
			writeError(c, &captureError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidEventError,
				message:    fmt.Sprintf("vocabularyElements[%d]: type and id are required", i),
			})
			return
		}
	}

	ctx := c.Request.Context()
	for _, elem := range req.VocabularyElements {
		id, err := s.interner.InternOrLookup(ctx, elem.Type, elem.URI)
		if err == nil {
			err = s.vocab.UpsertVocabularyAttributes(ctx, id, elem.Attributes)
		}
		if err != nil {
			slog.Error("[Capture] Failed to store vocabulary element", "type", elem.Type, "uri", elem.URI, "error", err)
			writeError(c, &captureError{
				statusCode: http.StatusInternalServerError,
				errorType:  httperr.HttpInternalError,
				message:    msgVocabFailed,
			})
			return
		}
	}

	slog.Info("[Capture] Stored master data", "elements", len(req.VocabularyElements))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "count": len(req.VocabularyElements)})
}

// bindBody reads at most maxBodySizeBytes and decodes them into dst.
func (s *Service) bindBody(c *gin.Context, dst interface{}) (int, *captureError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Capture] Failed to read request body", "error", err)
		return 0, &captureError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Capture] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return len(bodyBytes), &captureError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("[Capture] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return len(bodyBytes), &captureError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return len(bodyBytes), nil
}

// internRefs resolves every vocabulary reference of evt.
func (s *Service) internRefs(ctx context.Context, evt *v1.Event) (storage.VocabRefs, error) {
	var (
		refs storage.VocabRefs
		err  error
	)
	optional := []struct {
		dst     **int64
		vocType string
		uri     string
	}{
		{&refs.BizStep, storage.VocBusinessStep, evt.BizStep},
		{&refs.Disposition, storage.VocDisposition, evt.Disposition},
		{&refs.ReadPoint, storage.VocReadPoint, evt.ReadPoint},
		{&refs.BizLocation, storage.VocBusinessLocation, evt.BizLocation},
		{&refs.EPCClass, storage.VocEPCClass, evt.EPCClass},
	}
	for _, ref := range optional {
		if *ref.dst, err = s.interner.InternOptional(ctx, ref.vocType, ref.uri); err != nil {
			return refs, err
		}
	}

	for _, bt := range evt.BizTransactionList {
		typeID, err := s.interner.InternOptional(ctx, storage.VocBusinessTransactionType, bt.Type)
		if err != nil {
			return refs, err
		}
		valueID, err := s.interner.InternOrLookup(ctx, storage.VocBusinessTransaction, bt.Value)
		if err != nil {
			return refs, err
		}
		refs.BizTransactions = append(refs.BizTransactions, storage.BizTransactionRef{TypeID: typeID, ValueID: valueID})
	}
	return refs, nil
}

// persistEvent interns the event's references and saves it.
func (s *Service) persistEvent(ctx context.Context, evt *v1.Event) *captureError {
	refs, err := s.internRefs(ctx, evt)
	if err == nil {
		evt.ID, err = s.events.SaveEvent(ctx, evt, refs)
	}
	if err != nil {
		slog.Error("[Capture] Failed to persist event", "error", err, "event_type", evt.Type)
		return &captureError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	slog.Debug("[Capture] Stored event", "event_type", evt.Type, "event_id", evt.ID)
	return nil
}

// writeError serializes a captureError as the JSON HTTP response.
func writeError(c *gin.Context, err *captureError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
