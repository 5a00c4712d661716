package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/export"
	"github.com/joseph-ayodele/invoice-ledger/internal/propagate"
	"github.com/joseph-ayodele/invoice-ledger/internal/session"
)

// SessionService exposes one editing session over gRPC.
type SessionService struct {
	proc     *core.Processor
	store    *session.Store
	exporter *export.Service
	logger   *slog.Logger
}

func NewSessionService(proc *core.Processor, store *session.Store, exporter *export.Service, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{proc: proc, store: store, exporter: exporter, logger: logger}
}

// Extract runs one extraction and loads the result into the session. The
// request carries either text (sent to the extraction service) or payload
// (an answer the service already produced), plus an optional filename hint
// and the MIME type declared by the upload.
func (s *SessionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	text := strings.TrimSpace(f["text"].GetStringValue())
	payload := strings.TrimSpace(f["payload"].GetStringValue())
	filename := f["filename"].GetStringValue()
	if mt := f["mimeType"].GetStringValue(); mt != "" && constants.MapMIMEToFormat(mt) == "" {
		err := fmt.Errorf("mime type %q: %w", mt, common.ErrUnsupportedFileType)
		return nil, common.ToStatus(fmt.Errorf("%s: %w", common.UserMessage(err), err))
	}

	var (
		res *core.Result
		err error
	)
	switch {
	case payload != "":
		res, err = s.proc.ProcessPayload(ctx, payload)
	case text != "":
		res, err = s.proc.ProcessText(ctx, text, filename)
	default:
		return nil, common.InvalidArgumentError("text or payload is required")
	}
	if err != nil {
		s.logger.Warn("session.extract.failed", "req_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, common.ToStatus(fmt.Errorf("%s: %w", common.UserMessage(err), err))
	}

	s.store.Load(res.Data)
	return toStruct(s.store.Snapshot())
}

func (s *SessionService) Snapshot(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.store.Snapshot())
}

// EditProduct applies {id, patch} to a product and returns the outcome.
func (s *SessionService) EditProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, patch, err := editRequest(req)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ApplyProductPatch(ctx, id, patch)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return s.outcome(out)
}

// EditCustomer applies {id, patch} to a customer and returns the outcome.
func (s *SessionService) EditCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, patch, err := editRequest(req)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ApplyCustomerPatch(ctx, id, patch)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return s.outcome(out)
}

func (s *SessionService) ExportXLSX(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	b, err := s.exporter.ExportXLSX(ctx, s.store.Snapshot())
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(b), nil
}

func editRequest(req *structpb.Struct) (string, map[string]any, error) {
	f := req.GetFields()
	id := strings.TrimSpace(f["id"].GetStringValue())
	if id == "" {
		return "", nil, common.InvalidArgumentError("id is required")
	}
	patch := f["patch"].GetStructValue()
	if patch == nil {
		return "", nil, common.InvalidArgumentError("patch must be an object")
	}
	return id, patch.AsMap(), nil
}

func (s *SessionService) outcome(out propagate.Outcome) (*structpb.Struct, error) {
	updated := out.UpdatedInvoices
	if updated == nil {
		updated = []string{}
	}
	warnings := out.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return toStruct(map[string]any{
		"updatedInvoices": updated,
		"warnings":        warnings,
		"data":            s.store.Snapshot(),
	})
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.ToStatus(fmt.Errorf("encode response: %w", err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, common.ToStatus(fmt.Errorf("encode response: %w", err))
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.ToStatus(fmt.Errorf("encode response: %w", err))
	}
	return st, nil
}

var _ SessionServiceServer = (*SessionService)(nil)
