package server

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-ledger/internal/assemble"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/export"
	"github.com/joseph-ayodele/invoice-ledger/internal/metrics"
	"github.com/joseph-ayodele/invoice-ledger/internal/session"
	"github.com/joseph-ayodele/invoice-ledger/internal/validate"
)

const payload = `{"invoices":[{"id":"i1","serialNumber":"INV-1","customerName":"Alice","productName":"Widget","quantity":2,"tax":2,"totalAmount":22,"date":"2024-01-05"}],
"products":[{"id":"p1","name":"Widget","quantity":2,"unitPrice":10,"tax":10,"priceWithTax":22}],
"customers":[{"id":"c1","name":"Alice","phoneNumber":"5551234567","totalPurchaseAmount":22}]}`

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	rec := metrics.NewRecorder()
	asm, err := assemble.New(assemble.Options{Validate: validate.DefaultOptions()}, nil)
	require.NoError(t, err)
	proc := core.NewProcessor(nil, nil, nil, asm, rec)
	store := session.NewStore(validate.New(validate.DefaultOptions()), nil, session.WithObserver(rec))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterSessionServiceServer(srv, NewSessionService(proc, store, export.NewService(nil), nil))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(SessionServiceName, healthpb.HealthCheckResponse_SERVING)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestSessionServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewSessionServiceClient(dial(t))

	got, err := c.Extract(ctx, mustStruct(t, map[string]any{"payload": payload}))
	require.NoError(t, err)
	data := got.AsMap()
	require.Len(t, data["products"], 1)
	require.Len(t, data["invoices"], 1)

	out, err := c.EditProduct(ctx, mustStruct(t, map[string]any{
		"id":    "p1",
		"patch": map[string]any{"discount": "50%"},
	}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, []any{"i1"}, m["updatedInvoices"])
	snap := m["data"].(map[string]any)
	product := snap["products"].([]any)[0].(map[string]any)
	assert.Equal(t, 11.0, product["priceWithTax"])
	customer := snap["customers"].([]any)[0].(map[string]any)
	assert.Equal(t, 11.0, customer["totalPurchaseAmount"])

	out, err = c.EditCustomer(ctx, mustStruct(t, map[string]any{
		"id":    "c1",
		"patch": map[string]any{"name": "Alicia"},
	}))
	require.NoError(t, err)
	invoice := out.AsMap()["data"].(map[string]any)["invoices"].([]any)[0].(map[string]any)
	assert.Equal(t, "Alicia", invoice["customerName"])

	snapshot, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", snapshot.AsMap()["customers"].([]any)[0].(map[string]any)["name"])

	x, err := c.ExportXLSX(ctx)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(x.GetValue()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.SheetCustomers)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alicia", rows[1][1])
}

func TestSessionServiceErrors(t *testing.T) {
	ctx := context.Background()
	conn := dial(t)
	c := NewSessionServiceClient(conn)

	_, err := c.Extract(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Extract(ctx, mustStruct(t, map[string]any{"payload": "not json"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Extract(ctx, mustStruct(t, map[string]any{"payload": payload, "mimeType": "application/msword"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Extract(ctx, mustStruct(t, map[string]any{"text": "INVOICE 1"}))
	assert.Equal(t, codes.Unavailable, status.Code(err), "no extraction service configured")

	_, err = c.EditProduct(ctx, mustStruct(t, map[string]any{"id": "missing", "patch": map[string]any{"tax": 5}}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.EditCustomer(ctx, mustStruct(t, map[string]any{"id": "c1"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: SessionServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hc.GetStatus())
}
