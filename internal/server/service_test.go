package server

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/policy-extract/constants"
	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/entity"
	fsingest "github.com/joseph-ayodele/policy-extract/internal/ingest"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
	"github.com/joseph-ayodele/policy-extract/internal/masterdata"
	ingestsvc "github.com/joseph-ayodele/policy-extract/internal/services/ingest"
)

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, req llm.ExtractRequest) (entity.Record, []byte, error) {
	rec := entity.NewRecord()
	rec.Set(constants.FieldProposerName, "Asha Verma")
	rec.Set(constants.FieldPolicyNo, "P-"+strings.TrimSuffix(req.Filename, ".pdf"))
	rec.Set(constants.FieldFinalPremium, "118")
	rec.Set(constants.FieldPolicyStartDate, "2024-01-01")
	return rec, nil, nil
}

type stubMaster struct{}

func (stubMaster) Load(context.Context) (masterdata.Master, error) {
	return masterdata.Master{
		Companies:  []entity.InsuranceCompany{{ID: 1, Name: "Acme General"}},
		Categories: []entity.PolicyCategory{{ID: 7, CategoryName: "Motor"}},
	}, nil
}

func dial(t *testing.T, opts ...Option) (*BatchServiceClient, *batch.Batch) {
	t.Helper()
	b := batch.New()
	ing := ingestsvc.NewService(fsingest.NewFSIngestor(nil), b, nil, nil)
	srv := NewBatchServer(b, ing, stubExtractor{}, nil, opts...)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(nil)))
	RegisterBatchServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewBatchServiceClient(conn), b
}

func TestBatchService_EndToEnd(t *testing.T) {
	c, _ := dial(t)
	ctx := context.Background()

	sel, err := c.Select(ctx, &SelectRequest{Company: " Acme General ", Category: "Motor"})
	require.NoError(t, err)
	assert.Equal(t, "Acme General", sel.Selection.Company)
	assert.NotEmpty(t, sel.BatchID)

	in, err := c.Intake(ctx, &IntakeRequest{
		Files: []Upload{
			{Name: "a.pdf", Data: []byte("%PDF-1.4 a")},
			{Name: "b.pdf", Data: []byte("%PDF-1.4 b")},
		},
		Process: true,
	})
	require.NoError(t, err)
	require.Len(t, in.TaskIDs, 2)

	list, err := c.ListTasks(ctx, &ListTasksRequest{})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 2)
	for _, task := range list.Tasks {
		assert.Equal(t, constants.TaskDone, task.Status)
		assert.Equal(t, constants.ProgressComplete, task.Progress)
	}

	got, err := c.GetTask(ctx, &GetTaskRequest{TaskID: in.TaskIDs[1]})
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", got.Task.Source.Name)
	assert.Equal(t, "P-b", got.Task.Record.Get(constants.FieldPolicyNo))

	sum, err := c.Summary(ctx, &SummaryRequest{})
	require.NoError(t, err)
	require.NotNil(t, sum.Summary)
	assert.Equal(t, 2, sum.Summary.Documents)
	assert.Equal(t, sum.Summary.Label(), sum.Label)

	exp, err := c.Export(ctx, &ExportRequest{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, 2, exp.Rows)
	assert.True(t, strings.HasPrefix(exp.Filename, "Extraction_Acme General_Motor_"))
	assert.Contains(t, string(exp.Data), `"P-a"`)

	cl, err := c.Clear(ctx, &ClearRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, sel.BatchID, cl.BatchID)

	list, err = c.ListTasks(ctx, &ListTasksRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Tasks)
	assert.Equal(t, entity.Selection{}, list.Selection)
}

func TestBatchService_ErrorCodes(t *testing.T) {
	c, _ := dial(t)
	ctx := context.Background()

	_, err := c.Select(ctx, &SelectRequest{Company: "Acme"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Intake(ctx, &IntakeRequest{Files: []Upload{{Name: "a.pdf", Data: []byte("%PDF-1.4")}}})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err), "selection required")

	_, err = c.Export(ctx, &ExportRequest{Format: "csv"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err), "nothing to export")

	_, err = c.Export(ctx, &ExportRequest{Format: "pdf"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.GetTask(ctx, &GetTaskRequest{TaskID: "6f1c7f62-52c5-4bd0-9a8d-0d6b44e1f9a1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetTask(ctx, &GetTaskRequest{TaskID: "nope"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Process(ctx, &ProcessRequest{Async: true})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err), "no queue configured")

	_, err = c.MasterData(ctx, &MasterDataRequest{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = c.History(ctx, &HistoryRequest{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = c.Select(ctx, &SelectRequest{Company: "Acme", Category: "Motor"})
	require.NoError(t, err)
	_, err = c.Intake(ctx, &IntakeRequest{Files: []Upload{{Name: "notes.txt", Data: []byte("plain text")}}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "unsupported content")
}

func TestBatchService_SummaryEmptyBeforeProcessing(t *testing.T) {
	c, b := dial(t)
	b.Select("Acme", "Motor")
	_, err := b.Intake(entity.SourceFile{Name: "a.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)

	sum, err := c.Summary(context.Background(), &SummaryRequest{})
	require.NoError(t, err)
	assert.Nil(t, sum.Summary)
	assert.Empty(t, sum.Label)
}

func TestBatchService_ProcessSingleTask(t *testing.T) {
	c, b := dial(t)
	b.Select("Acme", "Motor")
	ids, err := b.Intake(
		entity.SourceFile{Name: "a.pdf", Data: []byte("%PDF-1.4 a")},
		entity.SourceFile{Name: "b.pdf", Data: []byte("%PDF-1.4 b")},
	)
	require.NoError(t, err)

	resp, err := c.Process(context.Background(), &ProcessRequest{TaskID: ids[1]})
	require.NoError(t, err)
	assert.True(t, resp.Ran)

	first, _ := b.Get(ids[0])
	second, _ := b.Get(ids[1])
	assert.Equal(t, constants.TaskPending, first.Status)
	assert.Equal(t, constants.TaskDone, second.Status)

	resp, err = c.Process(context.Background(), &ProcessRequest{TaskID: ids[1]})
	require.NoError(t, err)
	assert.False(t, resp.Ran, "done tasks are not reprocessed")
}

func TestBatchService_GetTaskTrimsID(t *testing.T) {
	c, b := dial(t)
	b.Select("Acme", "Motor")
	ids, err := b.Intake(entity.SourceFile{Name: "a.pdf", Data: []byte("%PDF-1.4 a")})
	require.NoError(t, err)

	got, err := c.GetTask(context.Background(), &GetTaskRequest{TaskID: "  " + ids[0] + "\n"})
	require.NoError(t, err)
	assert.Equal(t, ids[0], got.Task.ID)

	_, err = c.GetTask(context.Background(), &GetTaskRequest{TaskID: "   "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBatchService_MasterData(t *testing.T) {
	c, _ := dial(t, WithMasterData(stubMaster{}))
	resp, err := c.MasterData(context.Background(), &MasterDataRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, "Motor", resp.Categories[0].CategoryName)
}
