package evaluation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"hservice/internal/dialogue"
	"hservice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `flags,instruction,category,intent
B,"I want to cancel my order, please",ORDER,cancel_order
BL,where is my package,DELIVERY,track_order
B,help me get a refund,REFUND,get_refund
`

type keywordProcessor struct {
	calls atomic.Int64
}

func (p *keywordProcessor) GenerateResponse(ctx context.Context, transcript []models.Message) (*models.BotTurnResult, error) {
	p.calls.Add(1)
	if len(transcript) != 1 || transcript[0].Sender != models.SenderUser {
		return nil, errors.New("unexpected transcript")
	}
	text := transcript[0].Text
	switch {
	case strings.Contains(text, "cancel"):
		return &models.BotTurnResult{Reply: "ok", Intent: models.IntentCancelOrder, Thought: "mentions cancel"}, nil
	case strings.Contains(text, "package"):
		return &models.BotTurnResult{Reply: "ok", Intent: models.IntentTrackOrder, Thought: "asks for package"}, nil
	}
	return nil, &dialogue.Error{Kind: dialogue.KindRateLimited, Op: "generate", Err: errors.New("quota")}
}

func TestReadDataset(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader("\ufeff" + sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"flags", "instruction", "category", "intent"}, ds.Header)
	require.Equal(t, 3, ds.Len())

	instructions, err := ds.Values(ColumnInstruction)
	require.NoError(t, err)
	assert.Equal(t, "I want to cancel my order, please", instructions[0])

	_, err = ds.Values("missing")
	assert.Error(t, err)
}

func TestReadDatasetRejectsRaggedRows(t *testing.T) {
	_, err := ReadDataset(strings.NewReader("instruction,intent\nonly one field\n"))
	assert.ErrorContains(t, err, "row 2")

	_, err = ReadDataset(strings.NewReader(""))
	assert.Error(t, err)
}

func TestSampleIsDeterministic(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	a := ds.Sample(2, 42)
	b := ds.Sample(2, 42)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 3, ds.Sample(0, 1).Len())
}

func TestAnnotateAddsPredictionColumns(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	proc := &keywordProcessor{}
	failed, err := NewPredictor(proc, WithWorkers(2)).Annotate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(3), proc.calls.Load())

	predicted, err := ds.Values(ColumnPredicted)
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel_order", "track_order", ""}, predicted)

	thoughts, err := ds.Values(ColumnThought)
	require.NoError(t, err)
	assert.Equal(t, "mentions cancel", thoughts[0])
	assert.Contains(t, thoughts[2], "error: ")
	assert.Contains(t, thoughts[2], "quota")

	var buf bytes.Buffer
	require.NoError(t, ds.Write(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "flags,instruction,category,intent,predicted_intent,thought_process", lines[0])
	assert.Len(t, lines, 4)
}

func TestAnnotateOverwritesExistingPredictions(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader("instruction,intent,predicted_intent\nwhere is my package,track_order,complaint\n"))
	require.NoError(t, err)

	_, err = NewPredictor(&keywordProcessor{}).Annotate(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"instruction", "intent", "predicted_intent", "thought_process"}, ds.Header)
	assert.Equal(t, "track_order", ds.Rows[0][2])
}

func TestPredictCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &keywordProcessor{}
	preds := NewPredictor(proc).Predict(ctx, []string{"cancel it", "where is my package"})
	require.Len(t, preds, 2)
	for _, p := range preds {
		assert.ErrorIs(t, p.Err, context.Canceled)
	}
	assert.Zero(t, proc.calls.Load())
}

func TestScorePairs(t *testing.T) {
	truth := []string{"CANCEL_ORDER", "cancel_order", "track_order", "Intent.GET_REFUND"}
	predicted := []string{"cancel_order", "track_order", "track_order", ""}

	r := ScorePairs(truth, predicted)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Correct)
	assert.InDelta(t, 0.5, r.Accuracy(), 1e-9)
	assert.Equal(t, 1, r.Count("cancel_order", "track_order"))
	assert.Equal(t, 1, r.Count("get_refund", NoPrediction))

	cancelOrder := r.Metrics["cancel_order"]
	assert.InDelta(t, 1.0, cancelOrder.Precision, 1e-9)
	assert.InDelta(t, 0.5, cancelOrder.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, cancelOrder.F1, 1e-9)
	assert.Equal(t, 2, cancelOrder.Support)

	trackOrder := r.Metrics["track_order"]
	assert.InDelta(t, 0.5, trackOrder.Precision, 1e-9)
	assert.InDelta(t, 1.0, trackOrder.Recall, 1e-9)

	assert.Zero(t, r.Metrics["get_refund"].F1)
	assert.Zero(t, r.Metrics["review"].Precision)

	require.Len(t, r.Labels, len(models.Intents())+1)
	assert.Equal(t, "create_account", r.Labels[0])
	assert.Equal(t, NoPrediction, r.Labels[len(r.Labels)-1])
}

func TestScorePrefersIntentEnumColumn(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader("intent,intent_enum,predicted_intent\nx,Intent.REVIEW,review\n"))
	require.NoError(t, err)
	r, err := Score(ds)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Correct)

	_, err = Score(&Dataset{Header: []string{"intent"}})
	assert.Error(t, err)
}

func TestReportWrite(t *testing.T) {
	r := ScorePairs([]string{"review", "complaint"}, []string{"review", "review"})

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "Overall Accuracy: 0.5000")
	assert.Contains(t, out, "Contingency Table")
	assert.Contains(t, out, "1 complaint")
	assert.Contains(t, out, "Metrics per Intent:")
	assert.Contains(t, out, "newsletter_subscription")
}

func TestPrepareAddsIntentEnum(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader("instruction,intent\na,CANCEL_ORDER\nb,track_order\nc,ask_weather\nd,ask_weather\n"))
	require.NoError(t, err)

	unknown, err := Prepare(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"ask_weather"}, unknown)

	enums, err := ds.Values(ColumnIntentEnum)
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel_order", "track_order", "", ""}, enums)

	require.NoError(t, ds.SetColumn(ColumnPredicted, []string{"cancel_order", "complaint", "", "review"}))
	r, err := Score(ds)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count("cancel_order", "cancel_order"))
	assert.Equal(t, 1, r.Count(NoPrediction, NoPrediction))
}

func TestPrepareNeedsIntentColumn(t *testing.T) {
	_, err := Prepare(&Dataset{Header: []string{"instruction"}})
	assert.Error(t, err)
}
