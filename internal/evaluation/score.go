package evaluation

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"hservice/internal/models"
)

// NoPrediction labels rows whose prediction is empty.
const NoPrediction = "none"

type Metric struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int // rows whose true label is this one
}

type Report struct {
	Total   int
	Correct int
	// Labels are the known intents in declaration order, followed by any
	// other label found in the data, sorted.
	Labels  []string
	Matrix  map[string]map[string]int // true label -> predicted label -> rows
	Metrics map[string]Metric
}

func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Count is the number of rows labeled truth and predicted as predicted.
func (r *Report) Count(truth, predicted string) int {
	return r.Matrix[truth][predicted]
}

// Score compares the true intent column (intent_enum when present, intent
// otherwise) with predicted_intent.
func Score(ds *Dataset) (*Report, error) {
	trueColumn := ColumnIntentEnum
	if _, err := ds.Column(trueColumn); err != nil {
		trueColumn = ColumnIntent
	}
	truth, err := ds.Values(trueColumn)
	if err != nil {
		return nil, err
	}
	predicted, err := ds.Values(ColumnPredicted)
	if err != nil {
		return nil, err
	}
	return ScorePairs(truth, predicted), nil
}

// ScorePairs builds the contingency table and per-label metrics. Labels are
// normalized with models.ParseIntent so "TRACK_ORDER" and "track_order" match.
func ScorePairs(truth, predicted []string) *Report {
	r := &Report{Matrix: make(map[string]map[string]int)}
	seen := make(map[string]struct{})
	n := min(len(truth), len(predicted))
	for i := 0; i < n; i++ {
		t, p := normalizeLabel(truth[i]), normalizeLabel(predicted[i])
		seen[t] = struct{}{}
		seen[p] = struct{}{}
		if r.Matrix[t] == nil {
			r.Matrix[t] = make(map[string]int)
		}
		r.Matrix[t][p]++
		r.Total++
		if t == p {
			r.Correct++
		}
	}

	var extra []string
	for _, in := range models.Intents() {
		r.Labels = append(r.Labels, string(in))
		delete(seen, string(in))
	}
	for label := range seen {
		extra = append(extra, label)
	}
	sort.Strings(extra)
	r.Labels = append(r.Labels, extra...)

	r.Metrics = make(map[string]Metric, len(r.Labels))
	for _, label := range r.Labels {
		r.Metrics[label] = r.metric(label)
	}
	return r
}

func (r *Report) metric(label string) Metric {
	tp := r.Matrix[label][label]
	predictedAs := 0
	for _, row := range r.Matrix {
		predictedAs += row[label]
	}
	support := 0
	for _, c := range r.Matrix[label] {
		support += c
	}
	m := Metric{Support: support}
	if predictedAs > 0 {
		m.Precision = float64(tp) / float64(predictedAs)
	}
	if support > 0 {
		m.Recall = float64(tp) / float64(support)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func normalizeLabel(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NoPrediction
	}
	if in, err := models.ParseIntent(s); err == nil {
		return string(in)
	}
	return strings.ToLower(s)
}

// activeLabels are the labels with at least one row on either axis.
func (r *Report) activeLabels() []string {
	var out []string
	for _, label := range r.Labels {
		if r.Metrics[label].Support > 0 {
			out = append(out, label)
			continue
		}
		for _, row := range r.Matrix {
			if row[label] > 0 {
				out = append(out, label)
				break
			}
		}
	}
	return out
}

// Write prints the accuracy, the contingency table restricted to labels that
// occur in the data, and the metrics of every label.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Rows: %d\nCorrect: %d\nOverall Accuracy: %.4f\n\n", r.Total, r.Correct, r.Accuracy())

	active := r.activeLabels()
	fmt.Fprintln(tw, "Contingency Table (rows: true, columns: predicted):")
	fmt.Fprint(tw, "\t")
	for i := range active {
		fmt.Fprintf(tw, "%d\t", i+1)
	}
	fmt.Fprintln(tw)
	for i, t := range active {
		fmt.Fprintf(tw, "%d %s\t", i+1, t)
		for _, p := range active {
			fmt.Fprintf(tw, "%d\t", r.Matrix[t][p])
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Metrics per Intent:")
	fmt.Fprintln(tw, "intent\tprecision\trecall\tf1\tsupport\t")
	for _, label := range r.Labels {
		m := r.Metrics[label]
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%d\t\n", label, m.Precision, m.Recall, m.F1, m.Support)
	}
	return tw.Flush()
}
