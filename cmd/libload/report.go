package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/snowmerak/libload/lib/loader"
)

// buildReport describes the loader state after an operation returned err.
// Metrics from g are summarized when g is not nil.
func buildReport(l *loader.Loader, g prometheus.Gatherer, err error) (*structpb.Struct, error) {
	st := l.Status()
	m := l.Manifest()

	libs := make([]any, 0, m.Len())
	for _, lib := range m.Libraries() {
		libs = append(libs, lib)
	}

	fields := map[string]any{
		"stage":            st.Stage.String(),
		"version":          m.Version(),
		"libraries":        libs,
		"load_attempts":    st.LoadAttempts,
		"attempt_id":       st.LastAttemptID,
		"load_duration_ms": float64(st.LoadDuration.Microseconds()) / 1000,
		"init_duration_ms": float64(st.InitDuration.Microseconds()) / 1000,
		"linker_used":      st.LinkerUsed,
		"result_code":      int(loader.ResultCodeOf(err)),
	}
	if st.LinkerUsed {
		fields["fixed_address_failed"] = st.FixedAddressFailed
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if g != nil {
		summary, gerr := summarizeMetrics(g)
		if gerr != nil {
			return nil, gerr
		}
		fields["metrics"] = summary
	}
	return structpb.NewStruct(fields)
}

// summarizeMetrics reduces each family to one number: the counter total or
// the histogram sample count.
func summarizeMetrics(g prometheus.Gatherer) (map[string]any, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	out := make(map[string]any, len(families))
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			if h := m.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
				continue
			}
			total += m.GetCounter().GetValue()
		}
		out[mf.GetName()] = total
	}
	return out, nil
}

func writeReport(w io.Writer, report *structpb.Struct, asJSON bool) error {
	if asJSON {
		data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(report)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	f := report.GetFields()
	fmt.Fprintf(w, "stage:         %s\n", f["stage"].GetStringValue())
	fmt.Fprintf(w, "version:       %s\n", f["version"].GetStringValue())
	fmt.Fprintf(w, "load attempts: %d\n", int(f["load_attempts"].GetNumberValue()))
	fmt.Fprintf(w, "linker used:   %t\n", f["linker_used"].GetBoolValue())
	if v, ok := f["error"]; ok {
		fmt.Fprintf(w, "error:         %s\n", v.GetStringValue())
	}
	_, err := fmt.Fprintf(w, "result code:   %d\n", int(f["result_code"].GetNumberValue()))
	return err
}
