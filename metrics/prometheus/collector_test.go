package prometheus

import (
	"context"
	"testing"

	"github.com/hupe1980/datacube"
	"github.com/hupe1980/datacube/blobstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of the counter sample of family name whose
// labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := New(WithConstLabels(prometheus.Labels{"cube": "test"}))
	require.NoError(t, reg.Register(collector))

	c, err := datacube.New([]string{"d1"}, []string{"m1"}, datacube.WithMetricsCollector(collector))
	require.NoError(t, err)

	require.NoError(t, c.AddRow(datacube.NewRow(datacube.F("d1", "a"), datacube.F("m1", 1))))
	require.NoError(t, c.AddRow(datacube.NewRow(datacube.F("d1", "b"), datacube.F("m1", 1))))
	require.Error(t, c.AddRow(datacube.NewRow(datacube.F("m1", 1))))

	_, err = c.Select("d1")
	require.NoError(t, err)

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, c.Save(ctx, store, "cube"))
	_, err = datacube.Load(ctx, store, "cube", datacube.WithMetricsCollector(collector))
	require.NoError(t, err)

	assert.InDelta(t, 2, counterValue(t, reg, "datacube_operations_total", map[string]string{"op": "add_row", "status": "success"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "datacube_operations_total", map[string]string{"op": "add_row", "status": "error"}), 0)
	assert.InDelta(t, 2, counterValue(t, reg, "datacube_query_rows_total", map[string]string{"op": "select", "cube": "test"}), 0)

	saved := counterValue(t, reg, "datacube_persisted_bytes_total", map[string]string{"direction": "save"})
	loaded := counterValue(t, reg, "datacube_persisted_bytes_total", map[string]string{"direction": "load"})
	assert.Positive(t, saved)
	assert.InDelta(t, saved, loaded, 0)
}

func TestCollector_Namespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := New(WithNamespace("analytics"), WithBuckets([]float64{0.001, 0.01}))
	require.NoError(t, reg.Register(collector))

	collector.RecordQuery("where", 3, 0, nil)
	assert.InDelta(t, 3, counterValue(t, reg, "analytics_query_rows_total", map[string]string{"op": "where"}), 0)
}
