package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestObserveDocument(t *testing.T) {
	m := New()
	m.ObserveDocument(time.Now(), nil)
	m.ObserveDocument(time.Now(), nil)
	m.ObserveDocument(time.Now(), errors.New("bad"))

	out := scrape(t, m)
	if !strings.Contains(out, "vaultport_documents_converted_total 2") {
		t.Error("expected 2 converted documents")
	}
	if !strings.Contains(out, "vaultport_documents_failed_total 1") {
		t.Error("expected 1 failed document")
	}
	if !strings.Contains(out, "vaultport_document_convert_seconds_count 3") {
		t.Error("expected 3 duration observations")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveDocument(time.Now(), nil)
	m.AddDatabases(1)
	m.AddAssets(1)
	m.AddLinked(1)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.AddAssets(3)
	m.AddLinked(1)

	body := scrape(t, m)
	for _, want := range []string{
		"vaultport_assets_copied_total 3",
		"vaultport_pages_linked_total 1",
		"vaultport_document_convert_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
