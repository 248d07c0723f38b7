package reporting

import (
	"testing"
	"time"

	"github.com/savegress/ledgerlens/pkg/models"
)

func TestStore_SaveAssignsIdentity(t *testing.T) {
	store := NewStore()

	report := store.Save(&models.ReconciliationReport{})

	if report.ID == "" {
		t.Error("report ID should not be empty")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("report GeneratedAt should be set")
	}
}

func TestStore_GetRoundTrip(t *testing.T) {
	store := NewStore()

	saved := store.Save(&models.ReconciliationReport{
		Summary: models.ReportSummary{MatchedCount: 3},
	})

	found, ok := store.Get(saved.ID)
	if !ok {
		t.Fatal("expected to find saved report")
	}
	if found.Summary.MatchedCount != 3 {
		t.Errorf("expected matched count 3, got %d", found.Summary.MatchedCount)
	}

	if _, ok := store.Get("non-existent"); ok {
		t.Error("expected not to find non-existent report")
	}
}

func TestStore_EachRunIsANewReport(t *testing.T) {
	store := NewStore()

	first := store.Save(&models.ReconciliationReport{})
	second := store.Save(&models.ReconciliationReport{})

	if first.ID == second.ID {
		t.Error("two saves should produce distinct report ids")
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore()

	for i := 0; i < 3; i++ {
		store.Save(&models.ReconciliationReport{})
		time.Sleep(time.Millisecond)
	}

	reports := store.List()
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].GeneratedAt.After(reports[i-1].GeneratedAt) {
			t.Error("reports should be sorted newest first")
		}
	}
}
