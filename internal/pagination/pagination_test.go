package pagination

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestPageRequest_Requested(t *testing.T) {
	if (PageRequest{}).Requested() {
		t.Error("empty request must not ask for paging")
	}
	if !(PageRequest{Page: 2}).Requested() || !(PageRequest{PageSize: 5}).Requested() {
		t.Error("page or pageSize must ask for paging")
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"defaults", PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"keeps values", PageRequest{Page: 3, PageSize: 10}, PageRequest{Page: 3, PageSize: 10}},
		{"clamps size", PageRequest{Page: 1, PageSize: 1000}, PageRequest{Page: 1, PageSize: MaxPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	req := PageRequest{Page: 2, PageSize: 10}

	page := NewPage([]int{1, 2, 3}, req, 23)
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
	if page.Page != 2 || page.PageSize != 10 || page.TotalItems != 23 {
		t.Errorf("unexpected page: %+v", page)
	}

	empty := NewPage[int](nil, req, 0)
	if empty.Data == nil || empty.TotalPages != 0 {
		t.Errorf("unexpected empty page: %+v", empty)
	}
}

func TestScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		testutil.CreateTestTransaction(t, db, user, models.TransactionTypeExpense, models.CategoryFood, "1", base.AddDate(0, 0, i))
	}

	var got []models.Transaction
	req := PageRequest{Page: 2, PageSize: 2}
	if err := db.Order("date ASC").Scopes(Scope(req)).Find(&got).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if !got[0].Date.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("first row date = %v, want third day", got[0].Date)
	}
}
