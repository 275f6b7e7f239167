package pagination

import "testing"

func TestPageRequest_Defaults(t *testing.T) {
	var req PageRequest
	req.Defaults()
	if req.Page != 1 || req.PageSize != 20 {
		t.Errorf("expected 1/20, got %d/%d", req.Page, req.PageSize)
	}
	if req.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", req.Offset())
	}

	req = PageRequest{Page: 3, PageSize: 10}
	if req.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", req.Offset())
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name      string
		req       PageRequest
		wantData  []int
		wantPages int
	}{
		{"first page", PageRequest{Page: 1, PageSize: 2}, []int{1, 2}, 3},
		{"last partial page", PageRequest{Page: 3, PageSize: 2}, []int{5}, 3},
		{"past the end", PageRequest{Page: 9, PageSize: 2}, []int{}, 3},
		{"defaults", PageRequest{}, []int{1, 2, 3, 4, 5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.req)
			if len(got.Data) != len(tt.wantData) {
				t.Fatalf("expected %v, got %v", tt.wantData, got.Data)
			}
			for i := range tt.wantData {
				if got.Data[i] != tt.wantData[i] {
					t.Errorf("expected %v, got %v", tt.wantData, got.Data)
				}
			}
			if got.TotalItems != 5 {
				t.Errorf("expected 5 total items, got %d", got.TotalItems)
			}
			if got.TotalPages != tt.wantPages {
				t.Errorf("expected %d pages, got %d", tt.wantPages, got.TotalPages)
			}
		})
	}
}

func TestSlice_Empty(t *testing.T) {
	got := Slice([]string(nil), PageRequest{})
	if got.Data == nil || len(got.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %v", got.Data)
	}
	if got.TotalPages != 0 {
		t.Errorf("expected 0 pages, got %d", got.TotalPages)
	}
}
