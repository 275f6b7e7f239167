package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type drinkRequest struct {
	Date  string `binding:"required,ymd_date"`
	Ice   string `binding:"ice_level"`
	Sugar string `binding:"sugar_level"`
}

func TestIsDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-01-02", true},
		{"2024-02-30", false},
		{"2024-1-2", false},
		{"20240102", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsDate(tt.in); got != tt.want {
			t.Errorf("IsDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRegister_BindingTags(t *testing.T) {
	Register([]string{"少冰", "去冰"}, []string{"半糖", "無糖"})

	tests := []struct {
		name    string
		req     drinkRequest
		wantErr bool
	}{
		{"valid", drinkRequest{Date: "2024-01-02", Ice: "少冰", Sugar: "無糖"}, false},
		{"empty levels pass", drinkRequest{Date: "2024-01-02"}, false},
		{"bad date", drinkRequest{Date: "01/02/2024", Ice: "少冰", Sugar: "無糖"}, true},
		{"unknown ice", drinkRequest{Date: "2024-01-02", Ice: "extra", Sugar: "無糖"}, true},
		{"unknown sugar", drinkRequest{Date: "2024-01-02", Ice: "少冰", Sugar: "extra"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.req)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
