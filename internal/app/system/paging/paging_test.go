package paging_test

import (
	"net/http/httptest"
	"testing"

	"github.com/medinotify/portal/internal/app/system/paging"
)

func TestLimit(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want int64
	}{
		{"missing uses fallback", "/", 50},
		{"explicit value", "/?limit=10", 10},
		{"zero uses fallback", "/?limit=0", 50},
		{"negative uses fallback", "/?limit=-5", 50},
		{"garbage uses fallback", "/?limit=ten", 50},
		{"clamped to max", "/?limit=10000", paging.MaxLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			if got := paging.Limit(r, 50); got != tc.want {
				t.Errorf("Limit(%q): got %d, want %d", tc.url, got, tc.want)
			}
		})
	}
}
