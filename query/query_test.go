package query_test

import (
	"regexp"
	"testing"

	"github.com/havelihousing/backoffice/query"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   query.Params
		want query.Params
	}{
		{"defaults", query.Params{}, query.Params{Page: 1, Limit: 10}},
		{"negative", query.Params{Page: -3, Limit: -1}, query.Params{Page: 1, Limit: 10}},
		{"capped", query.Params{Page: 2, Limit: 5000}, query.Params{Page: 2, Limit: query.MaxLimit}},
		{"kept", query.Params{Page: 4, Limit: 25, Search: "jaipur"}, query.Params{Page: 4, Limit: 25, Search: "jaipur"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"first of three", 1, 10, 23, 3, true, false},
		{"middle", 2, 10, 23, 3, true, true},
		{"last of three", 3, 10, 23, 3, false, true},
		{"exact multiple", 2, 10, 20, 2, false, true},
		{"empty", 1, 10, 0, 0, false, false},
		{"past the end", 5, 10, 23, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := query.NewPagination(query.Params{Page: tt.page, Limit: tt.limit}, tt.total)
			if p.TotalPages != tt.wantPages {
				t.Errorf("total_pages: got %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.HasNext != tt.wantNext {
				t.Errorf("has_next: got %v, want %v", p.HasNext, tt.wantNext)
			}
			if p.HasPrev != tt.wantPrev {
				t.Errorf("has_prev: got %v, want %v", p.HasPrev, tt.wantPrev)
			}
			if p.CurrentPage != tt.page || p.TotalCount != tt.total {
				t.Errorf("unexpected echo %+v", p)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	all := make([]int, 23)
	for i := range all {
		all[i] = i
	}

	tests := []struct {
		page      int
		wantLen   int
		wantFirst int
	}{
		{1, 10, 0},
		{3, 3, 20},
		{4, 0, -1},
	}

	for _, tt := range tests {
		got := query.Window(all, query.Params{Page: tt.page, Limit: 10})
		if len(got) != tt.wantLen {
			t.Errorf("page %d: got %d items, want %d", tt.page, len(got), tt.wantLen)
			continue
		}
		if tt.wantLen > 0 && got[0] != tt.wantFirst {
			t.Errorf("page %d: first item %d, want %d", tt.page, got[0], tt.wantFirst)
		}
	}
}

func TestSearchPatternIsLiteral(t *testing.T) {
	p := query.Params{Search: "a+b (tonk"}
	re := regexp.MustCompile(p.SearchPattern())
	if !re.MatchString("Plot A+B (Tonk Road)") {
		t.Error("expected literal, case-insensitive match")
	}
	if re.MatchString("aab tonk") {
		t.Error("metacharacters must not be interpreted")
	}
	if (query.Params{}).SearchPattern() != "" {
		t.Error("empty search should give empty pattern")
	}
}
