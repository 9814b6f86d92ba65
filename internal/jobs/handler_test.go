package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	NewHandler(NewCatalogue(Catalog())).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestHandler_DefaultsAndShape(t *testing.T) {
	rr := get(t, "/api/v1/searchJobs")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 20 || res.Page != 1 || res.PageSize != 10 || len(res.Jobs) != 10 {
		t.Fatalf("unexpected result: total=%d page=%d size=%d len=%d", res.Total, res.Page, res.PageSize, len(res.Jobs))
	}
}

func TestHandler_Filters(t *testing.T) {
	rr := get(t, "/api/v1/searchJobs?location=milano&tags=design,hobby&min_budget=60")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res Result
	_ = json.NewDecoder(rr.Body).Decode(&res)
	if res.Total == 0 {
		t.Fatalf("expected matches")
	}
	for _, j := range res.Jobs {
		if j.Location != "Milano" {
			t.Fatalf("unexpected location %q", j.Location)
		}
	}
}

func TestHandler_RepeatedTags(t *testing.T) {
	q, err := ParseQuery(map[string][]string{"tags": {"a", "b, c", ""}})
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if len(q.Tags) != 3 || q.Tags[2] != "c" {
		t.Fatalf("unexpected tags %v", q.Tags)
	}
}

func TestHandler_InvalidQuery(t *testing.T) {
	for _, target := range []string{
		"/api/v1/searchJobs?page=0",
		"/api/v1/searchJobs?page_size=500",
		"/api/v1/searchJobs?min_budget=abc",
		"/api/v1/searchJobs?max_budget=0",
		"/api/v1/searchJobs?page=x",
	} {
		rr := get(t, target)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", target, rr.Code)
			continue
		}
		var body struct{ Detail string }
		_ = json.NewDecoder(rr.Body).Decode(&body)
		if body.Detail == "" {
			t.Errorf("%s: expected detail", target)
		}
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHandler(NewCatalogue(Catalog())).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/searchJobs", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
