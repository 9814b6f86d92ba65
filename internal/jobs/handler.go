package jobs

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"printjobs-api/internal/httpjson"
)

// Handler atende GET /searchJobs.
type Handler struct {
	catalogue *Catalogue
}

func NewHandler(c *Catalogue) *Handler {
	return &Handler{catalogue: c}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		httpjson.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.catalogue.Search(q)
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) {
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// ParseQuery lê keyword, location, min_budget, max_budget, tags (repetido
// ou separado por vírgula), page e page_size.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Keyword:  v.Get("keyword"),
		Location: v.Get("location"),
		Page:     1,
		PageSize: DefaultPageSize,
	}

	var err error
	if q.MinBudget, err = optionalFloat(v, "min_budget"); err != nil {
		return Query{}, err
	}
	if q.MaxBudget, err = optionalFloat(v, "max_budget"); err != nil {
		return Query{}, err
	}
	if q.Page, err = intOr(v, "page", q.Page); err != nil {
		return Query{}, err
	}
	if q.PageSize, err = intOr(v, "page_size", q.PageSize); err != nil {
		return Query{}, err
	}

	for _, raw := range v["tags"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}
	return q, nil
}

func optionalFloat(v url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidQuery, name)
	}
	return &f, nil
}

func intOr(v url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidQuery, name)
	}
	return n, nil
}
