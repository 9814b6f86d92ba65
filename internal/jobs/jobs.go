// Package jobs expõe a busca de trabalhos de impressão 3D.
//
// O catálogo é sintético e fica em memória; a busca filtra e pagina.
package jobs

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	catalogSize     = 20
)

var ErrInvalidQuery = errors.New("jobs: invalid query")

// namespace fixo para os ids do catálogo serem estáveis entre execuções
var catalogNamespace = uuid.MustParse("6f1c1d5e-3b1a-4d8e-9a57-0d0c2f6a9b10")

type Job struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Budget      float64   `json:"budget"`
	MaxPayout   float64   `json:"max_payout,omitempty"`
	Location    string    `json:"location,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// Query com ponteiro = filtro opcional.
type Query struct {
	Keyword   string
	Location  string
	MinBudget *float64
	MaxBudget *float64
	Tags      []string
	Page      int
	PageSize  int
}

type Result struct {
	Jobs     []Job `json:"jobs"`
	Total    int   `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// Validate devolve erro que envolve ErrInvalidQuery.
func (q Query) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidQuery)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	}
	if q.MinBudget != nil && *q.MinBudget <= 0 {
		return fmt.Errorf("%w: min_budget must be > 0", ErrInvalidQuery)
	}
	if q.MaxBudget != nil && *q.MaxBudget <= 0 {
		return fmt.Errorf("%w: max_budget must be > 0", ErrInvalidQuery)
	}
	return nil
}

var (
	locations = []string{"Roma", "Milano", "Torino", "Napoli", "Bologna"}
	tagSets   = [][]string{
		{"prototipo", "industriale"},
		{"prototipo", "design"},
		{"miniatura", "hobby"},
		{"industriale", "ricambi"},
	}
)

// Catalog gera os 20 trabalhos de exemplo. Budget > 10 e MaxPayout < 1000.
func Catalog() []Job {
	out := make([]Job, 0, catalogSize)
	for i := 1; i <= catalogSize; i++ {
		out = append(out, Job{
			ID:          uuid.NewSHA1(catalogNamespace, fmt.Appendf(nil, "job-%d", i)),
			Title:       fmt.Sprintf("Stampa 3D di prototipo %d", i),
			Description: fmt.Sprintf("Stampa di un prototipo di prodotto. Lotto %d.", i),
			Budget:      50 + float64(i)*10,
			MaxPayout:   500 + float64(i)*20,
			Location:    locations[(i-1)%len(locations)],
			Tags:        slices.Clone(tagSets[(i-1)%len(tagSets)]),
		})
	}
	return out
}

// Catalogue é imutável depois de criado; Search só lê.
type Catalogue struct {
	jobs []Job
}

func NewCatalogue(jobs []Job) *Catalogue {
	return &Catalogue{jobs: slices.Clone(jobs)}
}

func (c *Catalogue) Search(q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))
	location := strings.ToLower(strings.TrimSpace(q.Location))

	matched := make([]Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(job.Title), keyword) &&
			!strings.Contains(strings.ToLower(job.Description), keyword) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(job.Location), location) {
			continue
		}
		if q.MinBudget != nil && job.Budget < *q.MinBudget {
			continue
		}
		if q.MaxBudget != nil && job.Budget > *q.MaxBudget {
			continue
		}
		if len(q.Tags) > 0 && !slices.ContainsFunc(q.Tags, func(t string) bool {
			return slices.Contains(job.Tags, t)
		}) {
			continue
		}
		matched = append(matched, job)
	}

	total := len(matched)
	start := min((q.Page-1)*q.PageSize, total)
	end := min(start+q.PageSize, total)

	return Result{
		Jobs:     matched[start:end],
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}
