// Package admin is the staff-facing listing layer: every table gets a
// read-only view with display columns, free-text search and exact filters.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

var (
	ErrUnknownResource = fmt.Errorf("%w: admin resource", domain.ErrNotFound)
	ErrUnknownFilter   = errors.New("unknown filter")
	ErrBadFilterValue  = errors.New("invalid filter value")
)

type filterKind int

const (
	filterText filterKind = iota
	filterBool
)

// Column is one displayed value. Expr is a SQL expression over the
// resource's aliased tables.
type Column struct {
	Name string `json:"name"`
	Expr string `json:"-"`
}

type Filter struct {
	Param string     `json:"param"`
	Expr  string     `json:"-"`
	kind  filterKind
}

type Resource struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	From    string   `json:"-"`
	Joins   []string `json:"-"`
	Columns []Column `json:"columns"`
	Search  []string `json:"-"`
	Filters []Filter `json:"filters"`
	OrderBy string   `json:"-"`
}

type Query struct {
	Search  string
	Filters map[string]string
	domain.Page
}

type Page struct {
	Resource   string           `json:"resource"`
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type Registry struct {
	db        *gorm.DB
	resources map[string]*Resource
}

// NewRegistry returns a registry with every carelink table registered.
func NewRegistry(db *gorm.DB) *Registry {
	r := &Registry{db: db, resources: make(map[string]*Resource)}
	for _, res := range defaultResources() {
		r.Register(res)
	}
	return r
}

func (r *Registry) Register(res *Resource) {
	r.resources[res.Name] = res
}

// Resources lists registered resources ordered by name.
func (r *Registry) Resources() []*Resource {
	out := make([]*Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) List(ctx context.Context, name string, q Query) (*Page, error) {
	res, ok := r.resources[name]
	if !ok {
		return nil, ErrUnknownResource
	}

	base := r.db.WithContext(ctx).Table(res.From)
	for _, j := range res.Joins {
		base = base.Joins(j)
	}

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" && len(res.Search) > 0 {
		like := "%" + term + "%"
		conds := make([]string, len(res.Search))
		args := make([]any, len(res.Search))
		for i, expr := range res.Search {
			conds[i] = "LOWER(" + expr + ") LIKE ?"
			args[i] = like
		}
		base = base.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	for param, raw := range q.Filters {
		f, ok := res.filter(param)
		if !ok {
			return nil, fmt.Errorf("%w %q for %s", ErrUnknownFilter, param, res.Name)
		}
		v, err := f.value(raw)
		if err != nil {
			return nil, err
		}
		base = base.Where(f.Expr+" = ?", v)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting %s: %w", res.Name, err)
	}

	selects := make([]string, len(res.Columns))
	names := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		selects[i] = col.Expr + " AS " + col.Name
		names[i] = col.Name
	}

	page := q.Page.Normalize()
	rows := make([]map[string]any, 0, page.PageSize)
	err := base.Select(strings.Join(selects, ", ")).
		Order(res.OrderBy).
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", res.Name, err)
	}
	// Some drivers hand back text columns as raw bytes.
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}

	return &Page{
		Resource:   res.Name,
		Columns:    names,
		Rows:       rows,
		TotalCount: total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (res *Resource) filter(param string) (Filter, bool) {
	for _, f := range res.Filters {
		if f.Param == param {
			return f, true
		}
	}
	return Filter{}, false
}

func (f Filter) value(raw string) (any, error) {
	if f.kind == filterBool {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false", ErrBadFilterValue, f.Param)
		}
		return b, nil
	}
	return raw, nil
}
