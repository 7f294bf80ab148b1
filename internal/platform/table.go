package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Record is one row of a table in the store's wire format. Typed entity
// structs live in internal/model; the untyped map exists only at this
// boundary.
type Record = map[string]any

// primaryKeys maps table names to their identifier column. Tables not
// listed here fall back to "id".
var primaryKeys = map[string]string{
	"users":                "user_id",
	"properties":           "property_id",
	"units":                "unit_id",
	"maintenance_requests": "request_id",
	"leases":               "lease_id",
	"payments":             "payment_id",
	"invoices":             "invoice_id",
	"documents":            "document_id",
	"inspections":          "inspection_id",
	"reports":              "report_id",
	"unit_listings":        "listing_id",
	"tasks":                "task_id",
}

// Table is the generic adapter over one collection in the hosted store. It
// only knows equality filters; range and substring filtering happen in the
// repositories after the page comes back.
type Table struct {
	c    *Client
	name string
	pk   string
}

// NewTable returns the adapter for one table, resolving its identifier
// column from the static map.
func NewTable(c *Client, name string) *Table {
	pk := primaryKeys[name]
	if pk == "" {
		pk = "id"
	}
	return &Table{c: c, name: name, pk: pk}
}

// PK exposes the table's identifier column for callers building filters.
func (t *Table) PK() string { return t.pk }

func (t *Table) path() string { return "/rest/v1/" + t.name }

// Create inserts one row and returns it as stored. A fresh UUID is
// assigned when the caller did not supply the identifier column.
func (t *Table) Create(ctx context.Context, fields Record) (Record, error) {
	if _, ok := fields[t.pk]; !ok {
		fields[t.pk] = uuid.NewString()
	}
	data, err := t.c.do(ctx, http.MethodPost, t.path(), nil, t.c.dataKey(), fields)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(data)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// GetByID returns the row with the given identifier, or nil when absent.
// Absence is not an error; callers check for nil.
func (t *Table) GetByID(ctx context.Context, id string) (Record, error) {
	return t.GetByField(ctx, t.pk, id)
}

// GetByField returns the first row whose column equals value, or nil.
func (t *Table) GetByField(ctx context.Context, field, value string) (Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set(field, "eq."+value)
	q.Set("limit", "1")
	data, err := t.c.do(ctx, http.MethodGet, t.path(), q, t.c.dataKey(), nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(data)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// ListOptions controls pagination and ordering of List.
type ListOptions struct {
	Offset  int
	Limit   int
	OrderBy string // column name; empty means store order
	Desc    bool
}

// List returns rows matching all equality filters, newest-first when asked.
// Only equality is pushed to the store.
func (t *Table) List(ctx context.Context, filters map[string]string, opt ListOptions) ([]Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	for field, value := range filters {
		q.Set(field, "eq."+value)
	}
	if opt.Limit > 0 {
		q.Set("limit", strconv.Itoa(opt.Limit))
	}
	if opt.Offset > 0 {
		q.Set("offset", strconv.Itoa(opt.Offset))
	}
	if opt.OrderBy != "" {
		dir := ".asc"
		if opt.Desc {
			dir = ".desc"
		}
		q.Set("order", opt.OrderBy+dir)
	}
	data, err := t.c.do(ctx, http.MethodGet, t.path(), q, t.c.dataKey(), nil)
	if err != nil {
		return nil, err
	}
	return decodeRows(data)
}

// Update applies a partial update to the row with the given identifier and
// returns the updated row, or nil when no row matched.
func (t *Table) Update(ctx context.Context, id string, fields Record) (Record, error) {
	q := url.Values{}
	q.Set(t.pk, "eq."+id)
	data, err := t.c.do(ctx, http.MethodPatch, t.path(), q, t.c.dataKey(), fields)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(data)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Delete physically removes the row. Entity repositories expose soft
// deletion (a status flip via Update) instead; this exists for the rare
// hard-delete paths and for tests.
func (t *Table) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set(t.pk, "eq."+id)
	_, err := t.c.do(ctx, http.MethodDelete, t.path(), q, t.c.dataKey(), nil)
	return err
}

// decodeRows parses a table-API response body, which is always a JSON array
// (possibly empty). Mutations with return=representation follow the same
// shape.
func decodeRows(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []Record
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &Error{Code: "UPSTREAM_DECODE", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	return rows, nil
}

// DecodeRecord converts a wire record into a typed struct via JSON
// round-trip. It is the single place the untyped boundary becomes typed.
func DecodeRecord(rec Record, out any) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

// DecodeRecords converts a slice of wire records into typed structs.
func DecodeRecords(recs []Record, out any) error {
	buf, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}
