package platform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/platform/platformtest"
)

func newTestTable(t *testing.T, name string) (*platform.Table, *platformtest.Server) {
	t.Helper()
	srv := platformtest.New("test-secret")
	t.Cleanup(srv.Close)
	client := platform.NewClient(srv.URL(), "anon-key", "")
	return platform.NewTable(client, name), srv
}

func TestTableCreateAssignsIdentifier(t *testing.T) {
	table, _ := newTestTable(t, "properties")

	rec, err := table.Create(context.Background(), platform.Record{"name": "Elm Street"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec["property_id"], "identifier should be generated")
	assert.Equal(t, "Elm Street", rec["name"])
	assert.NotEmpty(t, rec["created_at"])
}

func TestTableGetByIDAbsentIsNilNotError(t *testing.T) {
	table, _ := newTestTable(t, "properties")

	rec, err := table.GetByID(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTableListEqualityFilters(t *testing.T) {
	table, srv := newTestTable(t, "units")
	srv.Seed("units", map[string]any{"unit_id": "u1", "property_id": "p1", "status": "available"})
	srv.Seed("units", map[string]any{"unit_id": "u2", "property_id": "p1", "status": "occupied"})
	srv.Seed("units", map[string]any{"unit_id": "u3", "property_id": "p2", "status": "available"})

	rows, err := table.List(context.Background(), map[string]string{
		"property_id": "p1",
		"status":      "available",
	}, platform.ListOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0]["unit_id"])
}

func TestTableListOrderAndPagination(t *testing.T) {
	table, srv := newTestTable(t, "notifications")
	srv.Seed("notifications", map[string]any{"id": "a", "created_at": "2026-01-01T00:00:00Z"})
	srv.Seed("notifications", map[string]any{"id": "b", "created_at": "2026-01-03T00:00:00Z"})
	srv.Seed("notifications", map[string]any{"id": "c", "created_at": "2026-01-02T00:00:00Z"})

	rows, err := table.List(context.Background(), nil, platform.ListOptions{
		OrderBy: "created_at", Desc: true, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["id"])
	assert.Equal(t, "c", rows[1]["id"])

	rows, err = table.List(context.Background(), nil, platform.ListOptions{
		OrderBy: "created_at", Desc: true, Offset: 2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0]["id"])
}

func TestTableUpdatePartial(t *testing.T) {
	table, srv := newTestTable(t, "properties")
	srv.Seed("properties", map[string]any{"property_id": "p1", "name": "Elm", "city": "Berlin"})

	rec, err := table.Update(context.Background(), "p1", platform.Record{"name": "Oak"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Oak", rec["name"])
	assert.Equal(t, "Berlin", rec["city"], "untouched fields must survive")
}

func TestTableUpdateAbsentIsNil(t *testing.T) {
	table, _ := newTestTable(t, "properties")

	rec, err := table.Update(context.Background(), "nope", platform.Record{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTableCreateDuplicateKeyMapsToConflict(t *testing.T) {
	table, srv := newTestTable(t, "users")
	srv.Seed("users", map[string]any{"user_id": "u1", "email": "a@b.c"})

	_, err := table.Create(context.Background(), platform.Record{"user_id": "u1"})
	require.Error(t, err)
	pe, ok := platform.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "23505", pe.Code)
	assert.Equal(t, 409, pe.Status)
}

func TestTableDelete(t *testing.T) {
	table, srv := newTestTable(t, "role_grants")
	srv.Seed("role_grants", map[string]any{"id": "g1", "user_id": "u1", "role": "tenant"})

	require.NoError(t, table.Delete(context.Background(), "g1"))
	rec, err := table.GetByID(context.Background(), "g1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDecodeRecordRoundTrip(t *testing.T) {
	var out struct {
		ID   string `json:"unit_id"`
		Rent float64 `json:"rent_amount"`
	}
	err := platform.DecodeRecord(platform.Record{"unit_id": "u1", "rent_amount": 1200.5}, &out)
	require.NoError(t, err)
	assert.Equal(t, "u1", out.ID)
	assert.Equal(t, 1200.5, out.Rent)
}
