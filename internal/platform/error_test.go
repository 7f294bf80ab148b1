package platform

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		httpStatus int
		body       string
		wantCode   string
		wantStatus int
	}{
		{
			name:       "unique violation maps to conflict",
			httpStatus: 409,
			body:       `{"code":"23505","message":"duplicate key value violates unique constraint"}`,
			wantCode:   "23505",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "foreign key violation maps to conflict",
			httpStatus: 409,
			body:       `{"code":"23503","message":"violates foreign key constraint"}`,
			wantCode:   "23503",
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid input syntax maps to bad request",
			httpStatus: 500,
			body:       `{"code":"22P02","message":"invalid input syntax for type uuid"}`,
			wantCode:   "22P02",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "undefined column maps to bad request",
			httpStatus: 400,
			body:       `{"code":"42703","message":"column does not exist"}`,
			wantCode:   "42703",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing table maps to not found",
			httpStatus: 404,
			body:       `{"code":"PGRST205","message":"Could not find the table"}`,
			wantCode:   "PGRST205",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "identity api error shape",
			httpStatus: 400,
			body:       `{"error":"invalid_grant","error_description":"Invalid login credentials"}`,
			wantCode:   "UPSTREAM_ERROR",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "identity api msg shape",
			httpStatus: 422,
			body:       `{"msg":"User already registered"}`,
			wantCode:   "UPSTREAM_ERROR",
			wantStatus: 422,
		},
		{
			name:       "unknown code keeps transport status",
			httpStatus: 503,
			body:       `{"code":"XX000","message":"internal error"}`,
			wantCode:   "XX000",
			wantStatus: 503,
		},
		{
			name:       "garbage body becomes opaque upstream error",
			httpStatus: 502,
			body:       `<html>bad gateway</html>`,
			wantCode:   "UPSTREAM_ERROR",
			wantStatus: 502,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := decodeError(tt.httpStatus, []byte(tt.body))
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestErrorMessageIncludesDetails(t *testing.T) {
	e := &Error{Code: "23505", Message: "duplicate key", Details: "Key (email) already exists"}
	assert.Contains(t, e.Error(), "duplicate key")
	assert.Contains(t, e.Error(), "Key (email) already exists")
}
