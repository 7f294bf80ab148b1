// Package handler defines the HTTP handlers behind the /api surface.
// Handlers bundle repositories per resource; authorization that depends
// on row ownership lives here, role gates live in the middleware chain.
package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/middleware"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/storage"
)

// detailErr builds an HTTP error whose body renders as {"detail": msg}.
// The central error handler does the shaping; handlers only pick status
// and payload.
func detailErr(status int, msg any) error {
	return echo.NewHTTPError(status, msg)
}

// identity returns the authenticated caller. Routes reaching a handler
// always carry one; public routes never reach these helpers.
func identity(c echo.Context) *auth.Identity {
	return middleware.IdentityFrom(c)
}

// skipLimit parses the ?skip and ?limit pagination parameters with the
// given default page size. Limit is capped at 100.
func skipLimit(c echo.Context, defaultLimit int) (skip, limit int) {
	skip = queryInt(c, "skip", 0)
	limit = queryInt(c, "limit", defaultLimit)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(c echo.Context, name string) *float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// readFormFile opens a multipart file field and returns its content,
// content type and original filename. A missing field returns nil content
// and no error so optional attachments stay optional.
func readFormFile(c echo.Context, field string) (data []byte, contentType, filename string, err error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", nil
	}
	src, err := fh.Open()
	if err != nil {
		return nil, "", "", detailErr(http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()
	data, err = io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return nil, "", "", detailErr(http.StatusBadRequest, "could not read uploaded file")
	}
	if len(data) > maxUploadBytes {
		return nil, "", "", detailErr(http.StatusRequestEntityTooLarge, "file too large")
	}
	return data, fileContentType(fh), fh.Filename, nil
}

const maxUploadBytes = 10 << 20

func fileContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// uploadFormFiles reads every "files" part from the multipart form and
// uploads each under the given key prefix, returning the public URLs.
func uploadFormFiles(c echo.Context, up *storage.Uploader, prefix string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return nil, detailErr(http.StatusBadRequest, "At least one file is required")
	}
	ctx := c.Request().Context()
	var urls []string
	for _, fh := range form.File["files"] {
		src, err := fh.Open()
		if err != nil {
			return nil, detailErr(http.StatusBadRequest, "could not read uploaded file")
		}
		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(src)
		src.Close()
		if err != nil {
			return nil, detailErr(http.StatusBadRequest, "could not read uploaded file")
		}
		key := fmt.Sprintf("%s/%s-%s", prefix, uuid.NewString(), fh.Filename)
		url, err := up.Upload(ctx, key, fileContentType(fh), buf)
		if err != nil {
			logrus.WithError(err).Error("file upload failed")
			return nil, detailErr(http.StatusBadGateway, "File upload failed")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// isAdmin reports whether the caller's ACTIVE role is admin.
func isAdmin(ident *auth.Identity) bool {
	return ident.ActiveRole == model.RoleAdmin
}
