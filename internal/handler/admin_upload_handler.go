package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/service"
)

// AdminUploadHandler handles file uploads for administrators.
type AdminUploadHandler struct {
	businesses *service.BusinessesService
	images     *service.ImagesService
}

// NewAdminUploadHandler wires a handler backed by the business and image services.
func NewAdminUploadHandler(businesses *service.BusinessesService, images *service.ImagesService) *AdminUploadHandler {
	return &AdminUploadHandler{businesses: businesses, images: images}
}

// ImportFile handles POST /api/businesses/import with a csv, xlsx or json
// spreadsheet in the "file" field.
func (h *AdminUploadHandler) ImportFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing import file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.businesses.Import(c.Request().Context(), fileHeader.Filename, file)
	if err != nil {
		return fail(c, err, "failed to process import file")
	}
	return Success(c, http.StatusOK, "import processed", summary)
}

// UploadImage handles POST /api/businesses/:id/images. The file goes in the
// "image" field and the optional "type" field picks logo, cover or gallery.
func (h *AdminUploadHandler) UploadImage(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid business id")
	}
	kind, err := service.ParseImageKind(c.FormValue("type"))
	if err != nil {
		return fail(c, err, "invalid image type")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing image file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	resp, err := h.images.Upload(c.Request().Context(), id, kind, fileHeader.Filename, file)
	if err != nil {
		return fail(c, err, "failed to upload image")
	}
	return Success(c, http.StatusCreated, "image uploaded", resp)
}
