package adminapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vtryon/lensmart/internal/assets"
	"github.com/vtryon/lensmart/internal/webserver"
)

// maxUploadBytes caps a single image
const maxUploadBytes = 10 << 20

func registerUploadRoutes() {
	webserver.ApiPOST("/uploads", uploadImages)
}

// uploadImages accepts multipart "files" parts and returns the public
// URLs in submission order.
func uploadImages(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Expected multipart form", nil)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return fail(c, http.StatusBadRequest, "NO_FILES", "No files submitted", nil)
	}

	files := make([]assets.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			return fail(c, http.StatusBadRequest, "FILE_TOO_LARGE",
				fmt.Sprintf("%s exceeds the %dMB limit", fh.Filename, maxUploadBytes>>20), nil)
		}
		src, err := fh.Open()
		if err != nil {
			return fail(c, http.StatusBadRequest, "READ_ERROR", "Unable to read "+fh.Filename, nil)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return fail(c, http.StatusBadRequest, "READ_ERROR", "Unable to read "+fh.Filename, nil)
		}
		files = append(files, assets.File{Name: fh.Filename, Data: data})
	}

	urls, err := webserver.App().Uploader().UploadAll(c.Request().Context(), files)
	if err != nil {
		return fail(c, http.StatusBadGateway, "UPLOAD_FAILED", "Asset host rejected the upload", err.Error())
	}
	auditLog(c, "assets.upload", fmt.Sprintf("%d files", len(urls)))
	return ok(c, map[string]interface{}{"urls": urls})
}
