package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/transport/http/response"
)

const defaultMaxUploadBytes = 10 << 20

type UploadHandler struct {
	uploadService *app.UploadService
	maxBytes      int64
}

func NewUploadHandler(uploadService *app.UploadService, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &UploadHandler{uploadService: uploadService, maxBytes: maxBytes}
}

// Upload accepts a multipart form with "file" and returns the stored path to
// pass as the ask document.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no file uploaded")
		return
	}
	if file.Size > h.maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge,
			fmt.Sprintf("file too large (max %dMB)", h.maxBytes>>20))
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	result, err := h.uploadService.Save(file.Filename, f)
	if err != nil {
		if errors.Is(err, app.ErrUnsupportedFile) {
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, err.Error())
			return
		}
		log.Printf("upload %s failed: %v", file.Filename, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		return
	}
	response.OK(c, result)
}
