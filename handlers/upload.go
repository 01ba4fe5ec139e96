package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cohapparel/coherp_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

// maxImageWidth bounds stored campaign/product images. Wider uploads are
// downscaled, narrower ones kept as-is.
const maxImageWidth = 1200

const thumbnailWidth = 200

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type uploadResponse struct {
	ImageUrl     string `json:"image_url"`
	ThumbnailUrl string `json:"thumbnail_url"`
	ObjectKey    string `json:"object_key"`
}

// UploadImage receives a multipart image, resizes it, and stores both the
// image and a thumbnail in the bucket.
func UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "file is required",
		}})
		return
	}
	if fileHeader.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "file size exceeds 5MB limit",
		}})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !imageExtensions[ext] {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "unsupported image type",
		}})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, "Upload", "UploadImage", err)
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "file is not a valid image",
		}})
		return
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	datePrefix := time.Now().Format("2006/01")
	key := "uploads/" + datePrefix + "/" + uuid.NewString() + ".jpg"
	thumbKey := strings.TrimSuffix(key, ".jpg") + "_thumb.jpg"

	ctx := c.Request.Context()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		respondError(c, "Upload", "UploadImage", err)
		return
	}
	if err := utils.UploadBytesToGCS(ctx, key, buf.Bytes(), "image/jpeg"); err != nil {
		respondError(c, "Upload", "UploadImage", err)
		return
	}

	buf.Reset()
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		respondError(c, "Upload", "UploadImage", err)
		return
	}
	if err := utils.UploadBytesToGCS(ctx, thumbKey, buf.Bytes(), "image/jpeg"); err != nil {
		respondError(c, "Upload", "UploadImage", err)
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		ImageUrl:     utils.PublicObjectURL(key),
		ThumbnailUrl: utils.PublicObjectURL(thumbKey),
		ObjectKey:    key,
	})
}

// DeleteImage removes an uploaded image and its thumbnail. Keys outside the
// uploads/ prefix are rejected so the endpoint cannot touch other objects.
func DeleteImage(c *gin.Context) {
	var input struct {
		ObjectKey string `json:"object_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "object_key is required",
		}})
		return
	}
	if !strings.HasPrefix(input.ObjectKey, "uploads/") || strings.Contains(input.ObjectKey, "..") {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "invalid object key",
		}})
		return
	}

	ctx := c.Request.Context()
	if err := utils.DeleteObjectFromGCS(ctx, input.ObjectKey); err != nil {
		respondError(c, "Upload", "DeleteImage", err)
		return
	}
	thumbKey := strings.TrimSuffix(input.ObjectKey, ".jpg") + "_thumb.jpg"
	if err := utils.DeleteObjectFromGCS(ctx, thumbKey); err != nil {
		respondError(c, "Upload", "DeleteImage", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": input.ObjectKey})
}
