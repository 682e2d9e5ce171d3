package media

import "time"

// ImageUpload represents a dream image upload record.
type ImageUpload struct {
	ID          uint64    `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
	URL         string    `json:"url" db:"url"`
}

// UploadURLRequest asks for a presigned upload slot for a dream image.
type UploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// ConfirmUploadRequest confirms that the client finished uploading.
type ConfirmUploadRequest struct {
	ObjectKey string `json:"object_key" validate:"required"`
}
