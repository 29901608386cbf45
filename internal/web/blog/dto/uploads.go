package dto

import "time"

// UploadedFile describes a file accepted by an upload route
type UploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	URL          string `json:"url"`
	Path         string `json:"path"`
}

// StoredFile entry of GET /upload/files/:type
type StoredFile struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}
