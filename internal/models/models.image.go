// FilePath: internal/models/models.image.go
package models

// Image is a cached map image. Data is the base64 form of the payload.
type Image struct {
	ID          string `json:"id"`
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
}
