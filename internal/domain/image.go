package domain

import "image"

// CacheKey is the hex-encoded SHA-256 digest of an identifying string.
// It is used verbatim as a memory cache key and as a disk filename.
type CacheKey string

func (k CacheKey) String() string {
	return string(k)
}

// Image is a resolved image: the raw encoded bytes as received plus their decoded form.
type Image struct {
	Key     CacheKey
	Format  string // "jpeg", "png", "gif", "webp", "bmp", "tiff"
	Data    []byte
	Decoded image.Image
}

// ContentType returns the MIME type for the encoded bytes.
func (img *Image) ContentType() string {
	if img.Format == "" {
		return "application/octet-stream"
	}
	return "image/" + img.Format
}

// Clone returns a copy of the image that shares no byte storage with the receiver.
// The decoded representation is immutable once produced and is shared.
func (img *Image) Clone() *Image {
	if img == nil {
		return nil
	}
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	return &Image{
		Key:     img.Key,
		Format:  img.Format,
		Data:    data,
		Decoded: img.Decoded,
	}
}

// Width returns the decoded width in pixels, or 0 when nothing is decoded.
func (img *Image) Width() int {
	if img == nil || img.Decoded == nil {
		return 0
	}
	return img.Decoded.Bounds().Dx()
}

// Height returns the decoded height in pixels, or 0 when nothing is decoded.
func (img *Image) Height() int {
	if img == nil || img.Decoded == nil {
		return 0
	}
	return img.Decoded.Bounds().Dy()
}
