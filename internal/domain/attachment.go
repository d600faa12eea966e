package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadMB is the default attachment size limit in megabytes
const MaxUploadMB = 50

// AttachmentKind identifies one of the optional media slots of a post
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentVideo AttachmentKind = "video"
)

// AttachmentKinds lists every attachment slot in display order
var AttachmentKinds = []AttachmentKind{AttachmentImage, AttachmentAudio, AttachmentVideo}

var allowedExtensions = map[AttachmentKind][]string{
	AttachmentImage: {"jpg", "jpeg", "png", "gif", "webp"},
	AttachmentAudio: {"mp3", "wav", "m4a", "aac", "oga", "ogg"},
	AttachmentVideo: {"mp4", "webm", "ogg", "mov", "m4v"},
}

// ParseAttachmentKind converts a path segment into an AttachmentKind
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	kind := AttachmentKind(strings.ToLower(s))
	if _, ok := allowedExtensions[kind]; !ok {
		return "", NewValidationError("kind", "must be one of image, audio, video")
	}
	return kind, nil
}

// Dir returns the storage directory for the kind
func (k AttachmentKind) Dir() string {
	switch k {
	case AttachmentImage:
		return "blog_images"
	case AttachmentAudio:
		return "blog_audio"
	default:
		return "blog_videos"
	}
}

// AllowedExtensions returns the accepted file extensions, without dots
func (k AttachmentKind) AllowedExtensions() []string {
	return allowedExtensions[k]
}

// ValidateAttachment checks filename extension and size for kind.
// maxBytes <= 0 selects the MaxUploadMB default.
func ValidateAttachment(kind AttachmentKind, filename string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadMB * 1024 * 1024
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	allowed := kind.AllowedExtensions()
	ok := false
	for _, a := range allowed {
		if ext == a {
			ok = true
			break
		}
	}
	if !ok {
		return &ValidationErrors{
			Err: ErrAttachmentType,
			Fields: map[string]string{
				string(kind): fmt.Sprintf("File extension %q is not allowed. Allowed extensions are: %s.",
					ext, strings.Join(allowed, ", ")),
			},
		}
	}

	if size > maxBytes {
		return AttachmentTooLarge(kind, maxBytes)
	}

	return nil
}

// AttachmentTooLarge is the field error for an upload over maxBytes
func AttachmentTooLarge(kind AttachmentKind, maxBytes int64) error {
	return &ValidationErrors{
		Err: ErrAttachmentTooLarge,
		Fields: map[string]string{
			string(kind): fmt.Sprintf("File too large. Max size is %d MB.", maxBytes/(1024*1024)),
		},
	}
}
