package internal

import (
	"path"
	"strings"
)

// MediaType is the display class of a file, derived from its extension
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaOther MediaType = "other"
)

var mediaExtensions = map[string]MediaType{
	".png":  MediaImage,
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".gif":  MediaImage,
	".webp": MediaImage,
	".bmp":  MediaImage,
	".svg":  MediaImage,
	".avif": MediaImage,

	".mp4":  MediaVideo,
	".m4v":  MediaVideo,
	".mov":  MediaVideo,
	".webm": MediaVideo,
	".mkv":  MediaVideo,
	".avi":  MediaVideo,
	".mpeg": MediaVideo,
	".mpg":  MediaVideo,
	".flv":  MediaVideo,
	".wmv":  MediaVideo,
	".3gp":  MediaVideo,
	".3gpp": MediaVideo,

	".mp3":  MediaAudio,
	".wav":  MediaAudio,
	".ogg":  MediaAudio,
	".oga":  MediaAudio,
	".m4a":  MediaAudio,
	".aac":  MediaAudio,
	".flac": MediaAudio,
	".opus": MediaAudio,
}

// ClassifyMedia maps a file name (which may contain "/") to its media type
func ClassifyMedia(name string) MediaType {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := mediaExtensions[ext]; ok {
		return t
	}
	return MediaOther
}

// Viewable reports whether the live view pane can display this type
func (m MediaType) Viewable() bool {
	return m == MediaImage || m == MediaVideo || m == MediaAudio
}

// Playable reports whether the type is driven by a media element
func (m MediaType) Playable() bool {
	return m == MediaVideo || m == MediaAudio
}
