package stt

import (
	"path/filepath"
	"strings"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// encodingForFilename maps a file extension to the provider encoding.
// Unknown extensions fall back to OGG_OPUS, the generic lossy codec.
func encodingForFilename(name string) speechpb.RecognitionConfig_AudioEncoding {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "mp3":
		return speechpb.RecognitionConfig_MP3
	case "ogg", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "amr":
		return speechpb.RecognitionConfig_AMR
	case "awb":
		return speechpb.RecognitionConfig_AMR_WB
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_OGG_OPUS
	}
}
