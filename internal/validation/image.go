// Package validation runs the image authenticity checks a photo must pass
// before a complaint can be created. All checks run independently so the user
// sees every failure at once; the whole battery is a pure function of the
// declared MIME type and the file bytes.
package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
	"strings"

	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/models"
)

// Check is the outcome of a single validation rule.
type Check struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Result aggregates the five checks. Passed is the AND of all of them; in
// practice HasExif never fails, so only the four hard checks can block.
type Result struct {
	Passed     bool  `json:"passed"`
	FileType   Check `json:"fileType"`
	Resolution Check `json:"resolution"`
	HasExif    Check `json:"hasExif"`
	FileSize   Check `json:"fileSize"`
	IsNotAI    Check `json:"isNotAi"`
}

// Snapshot flattens the result into the immutable per-complaint record.
func (r Result) Snapshot() models.ImageChecks {
	return models.ImageChecks{
		Passed:     r.Passed,
		FileType:   r.FileType.Passed,
		Resolution: r.Resolution.Passed,
		HasExif:    r.HasExif.Passed,
		FileSize:   r.FileSize.Passed,
		IsNotAI:    r.IsNotAI.Passed,
	}
}

var aiSignatures = []string{
	"Midjourney", "DALL-E", "Stable Diffusion", "NovelAI", "InvokeAI", "AI Generated",
}

// ValidateImage runs every check against the candidate photo.
func ValidateImage(mimeType string, data []byte) Result {
	r := Result{
		FileType:   checkFileType(mimeType),
		Resolution: checkResolution(data),
		HasExif:    checkExif(data),
		FileSize:   checkFileSize(data),
		IsNotAI:    checkAIGenerated(data),
	}
	r.Passed = r.FileType.Passed && r.Resolution.Passed && r.HasExif.Passed &&
		r.FileSize.Passed && r.IsNotAI.Passed
	return r
}

func checkFileType(mimeType string) Check {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg", "image/png":
		return Check{Passed: true, Message: "Valid file format"}
	}
	return Check{Passed: false, Message: "Only JPEG and PNG images are allowed"}
}

func checkResolution(data []byte) Check {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Check{Passed: false, Message: "Could not read image"}
	}
	if cfg.Width >= config.ImageMinDimension && cfg.Height >= config.ImageMinDimension {
		return Check{Passed: true, Message: "Sufficient resolution"}
	}
	return Check{
		Passed: false,
		Message: fmt.Sprintf("Resolution too low (%dx%d). Minimum: %dx%d",
			cfg.Width, cfg.Height, config.ImageMinDimension, config.ImageMinDimension),
	}
}

// checkExif looks for the JPEG APP1/Exif marker. It is advisory only: a PNG, a
// stripped JPEG, or an unreadable file still passes.
func checkExif(data []byte) Check {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
		limit := len(data) - 1
		if limit > config.ImageExifScanBytes {
			limit = config.ImageExifScanBytes
		}
		for i := 0; i < limit; i++ {
			if data[i] == 0xFF && data[i+1] == 0xE1 && i+8 <= len(data) {
				if string(data[i+4:i+8]) == "Exif" {
					return Check{Passed: true, Message: "Photo metadata detected"}
				}
			}
		}
	}
	return Check{Passed: true, Message: "Image accepted"}
}

func checkFileSize(data []byte) Check {
	size := len(data)
	switch {
	case size < config.ImageMinBytes:
		return Check{Passed: false, Message: "File too small (min 10 bytes)"}
	case size > config.ImageMaxBytes:
		return Check{Passed: false, Message: "File too large (max 20MB)"}
	}
	return Check{Passed: true, Message: "File size OK"}
}

// checkAIGenerated scans the head of the file for known generator signatures.
// A weak heuristic that fails open: an empty or unreadable payload passes.
func checkAIGenerated(data []byte) Check {
	limit := len(data)
	if limit > config.ImageAIScanBytes {
		limit = config.ImageAIScanBytes
	}
	head := string(data[:limit])
	for _, sig := range aiSignatures {
		if strings.Contains(head, sig) {
			return Check{Passed: false, Message: "AI-generated images are not allowed"}
		}
	}
	return Check{Passed: true, Message: "Authentic Photo (Not AI Generated)"}
}
