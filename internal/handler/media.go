package handlers

import (
	"encoding/base64"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"tweetline/internal/apperror"
)

// decodeImage accepts a bare base64 payload or a data URI and returns the image bytes.
func decodeImage(value string, maxSize int64) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "data:") {
		comma := strings.IndexByte(value, ',')
		if comma < 0 || !strings.HasSuffix(value[:comma], ";base64") {
			return nil, apperror.New(apperror.InvalidArgument, "Image must be base64 encoded")
		}
		value = value[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(value); err != nil {
			return nil, apperror.New(apperror.InvalidArgument, "Image must be base64 encoded")
		}
	}

	if int64(len(data)) > maxSize {
		return nil, apperror.New(apperror.InvalidArgument, "Image exceeds %s", humanize.IBytes(uint64(maxSize)))
	}

	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return nil, apperror.New(apperror.InvalidArgument, "Only image uploads are allowed")
	}

	return data, nil
}

// optionalImage decodes value when present.
func (h *Handlers) optionalImage(value string) ([]byte, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return decodeImage(value, h.Cfg.MaxUploadSize)
}
