// Package verification classifies ingested evidence for later analysis.
//
// No forensic analysis is performed. StubProvider records which analysis
// method would apply to the content and reports the evidence as not analyzed.
package verification

import (
	"context"
	"strconv"
	"strings"

	"github.com/ruteri/verichain/interfaces"
)

const (
	StatusNotAnalyzed = "not_analyzed"

	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryDocument = "document"
	CategoryOther    = "other"
)

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.oasis.opendocument",
	"application/rtf",
	"text/",
}

// StubProvider implements interfaces.VerificationProvider without analysing content.
type StubProvider struct{}

var _ interfaces.VerificationProvider = StubProvider{}

func NewStubProvider() StubProvider {
	return StubProvider{}
}

func (StubProvider) Verify(ctx context.Context, req interfaces.VerificationRequest) (interfaces.VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.VerificationResult{}, err
	}

	category := Categorize(req.ContentType)
	return interfaces.VerificationResult{
		Provider: "stub",
		Status:   StatusNotAnalyzed,
		Method:   category + "_stub",
		Verified: false,
		Details: map[string]string{
			"category":     category,
			"content_type": req.ContentType,
			"size":         strconv.Itoa(req.Size),
		},
	}, nil
}

// Categorize maps a MIME type to the analysis category it would be routed to.
// Parameters such as charset are ignored.
func Categorize(contentType string) string {
	mediaType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	mediaType = strings.TrimSpace(mediaType)

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return CategoryImage
	case strings.HasPrefix(mediaType, "video/"):
		return CategoryVideo
	}
	for _, prefix := range documentTypes {
		if strings.HasPrefix(mediaType, prefix) {
			return CategoryDocument
		}
	}
	return CategoryOther
}
