// Package portal is the applicant portal collaborator: the calls the locker
// makes to authenticate, autosave, upload and finalize an applicant record.
package portal

import (
	"context"
	"io"
	"net/url"
	"strings"

	"visa-locker/internal/models"
)

// Gateway is implemented by Client and by test fakes.
type Gateway interface {
	Verify(ctx context.Context, token, password string) (*models.ApplicantRecord, error)
	UpdatePersonal(ctx context.Context, token, field, value string) error
	UpdateQuestions(ctx context.Context, token string, data map[string]interface{}) error
	UploadFiles(ctx context.Context, token, field, inputName string, files []File) (*UploadResult, error)
	DeleteFile(ctx context.Context, token, field, filename string) (*DeleteResult, error)
	UpdateProgress(ctx context.Context, token string, percentage int) error
	MarkComplete(ctx context.Context, token string) error
	DependentToken(ctx context.Context, dependentID string) (string, error)
}

// File is one document selected for upload.
type File struct {
	Name    string
	Content io.Reader
}

// UploadResult carries the field's stored file list after the upload and
// the per-file rejections reported by the portal.
type UploadResult struct {
	Filenames []string
	Errors    []string
}

type DeleteResult struct {
	Remaining []string
	// HasRemaining is false when the portal omitted the list; callers then
	// filter their local copy instead.
	HasRemaining bool
}

// TokenFromURL reads the access token from a locker link. The token query
// parameter wins; otherwise the last non-empty path segment is used.
func TokenFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			return s
		}
	}
	return ""
}
