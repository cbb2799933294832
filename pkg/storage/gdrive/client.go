package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// FolderMimeType is the Drive mime type of folder entries.
const FolderMimeType = "application/vnd.google-apps.folder"

// Folder is a Drive folder entry.
type Folder struct {
	ID   string
	Name string
}

// UploadInput describes one file to create in Drive.
type UploadInput struct {
	Name       string
	ParentID   string
	MimeType   string
	Properties map[string]string
	Body       io.Reader
}

// UploadedFile is the subset of Drive metadata recorded after an upload.
type UploadedFile struct {
	ID          string
	WebViewLink string
}

// Options configure the Drive client. HTTPClient takes precedence over
// TokenSource and is meant for tests.
type Options struct {
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
	Endpoint    string
}

// Client wraps the Drive v3 files API.
type Client struct {
	svc *drive.Service
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.TokenSource != nil:
		clientOpts = append(clientOpts, option.WithTokenSource(opts.TokenSource))
	default:
		return nil, errors.New("drive token source is required")
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}

	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// FindFolders lists non-trashed folders called name directly under parentID,
// in the order Drive returns them.
func (c *Client) FindFolders(ctx context.Context, name, parentID string) ([]Folder, error) {
	res, err := c.svc.Files.List().
		Q(FolderQuery(name, parentID)).
		Fields("files(id, name)").
		PageSize(10).
		Spaces("drive").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing drive folders %q: %w", name, err)
	}
	folders := make([]Folder, 0, len(res.Files))
	for _, f := range res.Files {
		folders = append(folders, Folder{ID: f.Id, Name: f.Name})
	}
	return folders, nil
}

// CreateFolder creates a folder called name under parentID.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (Folder, error) {
	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parentID},
	}).
		Fields("id, name").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return Folder{}, fmt.Errorf("creating drive folder %q: %w", name, err)
	}
	return Folder{ID: f.Id, Name: f.Name}, nil
}

// Upload creates a file with the given metadata and streams Body as its content.
func (c *Client) Upload(ctx context.Context, in UploadInput) (UploadedFile, error) {
	if in.Body == nil {
		return UploadedFile{}, errors.New("upload body is required")
	}
	meta := &drive.File{
		Name:       in.Name,
		MimeType:   in.MimeType,
		Properties: in.Properties,
	}
	if in.ParentID != "" {
		meta.Parents = []string{in.ParentID}
	}

	f, err := c.svc.Files.Create(meta).
		Media(in.Body, googleapi.ContentType(in.MimeType)).
		Fields("id, webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return UploadedFile{}, fmt.Errorf("uploading %q: %w", in.Name, err)
	}
	return UploadedFile{ID: f.Id, WebViewLink: f.WebViewLink}, nil
}

// Ping verifies the credentials by reading the account's about resource.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errors.New("drive client not initialized")
	}
	if _, err := c.svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive about: %w", err)
	}
	return nil
}

// FolderQuery builds the files.list query for a named folder under parentID.
func FolderQuery(name, parentID string) string {
	return fmt.Sprintf(
		"name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQueryValue(name), FolderMimeType, escapeQueryValue(parentID),
	)
}

func escapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

// APIErrorDetail extracts the HTTP status and message from a Drive API error.
func APIErrorDetail(err error) (int, string, bool) {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return 0, "", false
	}
	return apiErr.Code, apiErr.Message, true
}
