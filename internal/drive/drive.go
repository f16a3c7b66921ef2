package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/admobkit/admob/internal/api"
	"github.com/tidwall/sjson"
)

const (
	uploadPath = "upload/drive/v3/files"

	mimeTypeSpreadsheet = "application/vnd.google-apps.spreadsheet"
	mimeTypeCSV         = "text/csv"
)

type File struct {
	ID  string
	URL string
}

type Uploader struct {
	client *api.Client
}

// NewUploader expects a client rooted at the Drive endpoint, usually
// https://www.googleapis.com/.
func NewUploader(client *api.Client) *Uploader {
	return &Uploader{client: client}
}

// UploadCSV stores csv as a Google Sheets spreadsheet named name.
func (u *Uploader) UploadCSV(ctx context.Context, name string, csv io.Reader) (*File, error) {
	meta, err := sjson.SetBytes([]byte(`{}`), "name", name)
	if err != nil {
		return nil, err
	}
	meta, err = sjson.SetBytes(meta, "mimeType", mimeTypeSpreadsheet)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := writePart(mw, "application/json; charset=UTF-8", bytes.NewReader(meta)); err != nil {
		return nil, err
	}
	if err := writePart(mw, mimeTypeCSV, csv); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	params := url.Values{
		"uploadType": {"multipart"},
		"fields":     {"id"},
	}
	resp, err := u.client.Do(ctx, http.MethodPost, uploadPath, params, "multipart/related; boundary="+mw.Boundary(), &body)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}

	id := resp.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("uploading %s: no file id in response", name)
	}

	return &File{
		ID:  id,
		URL: SpreadsheetURL(id),
	}, nil
}

func SpreadsheetURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id
}

func writePart(mw *multipart.Writer, contentType string, r io.Reader) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, r)
	return err
}
