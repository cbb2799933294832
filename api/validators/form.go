package validators

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// MaxFieldBytes caps a single text field; longer values are cut and left to
// the field validators to reject.
const MaxFieldBytes = 64 << 10

// FileHandler consumes one uploaded file part. Returning an error stops
// reading the form.
type FileHandler func(filename string, body io.Reader) error

// ErrNotForm is returned when the request carries no form body.
var ErrNotForm = errors.New("request body is not a form")

// ReadForm streams a multipart or urlencoded form. Text fields are returned
// as values; parts that carry a file name under fileField go to onFile in the
// order they arrive. File parts under any other name are discarded.
func ReadForm(r *http.Request, fileField string, onFile FileHandler) (url.Values, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotForm, err)
	}

	switch mediaType {
	case "multipart/form-data":
		return readMultipart(r, fileField, onFile)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parsing form: %w", err)
		}
		return r.PostForm, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotForm, mediaType)
	}
}

func readMultipart(r *http.Request, fileField string, onFile FileHandler) (url.Values, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("opening multipart body: %w", err)
	}

	values := url.Values{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading multipart body: %w", err)
		}

		name := part.FormName()
		filename := part.FileName()
		switch {
		case filename != "" && name == fileField && onFile != nil:
			err = onFile(filename, part)
		case filename != "":
			_, err = io.Copy(io.Discard, part)
		default:
			var value []byte
			value, err = io.ReadAll(io.LimitReader(part, MaxFieldBytes))
			if err == nil && name != "" {
				values.Add(name, strings.ToValidUTF8(string(value), ""))
			}
		}
		part.Close()
		if err != nil {
			return nil, err
		}
	}
}
