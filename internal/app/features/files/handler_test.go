package files

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dalemusser/kinshealth/internal/app/system/filestore"
	"github.com/dalemusser/kinshealth/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	puts []*s3.PutObjectInput
	dels []*s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.dels = append(f.dels, in)
	return &s3.DeleteObjectOutput{}, nil
}

func newHandler() (*Handler, *fakeS3) {
	api := &fakeS3{}
	fs := filestore.NewWithAPI(api, filestore.Config{Bucket: "kins-files", Region: "us-west-2"}, zap.NewNop())
	return NewHandler(fs, zap.NewNop()), api
}

func uploadRequest(t *testing.T, name, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload_StoresAllowedFile(t *testing.T) {
	h, api := newHandler()

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, uploadRequest(t, "resume.pdf", "application/pdf", []byte("%PDF-1.4 test")))
	rec.AssertStatus(t, http.StatusCreated)

	require.Len(t, api.puts, 1)
	assert.Equal(t, "application/pdf", *api.puts[0].ContentType)
	body := rec.DecodeJSON(t)
	assert.True(t, strings.HasPrefix(body["url"].(string), "https://kins-files.s3.us-west-2.amazonaws.com/uploads/"))
}

func TestUpload_SniffsWhenHeaderMissing(t *testing.T) {
	h, api := newHandler()

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, uploadRequest(t, "notes.txt", "", []byte("plain words here")))
	rec.AssertStatus(t, http.StatusCreated)
	require.Len(t, api.puts, 1)
	assert.Equal(t, "text/plain", *api.puts[0].ContentType)
}

func TestUpload_Rejections(t *testing.T) {
	h, api := newHandler()

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"disallowed type", uploadRequest(t, "run.exe", "application/x-msdownload", []byte("MZ"))},
		{"image over 1MB", uploadRequest(t, "big.png", "image/png", bytes.Repeat([]byte{1}, filestore.MaxImageBytes+1))},
		{"file over 5MB", uploadRequest(t, "big.pdf", "application/pdf", bytes.Repeat([]byte{1}, filestore.MaxFileBytes+1))},
		{"no file field", httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleUpload(rec, tc.req)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
	assert.Empty(t, api.puts)
}

func TestCheckUpload_PDFUnderFiveMB(t *testing.T) {
	assert.NoError(t, checkUpload("application/pdf", 3<<20))
	assert.Error(t, checkUpload("image/jpeg", 3<<20))
}

func TestDelete(t *testing.T) {
	h, api := newHandler()

	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.JSONRequest(t, http.MethodDelete, "/", map[string]string{
		"url": "https://kins-files.s3.us-west-2.amazonaws.com/uploads/2024/03/ab-resume.pdf",
	}))
	rec.AssertStatus(t, http.StatusOK)
	require.Len(t, api.dels, 1)
	assert.Equal(t, "uploads/2024/03/ab-resume.pdf", *api.dels[0].Key)

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.JSONRequest(t, http.MethodDelete, "/", map[string]string{"url": "https://kins-files.s3.amazonaws.com/"}))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestNotConfigured(t *testing.T) {
	h := NewHandler(nil, zap.NewNop())
	rec := testutil.NewRecorder()
	h.HandleUpload(rec, uploadRequest(t, "a.pdf", "application/pdf", []byte("x")))
	rec.AssertStatus(t, http.StatusBadGateway)
}
