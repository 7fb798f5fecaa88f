package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, endpoint string) *Store {
	t.Helper()
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minio", "minio123", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return &Store{client: cli, bucketName: "answers", region: "us-east-1"}
}

func TestPutAnswer(t *testing.T) {
	var gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusOK)
			return
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	s := newTestStore(t, host)

	url, err := s.PutAnswer(context.Background(), "p1/chatgpt/c1.txt", "Acme is a leading widget maker.")
	require.NoError(t, err)

	assert.Equal(t, "http://"+host+"/answers/p1/chatgpt/c1.txt", url)
	assert.Equal(t, "/answers/p1/chatgpt/c1.txt", gotPath)
	assert.Equal(t, "text/plain; charset=utf-8", gotType)
	assert.Contains(t, gotBody, "Acme is a leading widget maker.")
}

func TestObjectURL_Secure(t *testing.T) {
	s := newTestStore(t, "storage.example.com")
	s.secure = true
	assert.Equal(t, "https://storage.example.com/answers/k.txt", s.objectURL("k.txt"))
}
