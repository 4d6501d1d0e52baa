package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/config"
	"github.com/movement-pass/passctl/internal/domain"
	"github.com/movement-pass/passctl/internal/session"
)

func mintToken(t *testing.T, id string, expireAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{"id": id, "name": "n", "photo": "p", "exp": expireAt.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(t *testing.T, endpoint string) (*Client, *session.Cache) {
	t.Helper()

	cache := session.NewCache(session.NewFileStore(filepath.Join(t.TempDir(), "session")), zap.NewNop())
	client := New(config.ClientConfig{
		Endpoint:              endpoint,
		PhotosDomain:          "https://photos.test",
		RequestTimeoutSeconds: 5,
	}, cache, zap.NewNop())
	return client, cache
}

func TestDoValidationErrorsPassThroughUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string][]string{"errors": {"Invalid X", "Invalid Y"}})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	err := client.do(context.Background(), http.MethodPost, "/passes", map[string]string{}, nil)

	list, ok := AsErrorList(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, list.Kind)
	assert.Equal(t, []string{"Invalid X", "Invalid Y"}, list.Messages)
	assert.Equal(t, "Invalid X", list.First())
}

func TestDoStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{name: "forbidden ignores body", status: http.StatusForbidden, body: `{"errors":["whatever"]}`, wantKind: KindUnauthorized, wantMsg: "Unauthorized!"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, wantKind: KindUnauthorized, wantMsg: "Unauthorized!"},
		{name: "not found", status: http.StatusNotFound, body: ``, wantKind: KindNotFound, wantMsg: "Not found!"},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantKind: KindInternal, wantMsg: "Internal server error!"},
		{name: "bad gateway", status: http.StatusBadGateway, body: ``, wantKind: KindInternal, wantMsg: "Internal server error!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, _ := newTestClient(t, srv.URL)
			err := client.do(context.Background(), http.MethodGet, "/passes", nil, nil)

			list, ok := AsErrorList(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, list.Kind)
			assert.Equal(t, []string{tt.wantMsg}, list.Messages)
		})
	}
}

func TestDoNoContentIsSuccessWithoutPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	out := map[string]string{"untouched": "yes"}
	err := client.do(context.Background(), http.MethodPost, "/x", nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "yes", out["untouched"])
}

func TestDoAttachesBearerOnlyWhileUnexpired(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, cache := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, client.do(ctx, http.MethodGet, "/passes", nil, nil))
	assert.Empty(t, gotAuth, "logged out sends no header")

	token := mintToken(t, "u1", time.Now().Add(time.Hour))
	require.NoError(t, cache.SetToken(ctx, token))

	require.NoError(t, client.do(ctx, http.MethodGet, "/passes", nil, nil))
	assert.Equal(t, "Bearer "+token, gotAuth)

	require.NoError(t, cache.SetToken(ctx, mintToken(t, "u1", time.Now().Add(-time.Hour))))

	require.NoError(t, client.do(ctx, http.MethodGet, "/passes", nil, nil))
	assert.Empty(t, gotAuth, "expired credential is treated as absent")
}

func TestDoContentTypeOnlyWithBody(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, client.do(ctx, http.MethodGet, "/passes", nil, nil))
	assert.Empty(t, gotContentType)

	require.NoError(t, client.do(ctx, http.MethodPost, "/passes", map[string]string{}, nil))
	assert.Equal(t, "application/json;charset=utf-8", gotContentType)
}

func TestDoTransportFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client, _ := newTestClient(t, srv.URL)
	err := client.do(context.Background(), http.MethodGet, "/passes", nil, nil)

	require.Error(t, err)
	_, ok := AsErrorList(err)
	assert.False(t, ok, "transport failures are not normalized")
}

func TestLoginStoresTokenOnSuccess(t *testing.T) {
	token := mintToken(t, "u7", time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/identity/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	defer srv.Close()

	client, cache := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, LoginInput{MobilePhone: "01512345678", DateOfBirth: "16121971"}))

	user, err := cache.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u7", user.ID)
}

func TestLoginValidationFailureLeavesSessionEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string][]string{"errors": {"Invalid mobile phone or date of birth"}})
	}))
	defer srv.Close()

	client, cache := newTestClient(t, srv.URL)
	ctx := context.Background()

	err := client.Login(ctx, LoginInput{MobilePhone: "01512345678", DateOfBirth: "01010101"})
	list, ok := AsErrorList(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid mobile phone or date of birth", list.First())

	user, err := cache.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLogoutClearsSession(t *testing.T) {
	client, cache := newTestClient(t, "http://localhost:0")
	ctx := context.Background()

	require.NoError(t, cache.SetToken(ctx, mintToken(t, "u1", time.Now().Add(time.Hour))))
	require.NoError(t, client.Logout(ctx))

	cred, err := cache.Credential(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestPassesThreadsCursorUnchanged(t *testing.T) {
	var gotQuery string
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(domain.PassPage{Passes: []domain.Pass{}})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := client.Passes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, gotQuery, "first page carries no cursor")

	_, err = client.Passes(ctx, &domain.PageKey{ID: "p9", EndAt: "2021-05-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "id=p9&endAt=2021-05-01T00%3A00%3A00Z", gotQuery)

	// A key missing a sub-field does not paginate.
	_, err = client.Passes(ctx, &domain.PageKey{ID: "p9"})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
	assert.Equal(t, 3, calls)
}

func TestPassFetchesById(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/passes/p42", r.URL.Path)
		_ = json.NewEncoder(w).Encode(domain.Pass{ID: "p42", Status: domain.PassStatusApplied})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	pass, err := client.Pass(context.Background(), "p42")
	require.NoError(t, err)
	assert.Equal(t, "p42", pass.ID)
	assert.Equal(t, domain.PassStatusApplied, pass.Status)
}

func TestUploadPhotoTwoStep(t *testing.T) {
	var putBody string
	var putHeaders http.Header

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /identity/photo", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "image/jpeg", req["contentType"])
		assert.Equal(t, "me.jpg", req["filename"])
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url":      srv.URL + "/uploads/abc.jpg",
			"filename": "abc.jpg",
		})
	})
	mux.HandleFunc("PUT /uploads/abc.jpg", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		putBody = string(body)
		putHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, srv.URL)
	url, err := client.UploadPhoto(context.Background(), "image/jpeg", "me.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://photos.test/abc.jpg", url)
	assert.Equal(t, "jpegbytes", putBody)
	assert.Equal(t, "image/jpeg", putHeaders.Get("Content-Type"))
	assert.Equal(t, "private,max-age=31536000,must-revalidate", putHeaders.Get("Cache-Control"))
}

func TestUploadPhotoPutFailurePropagates(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /identity/photo", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url":      srv.URL + "/uploads/abc.jpg",
			"filename": "abc.jpg",
		})
	})
	mux.HandleFunc("PUT /uploads/abc.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client, _ := newTestClient(t, srv.URL)
	_, err := client.UploadPhoto(context.Background(), "image/jpeg", "me.jpg", strings.NewReader("x"))
	require.Error(t, err)
}
