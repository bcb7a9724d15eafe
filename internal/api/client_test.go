package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func staticToken(token string) TokenFunc {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

func TestLoginSendsOAuth2PasswordForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "alice@example.com", r.PostFormValue("username"))
		require.Equal(t, "hunter2", r.PostFormValue("password"))

		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok-123", TokenType: "bearer"})
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	token, err := c.Login(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
}

func TestAdminLoginSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/admin/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "root", body["username"])

		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "admin-tok"})
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	token, err := c.AdminLogin(context.Background(), "root", "secret")
	require.NoError(t, err)
	require.Equal(t, "admin-tok", token)
}

func TestCredentialReadAtCallTime(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	current := "first"
	c := New(srv.URL, srv.Client(), func(context.Context) (string, error) {
		return current, nil
	})

	_, err := c.ListFiles(context.Background())
	require.NoError(t, err)

	current = "second"
	_, err = c.ListFiles(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"Bearer first", "Bearer second"}, seen)
}

func TestMissingCredentialFailsBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken(""))
	_, err := c.ListFiles(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.False(t, called)
}

func TestErrorDetailSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "File type not allowed"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken("tok"))
	_, err := c.ListFiles(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "File type not allowed", apiErr.Error())
	require.NotErrorIs(t, err, ErrUnauthorized)
}

func TestErrorBodyAbsenceTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken("tok"))
	_, err := c.ListFiles(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Error(), "502")
}

func TestUnauthorizedResponsesUnwrap(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"detail": "session expired"}`))
		}))

		c := New(srv.URL, srv.Client(), staticToken("stale"))
		_, err := c.ListFiles(context.Background())
		require.ErrorIs(t, err, ErrUnauthorized, "status %d", status)

		srv.Close()
	}
}

func TestQueryOmitsEmptyFileIDs(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		_ = json.NewEncoder(w).Encode(QueryResponse{Answer: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken("tok"))

	_, err := c.Query(context.Background(), QueryRequest{Query: "all docs"})
	require.NoError(t, err)
	require.NotContains(t, bodies[0], "file_ids")

	_, err = c.Query(context.Background(), QueryRequest{Query: "scoped", FileIDs: []int{3, 7}})
	require.NoError(t, err)
	require.Contains(t, bodies[1], `"file_ids":[3,7]`)
}

func TestUploadMultipartAndProgress(t *testing.T) {
	content := strings.Repeat("x", 64<<10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "notes.txt", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Len(t, data, len(content))

		_ = json.NewEncoder(w).Encode(FileRecord{ID: 42, Filename: "notes.txt", Size: int64(len(content))})
	}))
	defer srv.Close()

	var percents []int
	c := New(srv.URL, srv.Client(), staticToken("tok"))
	record, err := c.Upload(context.Background(), "notes.txt", "text/plain", []byte(content), func(percent int) {
		percents = append(percents, percent)
	})
	require.NoError(t, err)
	require.Equal(t, 42, record.ID)

	require.NotEmpty(t, percents)
	for i := 1; i < len(percents); i++ {
		require.Greater(t, percents[i], percents[i-1])
	}
	require.Equal(t, 100, percents[len(percents)-1])
	require.LessOrEqual(t, percents[0], 100)
}

func TestProgressReaderClampsAndDeduplicates(t *testing.T) {
	var percents []int
	// Total understated on purpose: the computed percentage would exceed
	// 100 without the clamp.
	r := newProgressReader(strings.NewReader("0123456789"), 5, func(p int) {
		percents = append(percents, p)
	})

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Len(t, data, 10)
	require.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		require.Greater(t, percents[i], percents[i-1])
		require.LessOrEqual(t, percents[i], 100)
	}
}

func TestDownloadUsesContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/download/7", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken("tok"))
	filename, data, err := c.Download(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "report.pdf", filename)
	require.Equal(t, []byte("%PDF-1.4"), data)
}

func TestUserActionPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(MessageResponse{Message: "done"})
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken("tok"))
	for _, action := range []UserActionName{UserVerify, UserSuspend, UserUnsuspend, UserEnableUpload, UserDisableUpload} {
		msg, err := c.UserAction(context.Background(), 9, action)
		require.NoError(t, err)
		require.Equal(t, "done", msg)
	}

	require.Equal(t, []string{
		"/api/admin/users/9/verify",
		"/api/admin/users/9/suspend",
		"/api/admin/users/9/unsuspend",
		"/api/admin/users/9/enable-upload",
		"/api/admin/users/9/disable-upload",
	}, paths)
}

func TestDispositionFilename(t *testing.T) {
	require.Equal(t, "a.txt", dispositionFilename(`attachment; filename="a.txt"`))
	require.Equal(t, "", dispositionFilename(""))
	require.Equal(t, "", dispositionFilename("attachment"))
}

func TestDeleteFileUsesDeleteVerb(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/delete/3", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), staticToken("tok"))
	require.NoError(t, c.DeleteFile(context.Background(), 3))
}

func TestErrorIsNotUnauthorizedForOtherStatuses(t *testing.T) {
	err := &Error{Status: http.StatusInternalServerError, Detail: "boom"}
	require.False(t, errors.Is(err, ErrUnauthorized))
}
