package cookiex

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newCodec(ttl time.Duration) *Codec {
	return &Codec{Secret: []byte("test-secret-test-secret-32bytes!"), TTL: ttl}
}

func requestWithCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestIssueAndRead(t *testing.T) {
	t.Parallel()

	codec := newCodec(time.Hour)
	rec := httptest.NewRecorder()
	require.NoError(t, codec.Issue(rec, "01J0USERID"))

	subject, err := codec.Read(requestWithCookies(t, rec))
	require.NoError(t, err)
	require.Equal(t, "01J0USERID", subject)
}

func TestReadMissingCookie(t *testing.T) {
	t.Parallel()

	codec := newCodec(time.Hour)
	_, err := codec.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, ErrNoClaim)
}

func TestReadTamperedCookie(t *testing.T) {
	t.Parallel()

	codec := newCodec(time.Hour)
	rec := httptest.NewRecorder()
	require.NoError(t, codec.Issue(rec, "01J0USERID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		c.Value += "x"
		req.AddCookie(c)
	}

	_, err := codec.Read(req)
	require.ErrorIs(t, err, ErrBadClaim)
}

func TestReadWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newCodec(time.Hour)
	rec := httptest.NewRecorder()
	require.NoError(t, issuer.Issue(rec, "01J0USERID"))

	reader := &Codec{Secret: []byte("a-completely-different-secret!!!"), TTL: time.Hour}
	_, err := reader.Read(requestWithCookies(t, rec))
	require.ErrorIs(t, err, ErrBadClaim)
}

func TestReadExpiredClaim(t *testing.T) {
	t.Parallel()

	codec := newCodec(-time.Minute)
	rec := httptest.NewRecorder()
	require.NoError(t, codec.Issue(rec, "01J0USERID"))

	_, err := codec.Read(requestWithCookies(t, rec))
	require.ErrorIs(t, err, ErrBadClaim)
}

func TestClear(t *testing.T) {
	t.Parallel()

	codec := newCodec(time.Hour)
	rec := httptest.NewRecorder()
	codec.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, DefaultName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}
