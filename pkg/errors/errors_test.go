package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		userSafe  bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, userSafe: true},
		{code: CodeVerification, status: http.StatusBadRequest, publicMsg: "Güvenlik doğrulaması hatası. Lütfen sayfayı yenileyip tekrar deneyiniz."},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "Aradığınız içerik bulunamadı."},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "Çok fazla deneme yaptınız. Lütfen biraz sonra tekrar deneyiniz."},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: ServerErrorMessage},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: ServerErrorMessage},
		{code: CodeConsistency, status: http.StatusInternalServerError, publicMsg: ServerErrorMessage},
		{code: CodeStartup, status: http.StatusServiceUnavailable, publicMsg: ServerErrorMessage},
		{code: "SOMETHING_UNKNOWN", status: http.StatusInternalServerError, publicMsg: ServerErrorMessage},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.publicMsg, meta.PublicMessage)
			assert.Equal(t, tt.userSafe, meta.UserSafe)
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "missing foo", base.Message())
	assert.Nil(t, base.Details())
	assert.Equal(t, "VALIDATION_ERROR: missing foo", base.Error())

	base.WithDetails(map[string]any{"field": "foo"})
	assert.Equal(t, map[string]any{"field": "foo"}, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "upload")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: upload: boom", wrapped.Error())
	assert.Nil(t, Wrap(CodeInternal, nil, "x").Unwrap())

	var nilErr *Error
	assert.Equal(t, CodeInternal, nilErr.Code())
	assert.Nil(t, nilErr.WithDetails("ignored"))
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConsistency, "row not updated"))
	require.NotNil(t, As(err))
	assert.Equal(t, CodeConsistency, As(err).Code())
	assert.True(t, IsCode(err, CodeConsistency))
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))

	nested := Wrap(CodeInternal, fmt.Errorf("save: %w", New(CodeDependency, "drive 503")), "sync contribution")
	assert.True(t, IsCode(nested, CodeInternal))
	assert.True(t, IsCode(nested, CodeDependency))
	assert.False(t, IsCode(nested, CodeValidation))
	assert.False(t, IsCode(nil, CodeInternal))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Dosya çok büyük.", PublicMessage(New(CodeValidation, "Dosya çok büyük.")))
	assert.Equal(t, MetadataFor(CodeVerification).PublicMessage, PublicMessage(New(CodeVerification, "score too low")))
	assert.Equal(t, ServerErrorMessage, PublicMessage(stdErrors.New("dial tcp: refused")))
	assert.Equal(t, ServerErrorMessage, PublicMessage(Wrap(CodeInternal, stdErrors.New("pq: boom"), "insert contribution")))
}

func TestDumpIncludesChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("drive 503"), "upload")
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}

func TestDumpFieldsCarryPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "contributions_uploaded_has_file", TableName: "contributions"}
	d := Dump(Wrap(CodeConsistency, fmt.Errorf("mark uploaded: %w", pgErr), "save drive data"))

	fields := d.Fields()
	if fields["pg_code"] != "23514" || fields["pg_constraint"] != "contributions_uploaded_has_file" {
		t.Fatalf("unexpected postgres fields %v", fields)
	}
	if _, ok := fields["pg_detail"]; ok {
		t.Fatal("empty postgres fields should be omitted")
	}
	if fields["error_code"] != CodeConsistency {
		t.Fatalf("unexpected code %v", fields["error_code"])
	}
}
