package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-scheduler/internal/models"
	appErrors "github.com/noah-isme/academy-scheduler/pkg/errors"
	"github.com/noah-isme/academy-scheduler/pkg/storage"
)

type expiredSigner struct {
	*storage.SignedURLSigner
}

func (expiredSigner) Parse(string, bool) (string, string, time.Time, error) {
	return "", "", time.Time{}, storage.ErrTokenExpired
}

func newExportEnv(t *testing.T) (*testEnv, *ExportService) {
	t.Helper()
	env := newTestEnv(t, PermissiveTransitions)
	env.seedTajweed(t)
	class := env.createClass(t, "2025-03-03", "15:00")
	takeClass(t, env, class.ID)
	_, err := env.salary.GenerateForPeriod(context.Background(), 3, 2025)
	require.NoError(t, err)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return env, NewExportService(env.salary, files, signer, ExportConfig{APIPrefix: "/api/v1/"}, nil, nil)
}

func TestExportSalaryReportsCSV(t *testing.T) {
	_, svc := newExportEnv(t)

	result, err := svc.ExportSalaryReports(context.Background(), models.ExportSalaryRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.Equal(t, 1, result.Rows)
	require.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))

	token := strings.TrimPrefix(result.URL, "/api/v1/export/")
	download, err := svc.Open(token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ustadh Kareem")
	assert.Contains(t, string(body), "20.00")
}

func TestExportSalaryReportsFormats(t *testing.T) {
	_, svc := newExportEnv(t)
	ctx := context.Background()

	for _, format := range []string{"pdf", "xlsx"} {
		result, err := svc.ExportSalaryReports(ctx, models.ExportSalaryRequest{Month: 3, Year: 2025, Format: format})
		require.NoError(t, err, format)
		assert.Equal(t, format, result.Format)
	}

	_, err := svc.ExportSalaryReports(ctx, models.ExportSalaryRequest{Month: 3, Year: 2025, Format: "docx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ExportSalaryReports(ctx, models.ExportSalaryRequest{Month: 4, Year: 2025})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportOpenRejectsBadTokens(t *testing.T) {
	_, svc := newExportEnv(t)
	result, err := svc.ExportSalaryReports(context.Background(), models.ExportSalaryRequest{Month: 3, Year: 2025})
	require.NoError(t, err)
	token := strings.TrimPrefix(result.URL, "/api/v1/export/")

	_, err = svc.Open(token + "x")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	svc.signer = expiredSigner{}
	_, err = svc.Open(token)
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Contains(t, err.Error(), "expired")
}

func TestExportCleanup(t *testing.T) {
	_, svc := newExportEnv(t)
	_, err := svc.ExportSalaryReports(context.Background(), models.ExportSalaryRequest{Month: 3, Year: 2025})
	require.NoError(t, err)

	removed, err := svc.Cleanup(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, removed)

	time.Sleep(20 * time.Millisecond)
	removed, err = svc.Cleanup(time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}
