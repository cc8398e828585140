package bucket

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
	body []byte
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(*params.Bucket, *params.Key, *params.ContentType)
	if params.Body != nil {
		m.body, _ = io.ReadAll(params.Body)
	}
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestPublisher_Publish(t *testing.T) {
	// Given
	dir := t.TempDir()
	report := filepath.Join(dir, "forecast_2025-01-10_to_2025-01-12.html")
	require.NoError(t, os.WriteFile(report, []byte("<html>report</html>"), 0o644))

	client := &mockS3{}
	client.On("PutObject", "snow-reports", "daily/forecast_2025-01-10_to_2025-01-12.html", "text/html; charset=utf-8").
		Return(&s3.PutObjectOutput{}, nil)
	p := NewPublisher(client, "snow-reports", "daily/")

	// When
	location, err := p.Publish(context.Background(), report)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "s3://snow-reports/daily/forecast_2025-01-10_to_2025-01-12.html", location)
	assert.Equal(t, "<html>report</html>", string(client.body))
	client.AssertExpectations(t)
}

func TestPublisher_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		p := NewPublisher(&mockS3{}, "b", "")
		_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("upload failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chart.html")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		client := &mockS3{}
		client.On("PutObject", "b", "chart.html", mock.Anything).Return(nil, errors.New("access denied"))

		_, err := NewPublisher(client, "b", "").Publish(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3://b/chart.html")
	})

	t.Run("no bucket", func(t *testing.T) {
		_, err := NewS3Publisher(context.Background(), Settings{})
		assert.Error(t, err)
	})
}
