package filteroption

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aster/pkg/models"
)

type fakeOptionsReader struct {
	options *models.FilterOptions
	err     error
	calls   int
}

func (f *fakeOptionsReader) Distinct(_ context.Context) (*models.FilterOptions, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.options, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestGetOptions(t *testing.T) {
	t.Run("should return database values when present", func(t *testing.T) {
		reader := &fakeOptionsReader{
			options: &models.FilterOptions{
				Regions:        []string{"East"},
				Categories:     []string{"Books"},
				Tags:           []string{"sale"},
				PaymentMethods: []string{"Cash"},
			},
		}
		service := NewService(reader, nil, 0, testLogger())

		options := service.GetOptions(context.Background())

		assert.Equal(t, []string{"East"}, options.Regions)
		assert.Equal(t, []string{"Books"}, options.Categories)
		assert.Equal(t, 1, reader.calls)
	})

	t.Run("should backfill empty fields with defaults", func(t *testing.T) {
		reader := &fakeOptionsReader{
			options: &models.FilterOptions{
				Regions: []string{"East"},
			},
		}
		service := NewService(reader, nil, 0, testLogger())

		options := service.GetOptions(context.Background())

		defaults := models.DefaultFilterOptions()
		assert.Equal(t, []string{"East"}, options.Regions)
		assert.Equal(t, defaults.Categories, options.Categories)
		assert.Equal(t, defaults.Tags, options.Tags)
		assert.Equal(t, defaults.PaymentMethods, options.PaymentMethods)
	})

	t.Run("should return the full defaults when storage fails", func(t *testing.T) {
		reader := &fakeOptionsReader{err: errors.New("connection refused")}
		service := NewService(reader, nil, 0, testLogger())

		options := service.GetOptions(context.Background())

		defaults := models.DefaultFilterOptions()
		assert.Equal(t, &defaults, options)
	})

	t.Run("should never return empty vocabularies", func(t *testing.T) {
		reader := &fakeOptionsReader{options: &models.FilterOptions{}}
		service := NewService(reader, nil, 0, testLogger())

		options := service.GetOptions(context.Background())

		assert.NotEmpty(t, options.Regions)
		assert.NotEmpty(t, options.Categories)
		assert.NotEmpty(t, options.Tags)
		assert.NotEmpty(t, options.PaymentMethods)
	})
}
