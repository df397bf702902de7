package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/expiry"

	usecaseMock "github.com/vadimbarashkov/shortlink/mocks/usecase"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type URLUseCaseTestSuite struct {
	suite.Suite
	errUnknown   error
	urlRepoMock  *usecaseMock.MockUrlRepository
	urlCacheMock *usecaseMock.MockUrlCache
	uc           *URLUseCase
	ucWithCache  *URLUseCase
}

func (suite *URLUseCaseTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *URLUseCaseTestSuite) SetupSubTest() {
	suite.urlRepoMock = usecaseMock.NewMockUrlRepository(suite.T())
	suite.urlCacheMock = usecaseMock.NewMockUrlCache(suite.T())

	clock := WithClock(func() time.Time { return testNow })
	logger := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	suite.uc = New(7, suite.urlRepoMock, clock, logger)
	suite.ucWithCache = New(7, suite.urlRepoMock, clock, logger, WithCache(suite.urlCacheMock))
}

func (suite *URLUseCaseTestSuite) TearDownSubTest() {
	suite.urlRepoMock.AssertExpectations(suite.T())
	suite.urlCacheMock.AssertExpectations(suite.T())
}

func saved(_ context.Context, url *entity.URL) (*entity.URL, error) {
	out := *url
	out.ID = 1
	out.UpdatedAt = out.CreatedAt
	return &out, nil
}

func (suite *URLUseCaseTestSuite) TestShortenURL() {
	ctx := context.Background()

	suite.Run("invalid url", func() {
		for _, raw := range []string{"", "example.com", "ftp://example.com/file", "http://", "not a url"} {
			url, err := suite.uc.ShortenURL(ctx, ShortenParams{OriginalURL: raw, ExpiresIn: expiry.OneDay})

			suite.ErrorIs(err, entity.ErrInvalidURL, raw)
			suite.Nil(url)
		}
	})

	suite.Run("invalid expiry", func() {
		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   "2d",
		})

		suite.ErrorIs(err, entity.ErrInvalidExpiry)
		suite.Nil(url)
	})

	suite.Run("reserved alias", func() {
		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.Never,
			CustomAlias: "dashboard",
		})

		suite.ErrorIs(err, entity.ErrReservedAlias)
		suite.Nil(url)
	})

	suite.Run("invalid alias", func() {
		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.Never,
			CustomAlias: "bad alias!",
		})

		suite.ErrorIs(err, entity.ErrInvalidAlias)
		suite.Nil(url)
	})

	suite.Run("alias taken", func() {
		suite.urlRepoMock.
			On("Save", ctx, mock.MatchedBy(func(url *entity.URL) bool {
				return url.ShortCode == "my-link" && url.IsCustomAlias
			})).
			Once().
			Return(nil, entity.ErrShortCodeExists)

		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.Never,
			CustomAlias: "my-link",
		})

		suite.ErrorIs(err, entity.ErrAliasTaken)
		suite.Nil(url)
	})

	suite.Run("generation exhausted", func() {
		suite.urlRepoMock.
			On("Save", ctx, mock.Anything).
			Times(MaxRetries).
			Return(nil, entity.ErrShortCodeExists)

		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.OneHour,
		})

		suite.ErrorIs(err, entity.ErrGenerationExhausted)
		suite.Nil(url)
	})

	suite.Run("retry lengthens code", func() {
		var lengths []int

		suite.urlRepoMock.
			On("Save", ctx, mock.Anything).
			Twice().
			Run(func(args mock.Arguments) {
				lengths = append(lengths, len(args.Get(1).(*entity.URL).ShortCode))
			}).
			Return(nil, entity.ErrShortCodeExists)
		suite.urlRepoMock.
			On("Save", ctx, mock.Anything).
			Once().
			Return(saved)

		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.OneHour,
		})

		suite.NoError(err)
		suite.Equal([]int{7, 8}, lengths)
		suite.Len(url.ShortCode, 9)
	})

	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("Save", ctx, mock.Anything).
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.OneHour,
		})

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("Save", ctx, mock.MatchedBy(func(url *entity.URL) bool {
				return len(url.ShortCode) == 7 && !url.IsCustomAlias
			})).
			Once().
			Return(saved)

		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.OneWeek,
		})

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.True(url.IsActive)
		suite.Zero(url.ClickCount)
		suite.Equal(testNow, url.CreatedAt)
		suite.Require().NotNil(url.ExpiresAt)
		suite.Equal(testNow.Add(7*24*time.Hour), *url.ExpiresAt)
	})

	suite.Run("success never expires", func() {
		suite.urlRepoMock.
			On("Save", ctx, mock.Anything).
			Once().
			Return(saved)

		url, err := suite.uc.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.Never,
		})

		suite.NoError(err)
		suite.Nil(url.ExpiresAt)
	})

	suite.Run("success caches url", func() {
		suite.urlRepoMock.
			On("Save", ctx, mock.Anything).
			Once().
			Return(saved)
		suite.urlCacheMock.
			On("Set", ctx, mock.MatchedBy(func(url *entity.URL) bool {
				return url.ShortCode == "my-link"
			})).
			Once().
			Return(suite.errUnknown)

		url, err := suite.ucWithCache.ShortenURL(ctx, ShortenParams{
			OriginalURL: "https://example.com",
			ExpiresIn:   expiry.Never,
			CustomAlias: "my-link",
		})

		suite.NoError(err)
		suite.Equal("my-link", url.ShortCode)
		suite.True(url.IsCustomAlias)
	})
}

func (suite *URLUseCaseTestSuite) TestResolveShortCode() {
	ctx := context.Background()
	past := testNow.Add(-time.Second)

	suite.Run("reserved code", func() {
		url, err := suite.uc.ResolveShortCode(ctx, "stats")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("RetrieveAndUpdateStats", ctx, "abc1234", testNow).
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.uc.ResolveShortCode(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("url expired", func() {
		suite.urlRepoMock.
			On("RetrieveAndUpdateStats", ctx, "abc1234", testNow).
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(&entity.URL{ShortCode: "abc1234", ExpiresAt: &testNow}, nil)

		url, err := suite.uc.ResolveShortCode(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLExpired)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("url deactivated", func() {
		suite.urlRepoMock.
			On("RetrieveAndUpdateStats", ctx, "abc1234", testNow).
			Once().
			Return(nil, entity.ErrURLNotFound)
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(&entity.URL{ShortCode: "abc1234", DeactivatedAt: &past}, nil)

		url, err := suite.uc.ResolveShortCode(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLInactive)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("RetrieveAndUpdateStats", ctx, "abc1234", testNow).
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.uc.ResolveShortCode(ctx, "abc1234")

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("RetrieveAndUpdateStats", ctx, "abc1234", testNow).
			Once().
			Return(&entity.URL{
				ShortCode:   "abc1234",
				OriginalURL: "https://example.com",
				URLStats:    entity.URLStats{ClickCount: 1},
			}, nil)

		url, err := suite.uc.ResolveShortCode(ctx, "abc1234")

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Equal(int64(1), url.ClickCount)
		suite.True(url.IsActive)
	})
}

func (suite *URLUseCaseTestSuite) TestCheckURL() {
	ctx := context.Background()
	record := &entity.URL{ShortCode: "abc1234", OriginalURL: "https://example.com"}

	suite.Run("reserved code", func() {
		url, err := suite.uc.CheckURL(ctx, "api")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.uc.CheckURL(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("url expired", func() {
		expired := testNow.Add(-time.Minute)

		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(&entity.URL{ShortCode: "abc1234", ExpiresAt: &expired}, nil)

		url, err := suite.uc.CheckURL(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLExpired)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(record, nil)

		url, err := suite.uc.CheckURL(ctx, "abc1234")

		suite.NoError(err)
		suite.True(url.IsActive)
	})

	suite.Run("cache hit", func() {
		suite.urlCacheMock.
			On("Get", ctx, "abc1234").
			Once().
			Return(record, true, nil)

		url, err := suite.ucWithCache.CheckURL(ctx, "abc1234")

		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)
	})

	suite.Run("cache miss", func() {
		suite.urlCacheMock.
			On("Get", ctx, "abc1234").
			Once().
			Return(nil, false, nil)
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(record, nil)
		suite.urlCacheMock.
			On("Set", ctx, record).
			Once().
			Return(nil)

		url, err := suite.ucWithCache.CheckURL(ctx, "abc1234")

		suite.NoError(err)
		suite.Equal("abc1234", url.ShortCode)
	})

	suite.Run("cache unavailable", func() {
		suite.urlCacheMock.
			On("Get", ctx, "abc1234").
			Once().
			Return(nil, false, suite.errUnknown)
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(record, nil)
		suite.urlCacheMock.
			On("Set", ctx, record).
			Once().
			Return(suite.errUnknown)

		url, err := suite.ucWithCache.CheckURL(ctx, "abc1234")

		suite.NoError(err)
		suite.Equal("abc1234", url.ShortCode)
	})
}

func (suite *URLUseCaseTestSuite) TestGetURLStats() {
	ctx := context.Background()

	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.uc.GetURLStats(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("expired url is reported inactive", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(&entity.URL{
				ShortCode: "abc1234",
				URLStats:  entity.URLStats{ClickCount: 42},
				ExpiresAt: &testNow,
			}, nil)

		url, err := suite.uc.GetURLStats(ctx, "abc1234")

		suite.NoError(err)
		suite.False(url.IsActive)
		suite.Equal(int64(42), url.ClickCount)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("RetrieveByShortCode", ctx, "abc1234").
			Once().
			Return(&entity.URL{ShortCode: "abc1234"}, nil)

		url, err := suite.uc.GetURLStats(ctx, "abc1234")

		suite.NoError(err)
		suite.True(url.IsActive)
	})
}

func (suite *URLUseCaseTestSuite) TestListURLs() {
	ctx := context.Background()

	suite.Run("invalid page", func() {
		list, err := suite.uc.ListURLs(ctx, 0, 10)

		suite.ErrorIs(err, entity.ErrInvalidPage)
		suite.Nil(list)
	})

	suite.Run("invalid page size", func() {
		list, err := suite.uc.ListURLs(ctx, 1, 50)

		suite.ErrorIs(err, entity.ErrInvalidPage)
		suite.Nil(list)
	})

	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("List", ctx, entity.Page{Number: 1, Size: 10}).
			Once().
			Return(nil, int64(0), suite.errUnknown)

		list, err := suite.uc.ListURLs(ctx, 1, 10)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(list)
	})

	suite.Run("success", func() {
		expired := testNow.Add(-time.Hour)

		suite.urlRepoMock.
			On("List", ctx, entity.Page{Number: 2, Size: 30}).
			Once().
			Return([]*entity.URL{
				{ShortCode: "abc1234"},
				{ShortCode: "def5678", ExpiresAt: &expired},
			}, int64(32), nil)

		list, err := suite.uc.ListURLs(ctx, 2, 30)

		suite.NoError(err)
		suite.Equal(int64(32), list.Total)
		suite.Equal(int64(2), list.Page.TotalPages(list.Total))
		suite.Require().Len(list.URLs, 2)
		suite.True(list.URLs[0].IsActive)
		suite.False(list.URLs[1].IsActive)
	})
}

func (suite *URLUseCaseTestSuite) TestDeactivateURL() {
	ctx := context.Background()

	suite.Run("url not found", func() {
		suite.urlRepoMock.
			On("Deactivate", ctx, "abc1234", testNow).
			Once().
			Return(nil, entity.ErrURLNotFound)

		err := suite.uc.DeactivateURL(ctx, "abc1234")

		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("Deactivate", ctx, "abc1234", testNow).
			Once().
			Return(&entity.URL{ShortCode: "abc1234", DeactivatedAt: &testNow}, nil)

		err := suite.uc.DeactivateURL(ctx, "abc1234")

		suite.NoError(err)
	})

	suite.Run("success evicts cache", func() {
		suite.urlRepoMock.
			On("Deactivate", ctx, "abc1234", testNow).
			Once().
			Return(&entity.URL{ShortCode: "abc1234", DeactivatedAt: &testNow}, nil)
		suite.urlCacheMock.
			On("Delete", ctx, "abc1234").
			Once().
			Return(suite.errUnknown)

		err := suite.ucWithCache.DeactivateURL(ctx, "abc1234")

		suite.NoError(err)
	})
}

func TestURLUseCase(t *testing.T) {
	suite.Run(t, new(URLUseCaseTestSuite))
}
