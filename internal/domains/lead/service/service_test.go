package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"concierge/config"
	kafkaMocks "concierge/infras/kafka/mocks"
	"concierge/infras/otel/mocks"
	leadMocks "concierge/internal/domains/lead/mocks"
	"concierge/internal/domains/lead/model"
	"concierge/internal/domains/lead/model/dto"
	"concierge/internal/domains/lead/service"
	cacheMocks "concierge/shared/cache/mocks"
	gDto "concierge/shared/dto"
	gModel "concierge/shared/model"
	"concierge/shared/timezone"
)

func validRecordRequest() dto.RecordLeadRequest {
	return dto.RecordLeadRequest{
		Name:            "Ada",
		Email:           "a@b.com",
		Timezone:        "Europe/London",
		Notes:           "first visit",
		ServiceInterest: "consultation",
		BookingUID:      "u1",
		BookingStart:    timezone.Now().AddDate(0, 0, 7),
	}
}

func TestLeadService_Record(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.RecordLeadRequest
		setupMock func(repo *leadMocks.MockLead, kafka *kafkaMocks.MockClient, cache *cacheMocks.MockRedisCache)
	}{
		{
			name: "successful record",
			req:  validRecordRequest(),
			setupMock: func(repo *leadMocks.MockLead, kafka *kafkaMocks.MockClient, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Do(func(_ context.Context, lead model.Lead) {
						assert.NotEmpty(t, lead.ID)
						assert.Equal(t, "a@b.com", lead.Email)
						assert.Equal(t, "booking_flow", lead.Source)
					}).
					Return(nil)
				kafka.EXPECT().
					SendMessages(gomock.Any(), "crm.leads", gomock.Any()).
					Return(nil)
				cache.EXPECT().Clear(gomock.Any(), "lead:gets*").Return(nil)
				cache.EXPECT().Clear(gomock.Any(), "lead:count*").Return(nil)
			},
		},
		{
			name: "invalid payload is dropped without side effects",
			req: dto.RecordLeadRequest{
				Name:  "Ada",
				Email: "not-an-email",
			},
			setupMock: func(*leadMocks.MockLead, *kafkaMocks.MockClient, *cacheMocks.MockRedisCache) {},
		},
		{
			name: "repository failure is swallowed",
			req:  validRecordRequest(),
			setupMock: func(repo *leadMocks.MockLead, kafka *kafkaMocks.MockClient, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
				kafka.EXPECT().
					SendMessages(gomock.Any(), "crm.leads", gomock.Any()).
					Return(nil)
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			},
		},
		{
			name: "broker failure is swallowed",
			req:  validRecordRequest(),
			setupMock: func(repo *leadMocks.MockLead, kafka *kafkaMocks.MockClient, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
				kafka.EXPECT().
					SendMessages(gomock.Any(), "crm.leads", gomock.Any()).
					Return(errors.New("broker unreachable"))
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := leadMocks.NewMockLead(ctrl)
			mockKafka := kafkaMocks.NewMockClient(ctrl)
			mockCache := cacheMocks.NewMockRedisCache(ctrl)

			cfg := &config.Config{}
			cfg.Cache.TTL = 3600
			cfg.Kafka.Topics.Leads = "crm.leads"

			tt.setupMock(mockRepo, mockKafka, mockCache)

			svc := service.New(mockRepo, cfg, mockCache, mockKafka, mocks.NewOtel())

			// Record never returns anything: the booking already succeeded.
			svc.Record(context.Background(), tt.req)
		})
	}
}

func TestLeadService_RecordWithoutTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := leadMocks.NewMockLead(ctrl)
	mockKafka := kafkaMocks.NewMockClient(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}

	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	svc := service.New(mockRepo, cfg, mockCache, mockKafka, mocks.NewOtel())

	// No topic configured, so nothing is announced on the broker.
	svc.Record(context.Background(), validRecordRequest())
}

func TestLeadService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := leadMocks.NewMockLead(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, kafkaMocks.NewMockClient(ctrl), mocks.NewOtel())

	params := gDto.QueryParams{Page: 1, Limit: 10}
	filter := gDto.FilterGroup{}

	leads := []model.Lead{
		{
			ID:    "lead-1",
			Name:  "Ada",
			Email: "a@b.com",
			Metadata: gModel.Metadata{
				CreatedAt:  timezone.Now(),
				ModifiedAt: timezone.Now(),
			},
		},
	}

	saved := make(chan struct{}, 2)

	// Cache misses for both the count and the listing, then the fresh result
	// is stored in the background.
	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	mockRepo.EXPECT().Count(gomock.Any(), filter).Return(1, nil)
	mockRepo.EXPECT().GetAll(gomock.Any(), params, filter).Return(leads, nil)
	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), 3600).
		Do(func(context.Context, string, any, int) {
			saved <- struct{}{}
		}).
		Return(nil).
		Times(2)

	res, err := svc.GetAll(context.Background(), params, filter)

	assert.NoError(t, err)
	assert.Len(t, res.Leads, 1)
	assert.Equal(t, 1, res.TotalData)
	assert.Equal(t, "a@b.com", res.Leads[0].Email)

	for range 2 {
		select {
		case <-saved:
		case <-time.After(time.Second):
			t.Fatal("result was never cached")
		}
	}
}

func TestLeadService_GetAllRepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := leadMocks.NewMockLead(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, kafkaMocks.NewMockClient(ctrl), mocks.NewOtel())

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errors.New("database error"))

	_, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})

	assert.Error(t, err)
}

func TestLeadService_CountCacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := leadMocks.NewMockLead(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}

	svc := service.New(mockRepo, cfg, mockCache, kafkaMocks.NewMockClient(ctrl), mocks.NewOtel())

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value any) error {
			count, ok := value.(*int)
			assert.True(t, ok)
			*count = 7

			return nil
		})

	res, err := svc.Count(context.Background(), gDto.QueryParams{}, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Equal(t, 7, res)
}
