package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Lead=MockLeadService

import (
	"concierge/config"
	"concierge/infras/kafka"
	"concierge/infras/otel"
	"concierge/internal/domains/lead/model/dto"
	"concierge/internal/domains/lead/repository"
	"concierge/shared"
	"concierge/shared/cache"
	"concierge/shared/constant"
	gDto "concierge/shared/dto"
	"concierge/shared/validator"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAllLead = "lead:gets"
	cacheCountLead  = "lead:count"
)

// Lead records CRM contact details after a booking succeeds. Record is
// deliberately fire-and-forget: it returns nothing and no error escapes its
// boundary, so booking success can never come to depend on it.
type Lead interface {
	Record(ctx context.Context, req dto.RecordLeadRequest)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetLeadsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
}

type serviceImpl struct {
	repo  repository.Lead
	cfg   *config.Config
	cache cache.RedisCache
	kafka kafka.Client
	otel  otel.Otel
}

func New(repo repository.Lead, cfg *config.Config, cache cache.RedisCache, kafkaClient kafka.Client, otel otel.Otel) Lead {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		kafka: kafkaClient,
		otel:  otel,
	}
}

// Record persists the lead and announces it on the CRM topic. Every failure
// is logged and swallowed: the booking this lead came from has already been
// confirmed with the provider.
func (s *serviceImpl) Record(ctx context.Context, req dto.RecordLeadRequest) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Record")
	defer scope.End()

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("email", req.Email).Msg("lead record skipped, invalid payload")

		return
	}

	lead := req.ToModel()

	if err := s.repo.Insert(ctx, lead); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("email", lead.Email).Msg("failed to persist lead, booking is unaffected")
	}

	if s.cfg.Kafka.Topics.Leads != "" {
		message := kafka.Message{
			Key:   lead.ID,
			Value: lead,
		}

		if err := s.kafka.SendMessages(ctx, s.cfg.Kafka.Topics.Leads, message); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Str("email", lead.Email).Msg("failed to publish lead event, booking is unaffected")
		}
	}

	shared.InvalidateCaches(ctx, s.cache, cacheGetAllLead)
	shared.InvalidateCaches(ctx, s.cache, cacheCountLead)
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetLeadsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllLead, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for leads")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count leads")

		return res, fmt.Errorf("failed to count leads: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get leads")

		return res, fmt.Errorf("failed to get leads: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save leads to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountLead, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for lead count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count leads")

		return res, fmt.Errorf("failed to count leads: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save lead count to cache")
		}
	}()

	return res, nil
}
