package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	propertieserrors "stayhub/internal/properties/errors"
	"stayhub/internal/properties/repository"
	"stayhub/internal/properties/validator"
	"stayhub/pkg/cache"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	"stayhub/pkg/kafka"
	"stayhub/pkg/model"
	"stayhub/pkg/sanitizer"
	"stayhub/pkg/updates"
)

// EventPublisher publishes property lifecycle events. A nil publisher
// disables events; publishing is best-effort and never fails the request.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type PropertyService interface {
	Create(ctx context.Context, property *model.Property) (*model.Property, error)
	Get(ctx context.Context, propertyID, location string) (*model.Property, error)
	Update(ctx context.Context, propertyID, location string, attrs map[string]any) (*model.Property, error)
	Delete(ctx context.Context, propertyID, location string) error
	ListByLocation(ctx context.Context, location string, limit int, offset int64) ([]*model.Property, int64, error)
}

type propertyService struct {
	cfg       *config.Config
	repo      repository.PropertyRepository
	validator *validator.PropertyValidator
	cache     cache.PropertyCache
	events    EventPublisher
}

// NewPropertyService builds the service. cache and events may be nil, which
// disables the read-through cache and event publishing respectively.
func NewPropertyService(
	cfg *config.Config,
	repo repository.PropertyRepository,
	propertyValidator *validator.PropertyValidator,
	propertyCache cache.PropertyCache,
	events EventPublisher,
) PropertyService {
	return &propertyService{
		cfg:       cfg,
		repo:      repo,
		validator: propertyValidator,
		cache:     propertyCache,
		events:    events,
	}
}

func (s *propertyService) Create(ctx context.Context, property *model.Property) (*model.Property, error) {
	if property == nil {
		return nil, apperrors.InvalidInput("property payload is required")
	}

	if property.PropertyID == "" {
		property.PropertyID = uuid.NewString()
	}
	s.sanitize(property)
	property.CreatedAt = time.Time{}
	property.UpdatedAt = time.Time{}

	if err := s.validator.Validate(property); err != nil {
		return nil, translateValidation(err)
	}

	if err := s.repo.Insert(ctx, property); err != nil {
		if errors.Is(err, propertieserrors.ErrKeyExists) {
			return nil, apperrors.Conflict("A property with this id already exists in this location")
		}
		return nil, apperrors.Storage("Failed to persist property", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, property); err != nil {
			s.cfg.Log.Warn("Property cache write failed", "propertyId", property.PropertyID, "error", err)
		}
	}
	s.publishEvent(ctx, kafka.EventPropertyCreated, property)
	return property, nil
}

// Get serves reads through the cache: a hit skips the store, a miss falls
// back to the store and repopulates. Cache faults degrade to store reads.
func (s *propertyService) Get(ctx context.Context, propertyID, location string) (*model.Property, error) {
	key, err := propertyKey(propertyID, location)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.cfg.Log.Warn("Property cache read failed", "propertyId", propertyID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	property, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", propertyID)
		}
		return nil, apperrors.Storage("Failed to load property", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, property); err != nil {
			s.cfg.Log.Warn("Property cache write failed", "propertyId", propertyID, "error", err)
		}
	}
	return property, nil
}

func (s *propertyService) Update(ctx context.Context, propertyID, location string, attrs map[string]any) (*model.Property, error) {
	key, err := propertyKey(propertyID, location)
	if err != nil {
		return nil, err
	}

	sanitizeAttrs(attrs)

	update, err := model.PropertyUpdateSchema.Compose(attrs, time.Now())
	if err != nil {
		var invalid *updates.InvalidUpdateError
		if errors.As(err, &invalid) {
			return nil, apperrors.InvalidUpdate(invalid.Error())
		}
		return nil, apperrors.Storage("Failed to compose update", err)
	}

	updated, err := s.repo.ApplyUpdate(ctx, key, update)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", propertyID)
		}
		return nil, apperrors.Storage("Failed to update property", err)
	}

	s.invalidate(ctx, key)
	s.publishEvent(ctx, kafka.EventPropertyUpdated, updated)
	return updated, nil
}

func (s *propertyService) Delete(ctx context.Context, propertyID, location string) error {
	key, err := propertyKey(propertyID, location)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Property", propertyID)
		}
		return apperrors.Storage("Failed to delete property", err)
	}

	s.invalidate(ctx, key)
	s.publishEvent(ctx, kafka.EventPropertyDeleted, &model.Property{PropertyID: propertyID, Location: location})
	return nil
}

func (s *propertyService) ListByLocation(ctx context.Context, location string, limit int, offset int64) ([]*model.Property, int64, error) {
	location = sanitizer.TrimAndNormalize(location)
	if location == "" {
		return nil, 0, apperrors.InvalidInput("location is required")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		wg         sync.WaitGroup
		properties []*model.Property
		total      int64
		findErr    error
		countErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		properties, findErr = s.repo.FindByLocation(ctx, location, limit, offset)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.CountByLocation(ctx, location)
	}()
	wg.Wait()

	if findErr != nil {
		return nil, 0, apperrors.Storage("Failed to list properties", findErr)
	}
	if countErr != nil {
		return nil, 0, apperrors.Storage("Failed to count properties", countErr)
	}

	return properties, total, nil
}

func (s *propertyService) sanitize(property *model.Property) {
	property.PropertyID = sanitizer.TrimAndNormalize(property.PropertyID)
	property.Location = sanitizer.TrimAndNormalize(property.Location)
	property.HostID = sanitizer.TrimAndNormalize(property.HostID)
	property.Title = sanitizer.NormalizeTitle(property.Title)
	property.Description = sanitizer.NormalizeDescription(property.Description)
	property.Amenities = sanitizer.NormalizeAmenities(property.Amenities)
}

// sanitizeAttrs normalizes the textual attributes of an update mapping in
// place, mirroring what Create does to full payloads.
func sanitizeAttrs(attrs map[string]any) {
	for name, value := range attrs {
		str, ok := value.(string)
		if !ok {
			continue
		}
		switch name {
		case "title":
			attrs[name] = sanitizer.NormalizeTitle(str)
		case "description":
			attrs[name] = sanitizer.NormalizeDescription(str)
		case "hostId":
			attrs[name] = sanitizer.TrimAndNormalize(str)
		}
	}
	switch raw := attrs["amenities"].(type) {
	case []string:
		attrs["amenities"] = sanitizer.NormalizeAmenities(raw)
	case []any:
		// Decoded JSON arrays arrive untyped.
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			if str, ok := item.(string); ok {
				items = append(items, str)
			}
		}
		attrs["amenities"] = sanitizer.NormalizeAmenities(items)
	}
}

func (s *propertyService) invalidate(ctx context.Context, key model.PropertyKey) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.cfg.Log.Warn("Property cache invalidation failed", "propertyId", key.PropertyID, "error", err)
	}
}

func (s *propertyService) publishEvent(ctx context.Context, eventType string, property *model.Property) {
	if s.events == nil {
		return
	}

	msg, err := kafka.NewEvent(eventType, property.PropertyID, "properties", property)
	if err != nil {
		s.cfg.Log.Warn("Failed to encode property event", "eventType", eventType, "propertyId", property.PropertyID, "error", err)
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.cfg.Log.Warn("Failed to publish property event", "eventType", eventType, "propertyId", property.PropertyID, "error", err)
	}
}

func propertyKey(propertyID, location string) (model.PropertyKey, error) {
	propertyID = sanitizer.TrimAndNormalize(propertyID)
	location = sanitizer.TrimAndNormalize(location)
	if propertyID == "" {
		return model.PropertyKey{}, apperrors.InvalidInput("propertyId is required")
	}
	if location == "" {
		return model.PropertyKey{}, apperrors.InvalidInput("location is required")
	}
	return model.PropertyKey{PropertyID: propertyID, Location: location}, nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Property validation failed", verrs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}
