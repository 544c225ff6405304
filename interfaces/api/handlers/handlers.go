package handlers

import (
	"gorm.io/gorm"

	"eventphoto-api/domain/repositories"
	"eventphoto-api/domain/services"
	"eventphoto-api/infrastructure/faceapi"
	"eventphoto-api/infrastructure/redis"
)

// Services contains all the services needed for handlers
type Services struct {
	FaceService     services.FaceService
	PhotoService    services.PhotoService
	BackfillService services.BackfillService
}

// Infrastructure is what the health checks probe. Nil members are reported
// as unavailable.
type Infrastructure struct {
	DB              *gorm.DB
	RedisClient     *redis.RedisClient
	FaceClient      *faceapi.FaceClient
	PhotoRepository repositories.PhotoRepository
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Face   *FaceHandler
	Photo  *PhotoHandler
	Health *HealthHandler
	Log    *LogHandler
}

func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	if infra == nil {
		infra = &Infrastructure{}
	}
	return &Handlers{
		Face:   NewFaceHandler(services.FaceService),
		Photo:  NewPhotoHandler(services.PhotoService, services.BackfillService),
		Health: NewHealthHandler(infra.DB, infra.RedisClient, infra.FaceClient, infra.PhotoRepository),
		Log:    NewLogHandler(),
	}
}
