package handlers

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tweetline/internal/config"
	"tweetline/internal/repository"
	"tweetline/internal/service"
)

type Handlers struct {
	AuthService    service.AuthService
	UserService    service.UserService
	GraphService   service.GraphService
	ContentService service.ContentService
	AccountService service.AccountService
	HealthRepo     repository.HealthRepository
	Cfg            *config.Config
	Validate       *validator.Validate
}

func NewHandlers(repo *repository.Repository, service *service.Service, config *config.Config) *Handlers {
	return &Handlers{
		AuthService:    service.Auth,
		UserService:    service.User,
		GraphService:   service.Graph,
		ContentService: service.Content,
		AccountService: service.Account,
		HealthRepo:     repo.Health,
		Cfg:            config,
		Validate:       NewValidator(),
	}
}

// NewValidator reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
