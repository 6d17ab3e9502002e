package router

import (
	userapp "github.com/travelgo/travelgo/internal/application"
	"github.com/travelgo/travelgo/internal/container"
	repouser "github.com/travelgo/travelgo/internal/domain/repository"
	pginfra "github.com/travelgo/travelgo/internal/infrastructure/postgres"
	handlers "github.com/travelgo/travelgo/internal/interface/http"
	"github.com/travelgo/travelgo/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *userapp.Service
	Handler *handlers.UserHandler
	Views   *handlers.ViewHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()

	repo := pginfra.NewUserRepository(container.GetPGPool(), cfg.BcryptCost)

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetRabbitPub(),
		cfg,
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetES(),
		cfg.ESUsersIndex,
	)

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
	)

	return UserModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handler,
		Views:   handlers.NewViewHandler(service),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildUserDeps()
	r.Add(modules.NewUserModule(deps.Handler, deps.Repo))
	r.Add(modules.NewViewModule(deps.Views, deps.Repo))
	r.Add(modules.NewDebugModule())
}
