package organisation

import (
	"github.com/smallbiznis/bizhub/internal/organisation/domain"
	"github.com/smallbiznis/bizhub/internal/organisation/lifecycle"
	"github.com/smallbiznis/bizhub/internal/organisation/repository"
	"github.com/smallbiznis/bizhub/internal/organisation/service"
	"go.uber.org/fx"
)

func newValidator() domain.TransitionValidator {
	return lifecycle.New()
}

var Module = fx.Module("organisation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(newValidator),
	fx.Provide(service.NewService),
)
