package mocks

//go:generate mockgen -destination=./mock_adapter.go -package=mocks github.com/rxtech-lab/argo-bots/internal/exchange Adapter
//go:generate mockgen -destination=./mock_repository.go -package=mocks github.com/rxtech-lab/argo-bots/internal/repository Repository
//go:generate mockgen -destination=./mock_runtime.go -package=mocks github.com/rxtech-lab/argo-bots/internal/scheduler Runtime
