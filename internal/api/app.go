package api

import (
	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/advice"
	"github.com/yourname/aquaguide/internal/metrics"
	"github.com/yourname/aquaguide/internal/service"
)

type App interface {
	Logger() internal.Logger
	Manager() *service.BatchManager
	Advice() advice.Generator
	Metrics() *metrics.Metrics
}

type app struct {
	logger  internal.Logger
	manager *service.BatchManager
	advice  advice.Generator
	metrics *metrics.Metrics
}

func NewApp(logger internal.Logger, manager *service.BatchManager, gen advice.Generator, m *metrics.Metrics) App {
	return &app{logger: logger, manager: manager, advice: gen, metrics: m}
}

func (a *app) Logger() internal.Logger { return a.logger }
func (a *app) Manager() *service.BatchManager { return a.manager }
func (a *app) Advice() advice.Generator { return a.advice }
func (a *app) Metrics() *metrics.Metrics { return a.metrics }
