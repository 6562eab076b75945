package routes

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sitefleet/platform/internal/httpserver/deps"
	"github.com/sitefleet/platform/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

// registry is filled by init() in each route file.
var registry []entry

// Register a registrar with optional middlewares shared by its routes.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every registered group. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		target := r
		if len(e.mws) > 0 {
			target = r.With(e.mws...)
		}
		e.reg(target, d)
		if d.Logger != nil {
			d.Logger.Debug("routes registered", logger.String("group", registrarName(e.reg)))
		}
	}
}

// registrarName turns ".../routes.registerPlan" into "plan".
func registrarName(reg Registrar) string {
	name := runtime.FuncForPC(reflect.ValueOf(reg).Pointer()).Name()
	if i := strings.LastIndex(name, ".register"); i >= 0 {
		return strings.ToLower(name[i+len(".register"):])
	}
	return name
}
