package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule and AdminModule are implemented by feature modules; a module may
// implement both.
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// Optional; lower mounts first, default 100.
type prioritizer interface{ Priority() int }

// Registry collects the modules one process serves.
type Registry struct {
	apiMods   []APIModule
	adminMods []AdminModule
}

// Register files mod under every surface it implements.
func (r *Registry) Register(mods ...any) *Registry {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.apiMods = append(r.apiMods, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.adminMods = append(r.adminMods, m)
		}
	}
	return r
}

func (r *Registry) MountAllAPI(api *gin.RouterGroup) {
	mods := append([]APIModule(nil), r.apiMods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(api)
	}
}

func (r *Registry) MountAllAdmin(admin *gin.RouterGroup) {
	mods := append([]AdminModule(nil), r.adminMods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
