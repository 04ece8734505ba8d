package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// Module 资源模块：public 无需登录，protected 已挂鉴权闸门
type Module interface {
	Mount(public, protected *gin.RouterGroup)
}

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

func priorityOf(m Module) int {
	if p, ok := m.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}

// MountAll 按优先级挂载所有模块
func MountAll(public, protected *gin.RouterGroup, mods ...Module) {
	mods = append([]Module(nil), mods...)
	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, m := range mods {
		m.Mount(public, protected)
	}
}
